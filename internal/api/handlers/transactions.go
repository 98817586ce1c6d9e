package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/dvloznov/finance-advisor/internal/validator"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransactionOut is the wire form of a transaction.
type TransactionOut struct {
	ID          int64   `json:"id"`
	AccountID   int64   `json:"account_id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	MerchantRaw *string `json:"merchant_raw"`
}

// EnrichedOut is the wire form of an enrichment.
type EnrichedOut struct {
	TransactionID  int64   `json:"transaction_id"`
	Merchant       *string `json:"merchant"`
	Category       *string `json:"category"`
	Subcategory    *string `json:"subcategory"`
	IsSubscription bool    `json:"is_subscription"`
	Confidence     float64 `json:"confidence"`
	Notes          *string `json:"notes"`
	SpendingClass  *string `json:"spending_class"`
}

type createTransactionRequest struct {
	AccountID   int64    `json:"account_id" validate:"gte=0"`
	Date        string   `json:"date" validate:"required,isodate"`
	Description string   `json:"description" validate:"notblank"`
	Amount      *float64 `json:"amount" validate:"required"`
	MerchantRaw *string  `json:"merchant_raw"`
}

func toTransactionOut(tx domain.Transaction) TransactionOut {
	return TransactionOut{
		ID:          tx.ID,
		AccountID:   tx.AccountID,
		Date:        tx.Date.Format(validator.DateLayout),
		Description: tx.Description,
		Amount:      tx.Amount.InexactFloat64(),
		MerchantRaw: tx.MerchantRaw,
	}
}

func toEnrichedOut(transactionID int64, l domain.Labels) EnrichedOut {
	out := EnrichedOut{
		TransactionID:  transactionID,
		Merchant:       l.Merchant,
		Category:       l.Category,
		Subcategory:    l.Subcategory,
		IsSubscription: l.IsSubscription,
		Confidence:     l.Confidence,
		Notes:          l.Notes,
	}
	if l.SpendingClass != nil {
		s := string(*l.SpendingClass)
		out.SpendingClass = &s
	}
	return out
}

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	store TransactionStore
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(store TransactionStore, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: store, log: log}
}

// ListTransactions handles GET /transactions?limit=&q=
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOr(r.Context(), h.log)

	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if limit == 0 {
		middleware.WriteJSON(w, http.StatusOK, []TransactionOut{})
		return
	}

	txs, err := h.store.ListTransactions(r.Context(), limit, r.URL.Query().Get("q"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	out := make([]TransactionOut, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionOut(tx))
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// CreateTransaction handles POST /transactions
func (h *TransactionsHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOr(r.Context(), h.log)

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg, ok := validator.Struct(req); !ok {
		middleware.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	date, _ := time.Parse(validator.DateLayout, req.Date)
	tx := &domain.Transaction{
		AccountID:   req.AccountID,
		Date:        date,
		Description: req.Description,
		Amount:      decimal.NewFromFloat(*req.Amount),
		MerchantRaw: req.MerchantRaw,
	}
	if err := h.store.CreateTransaction(r.Context(), tx); err != nil {
		log.Error().Err(err).Msg("Failed to create transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	log.Info().Int64("transaction_id", tx.ID).Msg("Transaction created")
	middleware.WriteJSON(w, http.StatusCreated, toTransactionOut(*tx))
}

// GetEnrichment handles GET /transactions/{id}/enriched. A transaction without
// enrichment yields JSON null.
func (h *TransactionsHandler) GetEnrichment(w http.ResponseWriter, r *http.Request, transactionID int64) {
	log := logger.FromContextOr(r.Context(), h.log)

	e, err := h.store.GetEnrichment(r.Context(), transactionID)
	if err != nil {
		log.Error().Err(err).Int64("transaction_id", transactionID).Msg("Failed to get enrichment")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get enrichment")
		return
	}
	if e == nil {
		middleware.WriteJSON(w, http.StatusOK, nil)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, toEnrichedOut(e.TransactionID, e.Labels))
}
