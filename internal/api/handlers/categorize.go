package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/dvloznov/finance-advisor/internal/validator"
	"github.com/rs/zerolog"
)

// NoInsight is returned as advice when the advisor cannot produce any.
const NoInsight = "No insight"

type categorizeRequest struct {
	Description   string   `json:"description" validate:"notblank"`
	Amount        *float64 `json:"amount" validate:"required"`
	TransactionID *int64   `json:"transaction_id"`
}

// CategorizeHandler handles categorization and single-transaction advice.
type CategorizeHandler struct {
	store       TransactionStore
	categorizer Categorizer
	advisor     TransactionAdvisor
	log         zerolog.Logger
}

// NewCategorizeHandler creates a new categorize handler.
func NewCategorizeHandler(store TransactionStore, categorizer Categorizer, advisor TransactionAdvisor, log zerolog.Logger) *CategorizeHandler {
	return &CategorizeHandler{
		store:       store,
		categorizer: categorizer,
		advisor:     advisor,
		log:         log,
	}
}

// Categorize handles POST /categorize. Without a transaction id the labels are
// returned with transaction_id 0; with one they are stored on that transaction.
func (h *CategorizeHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOr(r.Context(), h.log)

	var req categorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg, ok := validator.Struct(req); !ok {
		middleware.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	if req.TransactionID == nil || *req.TransactionID == 0 {
		labels := h.categorizer.Categorize(ctx, req.Description, *req.Amount)
		middleware.WriteJSON(w, http.StatusOK, toEnrichedOut(0, labels))
		return
	}

	id := *req.TransactionID
	if _, err := h.store.GetTransaction(ctx, id); err != nil {
		writeStoreError(w, log, err, fmt.Sprintf("Transaction %d not found", id), "Failed to categorize transaction")
		return
	}

	labels := h.categorizer.Categorize(ctx, req.Description, *req.Amount)
	e, err := h.store.UpsertEnrichment(ctx, id, labels)
	if err != nil {
		writeStoreError(w, log, err, fmt.Sprintf("Transaction %d not found", id), "Failed to categorize transaction")
		return
	}

	log.Info().Int64("transaction_id", id).Float64("confidence", labels.Confidence).Msg("Transaction categorized")
	middleware.WriteJSON(w, http.StatusOK, toEnrichedOut(e.TransactionID, e.Labels))
}

// Advise handles GET /advisor/{transaction_id}.
func (h *CategorizeHandler) Advise(w http.ResponseWriter, r *http.Request, transactionID int64) {
	log := logger.FromContextOr(r.Context(), h.log)
	ctx := r.Context()

	tx, err := h.store.GetTransaction(ctx, transactionID)
	if err != nil {
		writeStoreError(w, log, err, "Transaction not found", "Failed to load transaction")
		return
	}

	var merchant string
	e, err := h.store.GetEnrichment(ctx, transactionID)
	if err != nil {
		log.Warn().Err(err).Int64("transaction_id", transactionID).Msg("Failed to load enrichment")
	}
	if e != nil && e.Merchant != nil {
		merchant = *e.Merchant
	} else if tx.MerchantRaw != nil {
		merchant = *tx.MerchantRaw
	}

	text := NoInsight
	if h.advisor != nil {
		advice, err := h.advisor.AdviseTransaction(ctx, tx.Description, tx.Amount.InexactFloat64(), merchant)
		if err != nil {
			log.Warn().Err(err).Int64("transaction_id", transactionID).Msg("Advisor failed")
		} else if advice != "" {
			text = advice
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transaction_id": tx.ID,
		"advice":         text,
	})
}
