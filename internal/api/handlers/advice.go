package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/rs/zerolog"
)

const (
	defaultListLimit    = 100
	defaultAdviceDays   = 90
	defaultInsightLimit = 20
)

// InsightOut is the wire form of an advice insight.
type InsightOut struct {
	ID            int64              `json:"id"`
	CreatedAt     string             `json:"created_at"`
	RunID         string             `json:"run_id"`
	Kind          domain.InsightKind `json:"kind"`
	Title         string             `json:"title"`
	Body          string             `json:"body"`
	MonthlySaving *float64           `json:"monthly_saving"`
	AnnualSaving  *float64           `json:"annual_saving"`
	Projection10y *float64           `json:"projection_10y"`
	Confidence    float64            `json:"confidence"`
	TxIDs         []int64            `json:"tx_ids"`
	Meta          interface{}        `json:"meta"`
}

func toInsightOut(in domain.AdviceInsight) InsightOut {
	txIDs := in.TxIDs
	if txIDs == nil {
		txIDs = []int64{}
	}
	var meta interface{} = map[string]interface{}{}
	if in.Meta != nil {
		meta = in.Meta
	}
	return InsightOut{
		ID:            in.ID,
		CreatedAt:     in.CreatedAt.UTC().Format(time.RFC3339),
		RunID:         in.RunID,
		Kind:          in.Kind,
		Title:         in.Title,
		Body:          in.Body,
		MonthlySaving: in.MonthlySaving,
		AnnualSaving:  in.AnnualSaving,
		Projection10y: in.Projection10y,
		Confidence:    in.Confidence,
		TxIDs:         txIDs,
		Meta:          meta,
	}
}

// AdviceHandler handles advice run and insight endpoints.
type AdviceHandler struct {
	runner AdviceRunner
	store  InsightStore
	log    zerolog.Logger
}

// NewAdviceHandler creates a new advice handler.
func NewAdviceHandler(runner AdviceRunner, store InsightStore, log zerolog.Logger) *AdviceHandler {
	return &AdviceHandler{runner: runner, store: store, log: log}
}

// Run handles POST /advice/run?days=90
func (h *AdviceHandler) Run(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOr(r.Context(), h.log)

	days, err := queryInt(r, "days", defaultAdviceDays)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.runner.Run(r.Context(), days)
	if err != nil {
		log.Error().Err(err).Int("days", days).Msg("Advice run failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to generate advice")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// Latest handles GET /advice/latest?limit=20
func (h *AdviceHandler) Latest(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOr(r.Context(), h.log)

	limit, err := queryInt(r, "limit", defaultInsightLimit)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if limit == 0 {
		middleware.WriteJSON(w, http.StatusOK, []InsightOut{})
		return
	}

	insights, err := h.store.ListLatestInsights(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list insights")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list advice")
		return
	}

	out := make([]InsightOut, 0, len(insights))
	for _, in := range insights {
		out = append(out, toInsightOut(in))
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

// Delete handles DELETE /advice/{id}
func (h *AdviceHandler) Delete(w http.ResponseWriter, r *http.Request, id int64) {
	log := logger.FromContextOr(r.Context(), h.log)

	if err := h.store.DeleteInsight(r.Context(), id); err != nil {
		writeStoreError(w, log, err, "Advice not found", "Failed to delete advice")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Advice deleted successfully"})
}
