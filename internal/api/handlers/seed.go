package handlers

import (
	"fmt"
	"net/http"

	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/benchmark"
	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/rs/zerolog"
)

// SeedHandler loads the built-in reference data.
type SeedHandler struct {
	store ReferenceStore
	log   zerolog.Logger
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(store ReferenceStore, log zerolog.Logger) *SeedHandler {
	return &SeedHandler{store: store, log: log}
}

// SeedBenchmarks handles POST /seed/benchmarks
func (h *SeedHandler) SeedBenchmarks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOr(r.Context(), h.log)

	n, err := h.store.ReplaceBenchmarks(r.Context(), benchmark.SeedBenchmarks())
	if err != nil {
		log.Error().Err(err).Msg("Failed to seed benchmarks")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to seed benchmarks")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Seeded %d benchmark records", n),
	})
}

// SeedHomebrew handles POST /seed/homebrew
func (h *SeedHandler) SeedHomebrew(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOr(r.Context(), h.log)

	n, err := h.store.ReplaceHomebrew(r.Context(), benchmark.SeedHomebrew())
	if err != nil {
		log.Error().Err(err).Msg("Failed to seed homebrew costs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to seed homebrew costs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Seeded %d homebrew cost records", n),
	})
}
