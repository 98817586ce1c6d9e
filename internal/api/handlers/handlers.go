// Package handlers implements the HTTP endpoints of the advisor API.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/finance-advisor/internal/advice"
	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/rs/zerolog"
)

// TransactionStore is the persistence used by the transaction and categorize endpoints.
type TransactionStore interface {
	ListTransactions(ctx context.Context, limit int, q string) ([]domain.Transaction, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	GetEnrichment(ctx context.Context, transactionID int64) (*domain.EnrichedTransaction, error)
	UpsertEnrichment(ctx context.Context, transactionID int64, labels domain.Labels) (*domain.EnrichedTransaction, error)
}

// Categorizer labels a (description, amount) pair. It never fails.
type Categorizer interface {
	Categorize(ctx context.Context, description string, amount float64) domain.Labels
}

// TransactionAdvisor produces short advice for a single transaction.
type TransactionAdvisor interface {
	AdviseTransaction(ctx context.Context, description string, amount float64, merchant string) (string, error)
}

// AdviceRunner runs the batch advice synthesis.
type AdviceRunner interface {
	Run(ctx context.Context, days int) (*advice.RunResult, error)
}

// InsightStore reads and deletes persisted insights.
type InsightStore interface {
	ListLatestInsights(ctx context.Context, limit int) ([]domain.AdviceInsight, error)
	DeleteInsight(ctx context.Context, id int64) error
}

// ReferenceStore replaces the reference tables.
type ReferenceStore interface {
	ReplaceBenchmarks(ctx context.Context, rows []domain.ProviderBenchmark) (int, error)
	ReplaceHomebrew(ctx context.Context, rows []domain.HomebrewCost) (int, error)
}

// Health handles GET / and GET /health.
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "AI Finance Advisor API",
		"status":  "healthy",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// ParseID parses a positive integer path segment.
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.Trim(s, "/"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryInt returns the named query parameter as a non-negative int, def when
// it is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}

// writeStoreError maps domain.ErrNotFound to 404 and anything else to a logged 500.
func writeStoreError(w http.ResponseWriter, log zerolog.Logger, err error, notFound, failure string) {
	if errors.Is(err, domain.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, notFound)
		return
	}
	log.Error().Err(err).Msg(failure)
	middleware.WriteError(w, http.StatusInternalServerError, failure)
}
