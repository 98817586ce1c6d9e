package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dvloznov/finance-advisor/internal/advice"
	"github.com/dvloznov/finance-advisor/internal/api/middleware"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/rs/zerolog"
)

type stubStore struct {
	deleted []int64
}

func (s *stubStore) ListTransactions(ctx context.Context, limit int, q string) ([]domain.Transaction, error) {
	return []domain.Transaction{}, nil
}

func (s *stubStore) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	tx.ID = 1
	return nil
}

func (s *stubStore) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	if id == 1 {
		return &domain.Transaction{ID: 1, Description: "Coffee"}, nil
	}
	return nil, fmt.Errorf("GetTransaction: %w", domain.ErrNotFound)
}

func (s *stubStore) GetEnrichment(ctx context.Context, id int64) (*domain.EnrichedTransaction, error) {
	return nil, nil
}

func (s *stubStore) UpsertEnrichment(ctx context.Context, id int64, l domain.Labels) (*domain.EnrichedTransaction, error) {
	return &domain.EnrichedTransaction{TransactionID: id, Labels: l}, nil
}

func (s *stubStore) ListLatestInsights(ctx context.Context, limit int) ([]domain.AdviceInsight, error) {
	return nil, nil
}

func (s *stubStore) DeleteInsight(ctx context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubStore) ReplaceBenchmarks(ctx context.Context, rows []domain.ProviderBenchmark) (int, error) {
	return len(rows), nil
}

func (s *stubStore) ReplaceHomebrew(ctx context.Context, rows []domain.HomebrewCost) (int, error) {
	return len(rows), nil
}

type stubCategorizer struct{}

func (stubCategorizer) Categorize(ctx context.Context, description string, amount float64) domain.Labels {
	return domain.Labels{Confidence: 0.5}
}

type stubRunner struct{}

func (stubRunner) Run(ctx context.Context, days int) (*advice.RunResult, error) {
	return &advice.RunResult{RunID: "r", AnalyzedDays: days}, nil
}

func newTestRouter(store *stubStore) http.Handler {
	return NewRouter(Deps{
		Transactions: store,
		Insights:     store,
		Reference:    store,
		Categorizer:  stubCategorizer{},
		Runner:       stubRunner{},
		CORSOrigins:  []string{"http://localhost:3000"},
		Log:          zerolog.Nop(),
	})
}

func TestRouter(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(store)

	tests := []struct {
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
		{http.MethodGet, "/transactions", "", http.StatusOK},
		{http.MethodPost, "/transactions", `{"date":"2025-01-01","description":"x","amount":1}`, http.StatusCreated},
		{http.MethodPut, "/transactions", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/transactions/1/enriched", "", http.StatusOK},
		{http.MethodGet, "/transactions/abc/enriched", "", http.StatusBadRequest},
		{http.MethodGet, "/transactions/1", "", http.StatusNotFound},
		{http.MethodPost, "/categorize", `{"description":"x","amount":1}`, http.StatusOK},
		{http.MethodGet, "/categorize", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/advisor/1", "", http.StatusOK},
		{http.MethodGet, "/advisor/2", "", http.StatusNotFound},
		{http.MethodPost, "/advice/run?days=30", "", http.StatusOK},
		{http.MethodPost, "/advice/run?days=0", "", http.StatusOK},
		{http.MethodPost, "/advice/run?days=x", "", http.StatusBadRequest},
		{http.MethodGet, "/advice/latest", "", http.StatusOK},
		{http.MethodDelete, "/advice/3", "", http.StatusOK},
		{http.MethodGet, "/advice/3", "", http.StatusMethodNotAllowed},
		{http.MethodPost, "/seed/benchmarks", "", http.StatusOK},
		{http.MethodPost, "/seed/homebrew", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("expected a request id header")
			}
		})
	}

	if len(store.deleted) != 1 || store.deleted[0] != 3 {
		t.Errorf("deleted = %v, want [3]", store.deleted)
	}
}

func TestRouter_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/advice/run", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	newTestRouter(&stubStore{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Error("expected CORS headers on preflight")
	}
}
