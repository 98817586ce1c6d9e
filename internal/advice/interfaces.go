package advice

import (
	"context"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// Repository is the storage the synthesizer reads transactions from and
// writes insights to.
type Repository interface {
	// ListTransactionsSince returns transactions dated on or after since,
	// newest first, each with its enrichment when present.
	ListTransactionsSince(ctx context.Context, since time.Time) ([]domain.TransactionWithEnrichment, error)

	// InsertInsights persists insights, filling in ID and CreatedAt.
	InsertInsights(ctx context.Context, insights []*domain.AdviceInsight) error
}

// Advisor is the external AI service consulted while synthesizing advice.
type Advisor interface {
	// FindCheaperAlternative returns free-text suggestions for a recurring service.
	FindCheaperAlternative(ctx context.Context, service string, monthlyPrice float64) (string, error)

	// SuggestRecipe returns an at-home alternative for a purchased item.
	SuggestRecipe(ctx context.Context, item, brandHint string) (domain.RecipeCard, error)
}

// Lookup gives access to the static reference tables.
type Lookup interface {
	CheaperAlternative(ctx context.Context, hint string) (*domain.BenchmarkMatch, error)
	HomebrewUnitCost(ctx context.Context, item string) (*float64, error)
}

// Publisher receives the insights created by a run after they are persisted.
type Publisher interface {
	PublishInsights(ctx context.Context, runID string, insights []domain.AdviceInsight) error
}
