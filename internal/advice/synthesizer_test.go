package advice

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MockRepository is a mock implementation of Repository for testing.
type MockRepository struct {
	ListTransactionsSinceFunc func(ctx context.Context, since time.Time) ([]domain.TransactionWithEnrichment, error)
	InsertInsightsFunc        func(ctx context.Context, insights []*domain.AdviceInsight) error
}

func (m *MockRepository) ListTransactionsSince(ctx context.Context, since time.Time) ([]domain.TransactionWithEnrichment, error) {
	return m.ListTransactionsSinceFunc(ctx, since)
}

func (m *MockRepository) InsertInsights(ctx context.Context, insights []*domain.AdviceInsight) error {
	if m.InsertInsightsFunc != nil {
		return m.InsertInsightsFunc(ctx, insights)
	}
	for i, in := range insights {
		in.ID = int64(i + 1)
	}
	return nil
}

// MockAdvisor is a mock implementation of Advisor for testing.
type MockAdvisor struct {
	FindCheaperAlternativeFunc func(ctx context.Context, service string, monthlyPrice float64) (string, error)
	SuggestRecipeFunc          func(ctx context.Context, item, brandHint string) (domain.RecipeCard, error)
}

func (m *MockAdvisor) FindCheaperAlternative(ctx context.Context, service string, monthlyPrice float64) (string, error) {
	if m.FindCheaperAlternativeFunc != nil {
		return m.FindCheaperAlternativeFunc(ctx, service, monthlyPrice)
	}
	return "No known cheaper alternatives.", nil
}

func (m *MockAdvisor) SuggestRecipe(ctx context.Context, item, brandHint string) (domain.RecipeCard, error) {
	if m.SuggestRecipeFunc != nil {
		return m.SuggestRecipeFunc(ctx, item, brandHint)
	}
	return domain.RecipeCard{
		Title:             "Home latte",
		Method:            []string{"Brew coffee", "Steam milk", "Combine"},
		EstCostPerServing: 0.6,
		TimeMinutes:       5,
		IsViable:          true,
	}, nil
}

// MockLookup is a mock implementation of Lookup for testing.
type MockLookup struct {
	CheaperAlternativeFunc func(ctx context.Context, hint string) (*domain.BenchmarkMatch, error)
	HomebrewUnitCostFunc   func(ctx context.Context, item string) (*float64, error)
}

func (m *MockLookup) CheaperAlternative(ctx context.Context, hint string) (*domain.BenchmarkMatch, error) {
	if m.CheaperAlternativeFunc != nil {
		return m.CheaperAlternativeFunc(ctx, hint)
	}
	return nil, nil
}

func (m *MockLookup) HomebrewUnitCost(ctx context.Context, item string) (*float64, error) {
	if m.HomebrewUnitCostFunc != nil {
		return m.HomebrewUnitCostFunc(ctx, item)
	}
	return nil, nil
}

// MockPublisher records published insights.
type MockPublisher struct {
	Err       error
	Published []domain.AdviceInsight
}

func (m *MockPublisher) PublishInsights(ctx context.Context, runID string, insights []domain.AdviceInsight) error {
	m.Published = append(m.Published, insights...)
	return m.Err
}

func spend(id int64, desc string, amount float64) domain.Transaction {
	return domain.Transaction{ID: id, Description: desc, Amount: decimal.NewFromFloat(-amount)}
}

func enriched(id int64, merchant string, subscription bool, class domain.SpendingClass) *domain.EnrichedTransaction {
	return &domain.EnrichedTransaction{
		TransactionID: id,
		Labels: domain.Labels{
			Merchant:       &merchant,
			IsSubscription: subscription,
			SpendingClass:  &class,
		},
	}
}

func rowsOf(txs []domain.Transaction, e func(id int64) *domain.EnrichedTransaction) []domain.TransactionWithEnrichment {
	out := make([]domain.TransactionWithEnrichment, 0, len(txs))
	for _, tx := range txs {
		out = append(out, domain.TransactionWithEnrichment{Transaction: tx, Enrichment: e(tx.ID)})
	}
	return out
}

func newTestSynthesizer(repo Repository, advisor Advisor, lookup Lookup, opts Options, pubs ...Publisher) *Synthesizer {
	s := NewSynthesizer(repo, advisor, lookup, opts, zerolog.Nop(), pubs...)
	s.now = func() time.Time { return time.Date(2025, 6, 30, 15, 0, 0, 0, time.UTC) }
	return s
}

func staticRepo(rows []domain.TransactionWithEnrichment) *MockRepository {
	return &MockRepository{
		ListTransactionsSinceFunc: func(ctx context.Context, since time.Time) ([]domain.TransactionWithEnrichment, error) {
			return rows, nil
		},
	}
}

func approx(t *testing.T, name string, got *float64, want float64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s is nil, want %v", name, want)
	}
	if math.Abs(*got-want) > 1e-6 {
		t.Errorf("%s = %v, want %v", name, *got, want)
	}
}

func TestRun_SubscriptionSwitchFromAdvisor(t *testing.T) {
	txs := []domain.Transaction{
		spend(4, "STREAMFLIX", 15), spend(3, "STREAMFLIX", 15), spend(2, "STREAMFLIX", 15), spend(1, "STREAMFLIX", 15),
	}
	rows := rowsOf(txs, func(id int64) *domain.EnrichedTransaction {
		return enriched(id, "StreamFlix", true, domain.SpendingWant)
	})

	var askedPrice float64
	advisor := &MockAdvisor{
		FindCheaperAlternativeFunc: func(ctx context.Context, service string, monthlyPrice float64) (string, error) {
			askedPrice = monthlyPrice
			return "Try CheapTV at 9.99 EUR/month.", nil
		},
	}
	pub := &MockPublisher{}
	s := newTestSynthesizer(staticRepo(rows), advisor, &MockLookup{}, DefaultOptions(), pub)

	res, err := s.Run(context.Background(), 90)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 1 || len(res.Insights) != 1 {
		t.Fatalf("created = %d, want 1", res.Created)
	}
	if math.Abs(askedPrice-20) > 1e-9 {
		t.Errorf("advisor asked with monthly %v, want 20", askedPrice)
	}

	in := res.Insights[0]
	if in.Kind != domain.KindSwitch {
		t.Fatalf("kind = %s, want switch", in.Kind)
	}
	approx(t, "monthly_saving", in.MonthlySaving, 4)
	approx(t, "annual_saving", in.AnnualSaving, 48)
	approx(t, "projection_10y", in.Projection10y, FutureValue(4, 0.07, 10))
	if in.RunID != res.RunID || in.RunID == "" {
		t.Errorf("insight run id %q, result run id %q", in.RunID, res.RunID)
	}
	meta, ok := in.Meta.(domain.SwitchMeta)
	if !ok || meta.Source != domain.SourceAI {
		t.Errorf("meta = %#v, want SwitchMeta from ai", in.Meta)
	}
	if len(pub.Published) != 1 {
		t.Errorf("published %d insights, want 1", len(pub.Published))
	}
}

func TestRun_SubscriptionMonitorWhenNoAlternative(t *testing.T) {
	rows := rowsOf([]domain.Transaction{spend(1, "SPOTIFY", 9.99)}, func(id int64) *domain.EnrichedTransaction {
		return enriched(id, "Spotify", true, domain.SpendingWant)
	})

	for _, text := range []string{"No known cheaper alternatives.", "   ", "NO KNOWN CHEAPER ALTERNATIVES in Ireland"} {
		advisor := &MockAdvisor{
			FindCheaperAlternativeFunc: func(ctx context.Context, service string, monthlyPrice float64) (string, error) {
				if math.Abs(monthlyPrice-9.99) > 1e-9 {
					t.Errorf("single transaction should use its own amount, got %v", monthlyPrice)
				}
				return text, nil
			},
		}
		s := newTestSynthesizer(staticRepo(rows), advisor, nil, DefaultOptions())
		res, err := s.Run(context.Background(), 90)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if res.Created != 1 {
			t.Fatalf("created = %d, want 1", res.Created)
		}
		in := res.Insights[0]
		if in.Kind != domain.KindMonitor {
			t.Errorf("kind = %s, want monitor for %q", in.Kind, text)
		}
		if in.MonthlySaving != nil || in.AnnualSaving != nil || in.Projection10y != nil {
			t.Error("monitor insight must not carry saving figures")
		}
	}
}

func TestRun_SubscriptionSwitchFromBenchmark(t *testing.T) {
	rows := rowsOf([]domain.Transaction{spend(2, "VODAFONE", 20), spend(1, "VODAFONE", 20)}, func(id int64) *domain.EnrichedTransaction {
		return enriched(id, "Vodafone", true, domain.SpendingNeed)
	})
	lookup := &MockLookup{
		CheaperAlternativeFunc: func(ctx context.Context, hint string) (*domain.BenchmarkMatch, error) {
			if !strings.Contains(strings.ToLower(hint), "vodafone") {
				t.Errorf("hint %q should mention vodafone", hint)
			}
			return &domain.BenchmarkMatch{
				Current:       domain.PricedPlan{Provider: "Vodafone", Price: 20},
				Alternative:   domain.PricedPlan{Provider: "Three IE", Plan: "SIM-only", Price: 15},
				MonthlySaving: 5,
			}, nil
		},
	}
	advisor := &MockAdvisor{
		FindCheaperAlternativeFunc: func(ctx context.Context, service string, monthlyPrice float64) (string, error) {
			t.Error("advisor should not be called when a benchmark matches")
			return "", nil
		},
	}

	res, err := newTestSynthesizer(staticRepo(rows), advisor, lookup, DefaultOptions()).Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	in := res.Insights[0]
	approx(t, "monthly_saving", in.MonthlySaving, 5)
	approx(t, "annual_saving", in.AnnualSaving, 60)
	if meta := in.Meta.(domain.SwitchMeta); meta.Source != domain.SourceBenchmark || meta.Benchmark == nil {
		t.Errorf("meta = %#v, want benchmark source", meta)
	}
}

func TestRun_WantCutback(t *testing.T) {
	txs := []domain.Transaction{spend(3, "Latte", 10), spend(2, "Latte", 10), spend(1, "Latte", 10)}
	rows := rowsOf(txs, func(id int64) *domain.EnrichedTransaction {
		return enriched(id, "Costa Coffee", false, domain.SpendingWant)
	})
	coffee := 0.5
	lookup := &MockLookup{
		HomebrewUnitCostFunc: func(ctx context.Context, item string) (*float64, error) {
			if item != "coffee" {
				t.Errorf("item = %q, want coffee", item)
			}
			return &coffee, nil
		},
	}

	res, err := newTestSynthesizer(staticRepo(rows), &MockAdvisor{}, lookup, DefaultOptions()).Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 1 {
		t.Fatalf("created = %d, want 1", res.Created)
	}
	in := res.Insights[0]
	if in.Kind != domain.KindCutback {
		t.Fatalf("kind = %s, want cutback", in.Kind)
	}
	approx(t, "monthly_saving", in.MonthlySaving, 9)
	approx(t, "annual_saving", in.AnnualSaving, 108)
	if !strings.Contains(in.Body, "Try making it at home") || !strings.Contains(in.Body, "Home latte") {
		t.Errorf("body should include the recipe, got %q", in.Body)
	}
	meta := in.Meta.(domain.CutbackMeta)
	if meta.Item != "coffee" || meta.HomebrewUnitCost == nil || *meta.HomebrewUnitCost != 0.5 {
		t.Errorf("meta = %#v, want coffee with homebrew cost", meta)
	}
}

func TestRun_WantBelowThresholds(t *testing.T) {
	tests := []struct {
		name string
		txs  []domain.Transaction
		days int
	}{
		{"too few transactions", []domain.Transaction{spend(2, "Cinema", 20), spend(1, "Cinema", 20)}, 30},
		{"monthly under five", []domain.Transaction{spend(3, "Gum", 1), spend(2, "Gum", 1), spend(1, "Gum", 1)}, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := rowsOf(tt.txs, func(id int64) *domain.EnrichedTransaction {
				return enriched(id, "", false, domain.SpendingWant)
			})
			advisor := &MockAdvisor{
				SuggestRecipeFunc: func(ctx context.Context, item, brandHint string) (domain.RecipeCard, error) {
					t.Error("advisor should not be called")
					return domain.RecipeCard{}, nil
				},
			}
			res, err := newTestSynthesizer(staticRepo(rows), advisor, nil, DefaultOptions()).Run(context.Background(), tt.days)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if res.Created != 0 {
				t.Errorf("created = %d, want 0", res.Created)
			}
		})
	}
}

func TestRun_NonViableRecipeOmittedFromBody(t *testing.T) {
	txs := []domain.Transaction{spend(3, "Gym class", 20), spend(2, "Gym class", 20), spend(1, "Gym class", 20)}
	rows := rowsOf(txs, func(id int64) *domain.EnrichedTransaction {
		return enriched(id, "FitHub", false, domain.SpendingWant)
	})
	advisor := &MockAdvisor{
		SuggestRecipeFunc: func(ctx context.Context, item, brandHint string) (domain.RecipeCard, error) {
			return domain.RecipeCard{Title: "n/a", IsViable: false}, nil
		},
	}
	res, err := newTestSynthesizer(staticRepo(rows), advisor, nil, DefaultOptions()).Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(res.Insights[0].Body, "Try making it at home") {
		t.Error("non-viable recipe should not appear in the body")
	}
}

func TestRun_FailingGroupIsSkipped(t *testing.T) {
	rows := append(
		rowsOf([]domain.Transaction{spend(5, "BROKEN", 10)}, func(id int64) *domain.EnrichedTransaction {
			return enriched(id, "Broken TV", true, domain.SpendingWant)
		}),
		rowsOf([]domain.Transaction{spend(4, "Latte", 10), spend(3, "Latte", 10), spend(2, "Latte", 10)}, func(id int64) *domain.EnrichedTransaction {
			return enriched(id, "Cafe", false, domain.SpendingWant)
		})...,
	)
	advisor := &MockAdvisor{
		FindCheaperAlternativeFunc: func(ctx context.Context, service string, monthlyPrice float64) (string, error) {
			return "", errors.New("rate limited")
		},
	}

	res, err := newTestSynthesizer(staticRepo(rows), advisor, nil, DefaultOptions()).Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}
	if res.Created != 1 || res.Insights[0].Kind != domain.KindCutback {
		t.Errorf("expected the healthy group to still produce a cutback, got %+v", res.Insights)
	}
}

func TestRun_CutbackSurvivesRecipeFailure(t *testing.T) {
	txs := []domain.Transaction{spend(3, "Latte", 10), spend(2, "Latte", 10), spend(1, "Latte", 10)}
	rows := rowsOf(txs, func(id int64) *domain.EnrichedTransaction {
		return enriched(id, "Cafe", false, domain.SpendingWant)
	})
	advisor := &MockAdvisor{
		SuggestRecipeFunc: func(ctx context.Context, item, brandHint string) (domain.RecipeCard, error) {
			return domain.RecipeCard{}, errors.New("gemini unavailable")
		},
	}

	res, err := newTestSynthesizer(staticRepo(rows), advisor, nil, DefaultOptions()).Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Skipped != 0 || res.Created != 1 {
		t.Fatalf("created = %d, skipped = %d, want 1 and 0", res.Created, res.Skipped)
	}
	in := res.Insights[0]
	if in.Kind != domain.KindCutback {
		t.Fatalf("kind = %s, want cutback", in.Kind)
	}
	approx(t, "monthly_saving", in.MonthlySaving, 9)
	approx(t, "annual_saving", in.AnnualSaving, 108)
	approx(t, "projection_10y", in.Projection10y, FutureValue(9, 0.07, 10))
	meta := in.Meta.(domain.CutbackMeta)
	if meta.Recipe == nil || !strings.HasPrefix(meta.Recipe.Title, "DIY ") {
		t.Errorf("recipe = %#v, want fallback DIY card", meta.Recipe)
	}
	if !strings.Contains(in.Body, "DIY Latte from Cafe") {
		t.Errorf("body should include the fallback recipe, got %q", in.Body)
	}
}

func TestRun_SkipsGroupsWithoutEnrichment(t *testing.T) {
	rows := rowsOf([]domain.Transaction{spend(1, "Unknown", 100)}, func(int64) *domain.EnrichedTransaction { return nil })
	opts := DefaultOptions()
	opts.DetectDuplicates = true
	res, err := newTestSynthesizer(staticRepo(rows), &MockAdvisor{}, nil, opts).Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 0 {
		t.Errorf("created = %d, want 0", res.Created)
	}
}

func TestRun_DuplicateDetectionIsOptIn(t *testing.T) {
	rows := rowsOf([]domain.Transaction{spend(2, "Parking", 3), spend(1, "Parking", 3)}, func(id int64) *domain.EnrichedTransaction {
		return enriched(id, "", false, domain.SpendingNeed)
	})

	res, err := newTestSynthesizer(staticRepo(rows), &MockAdvisor{}, nil, DefaultOptions()).Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 0 {
		t.Fatalf("created = %d with detection off, want 0", res.Created)
	}

	opts := DefaultOptions()
	opts.DetectDuplicates = true
	res, err = newTestSynthesizer(staticRepo(rows), &MockAdvisor{}, nil, opts).Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 1 || res.Insights[0].Kind != domain.KindDuplicate {
		t.Fatalf("expected one duplicate insight, got %+v", res.Insights)
	}
	if res.Insights[0].MonthlySaving != nil {
		t.Error("duplicate insight should not carry savings")
	}
}

func TestRun_WindowStartsAtMidnight(t *testing.T) {
	var gotSince time.Time
	repo := &MockRepository{
		ListTransactionsSinceFunc: func(ctx context.Context, since time.Time) ([]domain.TransactionWithEnrichment, error) {
			gotSince = since
			return nil, nil
		},
	}
	if _, err := newTestSynthesizer(repo, &MockAdvisor{}, nil, DefaultOptions()).Run(context.Background(), 90); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if !gotSince.Equal(want) {
		t.Errorf("since = %v, want %v", gotSince, want)
	}
}

func TestRun_PublisherFailureDoesNotFailRun(t *testing.T) {
	rows := rowsOf([]domain.Transaction{spend(1, "SPOTIFY", 9.99)}, func(id int64) *domain.EnrichedTransaction {
		return enriched(id, "Spotify", true, domain.SpendingWant)
	})
	pub := &MockPublisher{Err: errors.New("bigquery unavailable")}
	res, err := newTestSynthesizer(staticRepo(rows), &MockAdvisor{}, nil, DefaultOptions(), pub).Run(context.Background(), 30)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 1 {
		t.Errorf("created = %d, want 1", res.Created)
	}
}

func TestRun_StorageErrorsPropagate(t *testing.T) {
	repo := &MockRepository{
		ListTransactionsSinceFunc: func(ctx context.Context, since time.Time) ([]domain.TransactionWithEnrichment, error) {
			return nil, errors.New("db down")
		},
	}
	if _, err := newTestSynthesizer(repo, &MockAdvisor{}, nil, DefaultOptions()).Run(context.Background(), 30); err == nil {
		t.Error("expected error when transactions cannot be listed")
	}
}
