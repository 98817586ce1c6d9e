// Package advice groups recent transactions by merchant and turns recurring
// spend into persisted advice insights.
package advice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-advisor/internal/classify"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// noAlternativeMarker is the phrase the advisor uses when nothing cheaper exists.
const noAlternativeMarker = "no known cheaper alternatives"

// Options tunes the decision tree. DefaultOptions holds the production values.
type Options struct {
	// SubscriptionSavingRate is the assumed saving when the advisor's text
	// suggests an alternative without a parseable price.
	SubscriptionSavingRate float64
	CutbackFraction        float64
	WantMinTransactions    int
	WantMinMonthly         float64
	AnnualReturn           float64
	ProjectionYears        int
	SubscriptionTxLimit    int
	CutbackTxLimit         int
	DetectDuplicates       bool
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		SubscriptionSavingRate: 0.2,
		CutbackFraction:        0.3,
		WantMinTransactions:    3,
		WantMinMonthly:         5.0,
		AnnualReturn:           0.07,
		ProjectionYears:        10,
		SubscriptionTxLimit:    5,
		CutbackTxLimit:         10,
	}
}

const (
	confidenceSwitch    = 0.75
	confidenceMonitor   = 0.5
	confidenceCutback   = 0.6
	confidenceDuplicate = 0.4
)

// RunResult summarizes one batch run.
type RunResult struct {
	RunID        string                 `json:"run_id"`
	Created      int                    `json:"created"`
	Skipped      int                    `json:"skipped"`
	AnalyzedDays int                    `json:"analyzed_days"`
	Insights     []domain.AdviceInsight `json:"-"`
}

// Synthesizer evaluates the advice decision tree over grouped transactions.
type Synthesizer struct {
	repo       Repository
	advisor    Advisor
	lookup     Lookup
	publishers []Publisher
	opts       Options
	log        zerolog.Logger
	now        func() time.Time
}

// NewSynthesizer wires a synthesizer. lookup may be nil to disable benchmark matching.
func NewSynthesizer(repo Repository, advisor Advisor, lookup Lookup, opts Options, log zerolog.Logger, publishers ...Publisher) *Synthesizer {
	return &Synthesizer{
		repo:       repo,
		advisor:    advisor,
		lookup:     lookup,
		publishers: publishers,
		opts:       opts,
		log:        log,
		now:        time.Now,
	}
}

// Run analyzes the trailing window of days and persists the resulting insights.
// A group whose external calls fail is skipped; the run carries on.
func (s *Synthesizer) Run(ctx context.Context, days int) (*RunResult, error) {
	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -days)

	rows, err := s.repo.ListTransactionsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("Run: list transactions: %w", err)
	}

	result := &RunResult{
		RunID:        uuid.NewString(),
		AnalyzedDays: days,
	}
	log := s.log.With().Str("run_id", result.RunID).Int("days", days).Logger()

	groups := GroupTransactions(rows, days)
	log.Info().Int("transactions", len(rows)).Int("groups", len(groups)).Msg("Starting advice run")

	var insights []*domain.AdviceInsight
	for _, g := range groups {
		insight, err := s.evaluate(ctx, g)
		if err != nil {
			log.Warn().Err(err).Str("merchant_key", g.Key).Msg("Skipping group after external failure")
			result.Skipped++
			continue
		}
		if insight == nil {
			continue
		}
		insight.RunID = result.RunID
		insights = append(insights, insight)
	}

	if len(insights) > 0 {
		if err := s.repo.InsertInsights(ctx, insights); err != nil {
			return nil, fmt.Errorf("Run: insert insights: %w", err)
		}
	}

	result.Created = len(insights)
	result.Insights = make([]domain.AdviceInsight, 0, len(insights))
	for _, in := range insights {
		result.Insights = append(result.Insights, *in)
	}

	s.publish(ctx, log, result)

	log.Info().Int("created", result.Created).Int("skipped", result.Skipped).Msg("Advice run completed")
	return result, nil
}

func (s *Synthesizer) publish(ctx context.Context, log zerolog.Logger, result *RunResult) {
	if len(result.Insights) == 0 {
		return
	}
	for _, p := range s.publishers {
		if err := p.PublishInsights(ctx, result.RunID, result.Insights); err != nil {
			log.Warn().Err(err).Str("publisher", fmt.Sprintf("%T", p)).Msg("Failed to publish insights")
		}
	}
}

// evaluate returns the insight for one group, nil when the group yields none,
// or an error when an external call failed.
func (s *Synthesizer) evaluate(ctx context.Context, g *Group) (*domain.AdviceInsight, error) {
	e := g.SampleEnrichment
	if e == nil {
		return nil, nil
	}

	switch {
	case e.IsSubscription:
		return s.evaluateSubscription(ctx, g)
	case e.SpendingClass != nil && *e.SpendingClass == domain.SpendingWant &&
		len(g.Transactions) >= s.opts.WantMinTransactions:
		if g.MonthlyEstimate < s.opts.WantMinMonthly {
			return nil, nil
		}
		return s.evaluateCutback(ctx, g)
	}

	if s.opts.DetectDuplicates {
		return s.evaluateDuplicates(g), nil
	}
	return nil, nil
}

func (s *Synthesizer) evaluateSubscription(ctx context.Context, g *Group) (*domain.AdviceInsight, error) {
	e := g.SampleEnrichment
	monthlyCost := g.MonthlyEstimate
	if len(g.Transactions) <= 1 {
		monthlyCost = g.Sample.Amount.Abs().InexactFloat64()
	}
	name := displayName(e, g.Key)
	serviceType := "subscription"
	if e.Category != nil && *e.Category != "" {
		serviceType = *e.Category
	}
	txIDs := g.TxIDs(s.opts.SubscriptionTxLimit)

	if match := s.benchmarkMatch(ctx, g); match != nil {
		saving := match.MonthlySaving
		body := fmt.Sprintf("Current service: %s at €%.2f/month.\n\n%s %s costs €%.2f/month, saving €%.2f/month.",
			name, monthlyCost, match.Alternative.Provider, match.Alternative.Plan, match.Alternative.Price, saving)
		return s.savingInsight(domain.KindSwitch, fmt.Sprintf("Switch from %s to save money", name), body,
			saving, confidenceSwitch, txIDs, domain.SwitchMeta{
				MerchantKey: g.Key,
				CurrentCost: monthlyCost,
				ServiceType: serviceType,
				Source:      domain.SourceBenchmark,
				Benchmark:   match,
			}), nil
	}

	alternative, err := s.advisor.FindCheaperAlternative(ctx, g.Key, monthlyCost)
	if err != nil {
		return nil, fmt.Errorf("find cheaper alternative: %w", err)
	}

	if !hasAlternative(alternative) {
		return &domain.AdviceInsight{
			Kind:  domain.KindMonitor,
			Title: fmt.Sprintf("Monitor %s subscription costs", name),
			Body: fmt.Sprintf("You pay €%.2f/month for %s. While no cheaper alternatives were found, "+
				"consider reviewing this subscription periodically for better deals.", monthlyCost, name),
			Confidence: confidenceMonitor,
			TxIDs:      txIDs,
			Meta: domain.MonitorMeta{
				MerchantKey: g.Key,
				CurrentCost: monthlyCost,
				ServiceType: serviceType,
			},
		}, nil
	}

	saving := monthlyCost * s.opts.SubscriptionSavingRate
	body := fmt.Sprintf("Current service: %s at €%.2f/month.\n\n%s", name, monthlyCost, strings.TrimSpace(alternative))
	return s.savingInsight(domain.KindSwitch, fmt.Sprintf("Switch from %s to save money", name), body,
		saving, confidenceSwitch, txIDs, domain.SwitchMeta{
			MerchantKey: g.Key,
			CurrentCost: monthlyCost,
			ServiceType: serviceType,
			Source:      domain.SourceAI,
			Suggestion:  strings.TrimSpace(alternative),
		}), nil
}

func (s *Synthesizer) evaluateCutback(ctx context.Context, g *Group) (*domain.AdviceInsight, error) {
	e := g.SampleEnrichment
	cut := g.MonthlyEstimate * s.opts.CutbackFraction
	projection := FutureValue(cut, s.opts.AnnualReturn, s.opts.ProjectionYears)

	merchant := g.Key
	if e.Merchant != nil && *e.Merchant != "" {
		merchant = *e.Merchant
	} else if g.Sample.MerchantRaw != nil && *g.Sample.MerchantRaw != "" {
		merchant = *g.Sample.MerchantRaw
	}
	itemContext := fmt.Sprintf("%s from %s", g.Sample.Description, merchant)

	recipe, err := s.advisor.SuggestRecipe(ctx, itemContext, merchant)
	if err != nil {
		s.log.Warn().Err(err).Str("merchant_key", g.Key).Msg("Recipe suggestion failed, using fallback card")
		recipe = fallbackRecipe(itemContext)
	}

	meta := domain.CutbackMeta{
		MerchantKey:     g.Key,
		MonthlyEstimate: g.MonthlyEstimate,
		CutFraction:     s.opts.CutbackFraction,
		Recipe:          &recipe,
	}
	if item, ok := classify.Classify(g.Sample.Description+" "+merchant, classify.HomebrewItemRules); ok {
		meta.Item = item
		meta.HomebrewUnitCost = s.homebrewCost(ctx, g.Key, item)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You spend €%.2f/month on %s. Cutting %.0f%% (€%.2f/month) and investing at %.0f%% could grow to €%.2f in %d years.",
		g.MonthlyEstimate, g.Key, s.opts.CutbackFraction*100, cut, s.opts.AnnualReturn*100, projection, s.opts.ProjectionYears)
	if recipe.IsViable {
		b.WriteString(recipeText(recipe, meta))
	}

	return s.savingInsight(domain.KindCutback, fmt.Sprintf("Reduce spending on %s", g.Key), b.String(),
		cut, confidenceCutback, g.TxIDs(s.opts.CutbackTxLimit), meta), nil
}

func (s *Synthesizer) evaluateDuplicates(g *Group) *domain.AdviceInsight {
	amounts := g.Amounts()
	duplicate, anomaly := DetectDuplicatesAndAnomalies(amounts)
	if !duplicate && !anomaly {
		return nil
	}

	avg := mean(amounts)
	var reasons []string
	if duplicate {
		reasons = append(reasons, "repeated charges of the same amount")
	}
	if anomaly {
		reasons = append(reasons, fmt.Sprintf("amounts more than %.0f%% away from the average of €%.2f", AnomalyDeviation*100, avg))
	}

	return &domain.AdviceInsight{
		Kind:       domain.KindDuplicate,
		Title:      fmt.Sprintf("Check charges from %s", g.Key),
		Body:       fmt.Sprintf("We noticed %s at %s. Make sure each charge is expected.", strings.Join(reasons, " and "), g.Key),
		Confidence: confidenceDuplicate,
		TxIDs:      g.TxIDs(s.opts.CutbackTxLimit),
		Meta: domain.DuplicateMeta{
			MerchantKey: g.Key,
			Amounts:     amounts,
			Mean:        avg,
			Duplicate:   duplicate,
			Anomaly:     anomaly,
		},
	}
}

func (s *Synthesizer) savingInsight(kind domain.InsightKind, title, body string, monthly, confidence float64, txIDs []int64, meta domain.InsightMeta) *domain.AdviceInsight {
	annual := AnnualSaving(monthly)
	projection := FutureValue(monthly, s.opts.AnnualReturn, s.opts.ProjectionYears)
	return &domain.AdviceInsight{
		Kind:          kind,
		Title:         title,
		Body:          body,
		MonthlySaving: &monthly,
		AnnualSaving:  &annual,
		Projection10y: &projection,
		Confidence:    confidence,
		TxIDs:         txIDs,
		Meta:          meta,
	}
}

// benchmarkMatch consults the reference table. Lookup failures fall through to the advisor.
func (s *Synthesizer) benchmarkMatch(ctx context.Context, g *Group) *domain.BenchmarkMatch {
	if s.lookup == nil {
		return nil
	}
	hint := g.Key
	if name := displayName(g.SampleEnrichment, ""); name != "" {
		hint = name + " " + g.Key
	}
	match, err := s.lookup.CheaperAlternative(ctx, hint)
	if err != nil {
		s.log.Warn().Err(err).Str("merchant_key", g.Key).Msg("Benchmark lookup failed")
		return nil
	}
	return match
}

func (s *Synthesizer) homebrewCost(ctx context.Context, key, item string) *float64 {
	if s.lookup == nil {
		return nil
	}
	cost, err := s.lookup.HomebrewUnitCost(ctx, item)
	if err != nil {
		s.log.Warn().Err(err).Str("merchant_key", key).Str("item", item).Msg("Homebrew cost lookup failed")
		return nil
	}
	return cost
}

func hasAlternative(text string) bool {
	t := strings.TrimSpace(text)
	return t != "" && !strings.Contains(strings.ToLower(t), noAlternativeMarker)
}

func displayName(e *domain.EnrichedTransaction, fallback string) string {
	if e != nil && e.Merchant != nil && *e.Merchant != "" {
		return *e.Merchant
	}
	return fallback
}

// fallbackRecipe is the card used when the AI cannot suggest one.
func fallbackRecipe(item string) domain.RecipeCard {
	return domain.RecipeCard{
		Title:             "DIY " + item,
		Ingredients:       []string{"Ground coffee", "Hot water", "Milk (optional)"},
		Method:            []string{"Brew coffee", "Add milk to taste", "Serve immediately"},
		EstCostPerServing: 0.7,
		TimeMinutes:       5,
		IsViable:          true,
	}
}

func recipeText(r domain.RecipeCard, meta domain.CutbackMeta) string {
	var b strings.Builder
	b.WriteString("\n\nTry making it at home:\n")
	fmt.Fprintf(&b, "Recipe: %s\n", r.Title)
	fmt.Fprintf(&b, "Time: %.0f minutes\n", r.TimeMinutes)
	fmt.Fprintf(&b, "Cost per serving: €%.2f\n", r.EstCostPerServing)
	if meta.HomebrewUnitCost != nil {
		fmt.Fprintf(&b, "Typical at-home cost for %s: €%.2f\n", meta.Item, *meta.HomebrewUnitCost)
	}
	steps := r.Method
	if len(steps) > 2 {
		steps = steps[:2]
	}
	fmt.Fprintf(&b, "Method: %s...", strings.Join(steps, ", "))
	return b.String()
}
