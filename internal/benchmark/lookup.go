// Package benchmark finds cheaper provider plans and at-home cost estimates in
// static reference tables.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-advisor/internal/classify"
	"github.com/dvloznov/finance-advisor/internal/domain"
)

// Repository reads reference rows.
type Repository interface {
	ListBenchmarks(ctx context.Context, region string) ([]domain.ProviderBenchmark, error)
	FindHomebrewCost(ctx context.Context, item, region string) (*domain.HomebrewCost, error)
}

// brandPlans are used when no reference row matches the hint directly.
var brandPlans = map[string]domain.PricedPlan{
	"netflix":  {Provider: "Netflix", Plan: "Standard", Price: 12.99, Currency: domain.DefaultCurrency},
	"vodafone": {Provider: "Vodafone", Plan: "SIM-only", Price: 18.00, Currency: domain.DefaultCurrency},
}

// brandCategories pairs each brand plan with its benchmark category.
var brandCategories = map[string]string{
	"netflix":  "streaming",
	"vodafone": "telecom",
}

// BrandRules recognise common brands in merchant hints.
var BrandRules = []classify.Rule{
	{Label: "netflix", Patterns: []string{"netflix"}},
	{Label: "vodafone", Patterns: []string{"vodafone"}},
}

// FindAlternative guesses the current plan from hint and returns the cheapest
// cheaper plan from a different provider, or nil. When the current plan has a
// category, only rows of the same category (or with none) are candidates.
func FindAlternative(rows []domain.ProviderBenchmark, hint string) *domain.BenchmarkMatch {
	if len(rows) == 0 {
		return nil
	}
	h := strings.ToLower(hint)

	var current *domain.PricedPlan
	var category string
	for _, r := range rows {
		if r.Provider != "" && strings.Contains(h, strings.ToLower(r.Provider)) {
			current = &domain.PricedPlan{Provider: r.Provider, Plan: r.Plan, Price: r.MonthlyPrice, Currency: r.Currency}
			category = r.Category
			break
		}
	}
	if current == nil {
		brand, ok := classify.Classify(h, BrandRules)
		if !ok {
			return nil
		}
		plan := brandPlans[brand]
		current = &plan
		category = brandCategories[brand]
	}

	var cheaper *domain.PricedPlan
	for _, r := range rows {
		if r.Provider == current.Provider || r.MonthlyPrice >= current.Price {
			continue
		}
		if category != "" && r.Category != "" && !strings.EqualFold(r.Category, category) {
			continue
		}
		if cheaper == nil || r.MonthlyPrice < cheaper.Price {
			cheaper = &domain.PricedPlan{Provider: r.Provider, Plan: r.Plan, Price: r.MonthlyPrice, Currency: r.Currency}
		}
	}
	if cheaper == nil {
		return nil
	}

	return &domain.BenchmarkMatch{
		Current:       *current,
		Alternative:   *cheaper,
		MonthlySaving: current.Price - cheaper.Price,
	}
}

// Service answers lookups against a Repository for one region.
type Service struct {
	repo   Repository
	region string
}

// NewService creates a lookup service. An empty region means the default region.
func NewService(repo Repository, region string) *Service {
	if region == "" {
		region = domain.DefaultRegion
	}
	return &Service{repo: repo, region: region}
}

// CheaperAlternative loads the region's benchmarks and runs FindAlternative.
func (s *Service) CheaperAlternative(ctx context.Context, hint string) (*domain.BenchmarkMatch, error) {
	rows, err := s.repo.ListBenchmarks(ctx, s.region)
	if err != nil {
		return nil, fmt.Errorf("CheaperAlternative: list benchmarks: %w", err)
	}
	return FindAlternative(rows, hint), nil
}

// HomebrewUnitCost returns the seeded at-home cost of item, or nil when unknown.
func (s *Service) HomebrewUnitCost(ctx context.Context, item string) (*float64, error) {
	row, err := s.repo.FindHomebrewCost(ctx, strings.ToLower(item), s.region)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("HomebrewUnitCost: %w", err)
	}
	cost := row.EstimatedUnitCost
	return &cost, nil
}
