package benchmark

import "github.com/dvloznov/finance-advisor/internal/domain"

// SeedBenchmarks is the demo benchmark set loaded by POST /seed/benchmarks.
func SeedBenchmarks() []domain.ProviderBenchmark {
	rows := []domain.ProviderBenchmark{
		{Provider: "Vodafone", Plan: "SIM-only 20GB", MonthlyPrice: 20.0, Category: "telecom"},
		{Provider: "Three IE", Plan: "SIM-only 20GB", MonthlyPrice: 15.0, Category: "telecom"},
		{Provider: "Eir", Plan: "SIM-only 20GB", MonthlyPrice: 18.0, Category: "telecom"},
		{Provider: "Netflix", Plan: "Standard", MonthlyPrice: 12.99, Category: "streaming"},
		{Provider: "Amazon Prime", Plan: "Monthly", MonthlyPrice: 8.99, Category: "streaming"},
		{Provider: "Disney+", Plan: "Monthly", MonthlyPrice: 8.99, Category: "streaming"},
		{Provider: "Spotify", Plan: "Premium", MonthlyPrice: 9.99, Category: "streaming"},
		{Provider: "Apple Music", Plan: "Individual", MonthlyPrice: 9.99, Category: "streaming"},
	}
	for i := range rows {
		rows[i].Currency = domain.DefaultCurrency
		rows[i].Region = domain.DefaultRegion
	}
	return rows
}

// SeedHomebrew is the demo at-home cost set loaded by POST /seed/homebrew.
func SeedHomebrew() []domain.HomebrewCost {
	rows := []domain.HomebrewCost{
		{Item: "coffee", EstimatedUnitCost: 0.50},
		{Item: "burger", EstimatedUnitCost: 2.00},
		{Item: "sandwich", EstimatedUnitCost: 1.50},
		{Item: "pizza", EstimatedUnitCost: 3.00},
		{Item: "smoothie", EstimatedUnitCost: 1.00},
	}
	for i := range rows {
		rows[i].Currency = domain.DefaultCurrency
		rows[i].Region = domain.DefaultRegion
	}
	return rows
}
