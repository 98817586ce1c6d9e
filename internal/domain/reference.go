package domain

// DefaultRegion and DefaultCurrency apply to reference rows seeded without them.
const (
	DefaultRegion   = "IE"
	DefaultCurrency = "EUR"
)

// ProviderBenchmark is a reference price for a provider plan.
type ProviderBenchmark struct {
	ID           int64   `json:"id"`
	Provider     string  `json:"provider"`
	Plan         string  `json:"plan"`
	MonthlyPrice float64 `json:"monthly_price"`
	Currency     string  `json:"currency"`
	Region       string  `json:"region"`
	Category     string  `json:"category"`
}

// HomebrewCost is the estimated cost of making an item at home.
type HomebrewCost struct {
	ID                int64   `json:"id"`
	Item              string  `json:"item"`
	EstimatedUnitCost float64 `json:"estimated_unit_cost"`
	Region            string  `json:"region"`
	Currency          string  `json:"currency"`
}

// PricedPlan is a provider plan at a monthly price.
type PricedPlan struct {
	Provider string  `json:"provider"`
	Plan     string  `json:"plan"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// BenchmarkMatch is the current plan guessed from a hint and its cheapest alternative.
type BenchmarkMatch struct {
	Current       PricedPlan `json:"current"`
	Alternative   PricedPlan `json:"alternative"`
	MonthlySaving float64    `json:"monthly_saving"`
}
