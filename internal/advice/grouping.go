package advice

import (
	"strings"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/shopspring/decimal"
)

// NormalizeKey builds the grouping key from the enriched merchant, else the raw
// merchant, else the description. The key is lowercased and whitespace-collapsed.
func NormalizeKey(description string, merchantRaw, merchantEnriched *string) string {
	base := description
	switch {
	case merchantEnriched != nil && *merchantEnriched != "":
		base = *merchantEnriched
	case merchantRaw != nil && *merchantRaw != "":
		base = *merchantRaw
	}
	return strings.Join(strings.Fields(strings.ToLower(base)), " ")
}

// Group is a set of transactions sharing a normalized key.
type Group struct {
	Key              string
	Sample           domain.Transaction
	SampleEnrichment *domain.EnrichedTransaction
	Transactions     []domain.Transaction
	Total            decimal.Decimal
	MonthlyEstimate  float64
}

// TxIDs returns up to limit transaction ids in group order. limit <= 0 means all.
func (g *Group) TxIDs(limit int) []int64 {
	n := len(g.Transactions)
	if limit > 0 && limit < n {
		n = limit
	}
	ids := make([]int64, 0, n)
	for _, tx := range g.Transactions[:n] {
		ids = append(ids, tx.ID)
	}
	return ids
}

// Amounts returns the absolute amounts of the group's transactions.
func (g *Group) Amounts() []float64 {
	out := make([]float64, 0, len(g.Transactions))
	for _, tx := range g.Transactions {
		out = append(out, tx.Amount.Abs().InexactFloat64())
	}
	return out
}

// GroupTransactions partitions rows by NormalizeKey. Groups are returned in
// first-seen order and the first row of each group is its sample.
func GroupTransactions(rows []domain.TransactionWithEnrichment, days int) []*Group {
	index := make(map[string]*Group)
	var groups []*Group

	for _, row := range rows {
		var enrichedMerchant *string
		if row.Enrichment != nil {
			enrichedMerchant = row.Enrichment.Merchant
		}
		key := NormalizeKey(row.Transaction.Description, row.Transaction.MerchantRaw, enrichedMerchant)

		g, ok := index[key]
		if !ok {
			g = &Group{
				Key:              key,
				Sample:           row.Transaction,
				SampleEnrichment: row.Enrichment,
			}
			index[key] = g
			groups = append(groups, g)
		}
		g.Transactions = append(g.Transactions, row.Transaction)
		g.Total = g.Total.Add(row.Transaction.Amount.Abs())
	}

	for _, g := range groups {
		g.MonthlyEstimate = EstimateMonthly(g.Total.InexactFloat64(), days)
	}
	return groups
}
