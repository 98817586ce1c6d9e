package bigquery

import (
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/finance-advisor/internal/domain"
)

// InsightRow is one advice insight in the analytics table.
type InsightRow struct {
	InsightID int64      `bigquery:"insight_id"` // REQUIRED
	RunID     string     `bigquery:"run_id"`     // REQUIRED
	RunDate   civil.Date `bigquery:"run_date"`   // REQUIRED, partition column
	CreatedTS time.Time  `bigquery:"created_ts"` // REQUIRED

	Kind  string `bigquery:"kind"`  // REQUIRED
	Title string `bigquery:"title"` // REQUIRED
	Body  string `bigquery:"body"`  // REQUIRED

	MerchantKey bigquery.NullString `bigquery:"merchant_key"` // NULLABLE

	MonthlySaving bigquery.NullFloat64 `bigquery:"monthly_saving"` // NULLABLE
	AnnualSaving  bigquery.NullFloat64 `bigquery:"annual_saving"`  // NULLABLE
	Projection10y bigquery.NullFloat64 `bigquery:"projection_10y"` // NULLABLE
	Confidence    float64              `bigquery:"confidence"`     // REQUIRED

	TxIDs []int64 `bigquery:"tx_ids"` // REPEATED INT64

	Meta bigquery.NullJSON `bigquery:"meta"` // NULLABLE JSON
}

// NewInsightRow maps a persisted insight to its analytics row.
func NewInsightRow(in domain.AdviceInsight) (*InsightRow, error) {
	created := in.CreatedAt.UTC()
	row := &InsightRow{
		InsightID:     in.ID,
		RunID:         in.RunID,
		RunDate:       civil.DateOf(created),
		CreatedTS:     created,
		Kind:          string(in.Kind),
		Title:         in.Title,
		Body:          in.Body,
		MerchantKey:   nullString(domain.MetaMerchantKey(in.Meta)),
		MonthlySaving: nullFloat(in.MonthlySaving),
		AnnualSaving:  nullFloat(in.AnnualSaving),
		Projection10y: nullFloat(in.Projection10y),
		Confidence:    in.Confidence,
		TxIDs:         in.TxIDs,
	}
	if row.TxIDs == nil {
		row.TxIDs = []int64{}
	}

	raw, err := domain.EncodeMeta(in.Meta)
	if err != nil {
		return nil, fmt.Errorf("NewInsightRow: insight %d: %w", in.ID, err)
	}
	if raw != nil {
		row.Meta = bigquery.NullJSON{JSONVal: string(raw), Valid: true}
	}
	return row, nil
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func nullFloat(f *float64) bigquery.NullFloat64 {
	if f == nil {
		return bigquery.NullFloat64{}
	}
	return bigquery.NullFloat64{Float64: *f, Valid: true}
}
