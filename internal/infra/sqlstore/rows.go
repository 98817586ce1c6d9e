package sqlstore

import (
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionRow is a row in transactions.
type TransactionRow struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	AccountID   int64           `gorm:"not null;index"`
	Date        time.Time       `gorm:"type:date;not null;index"`
	Description string          `gorm:"size:255;not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	MerchantRaw *string         `gorm:"size:255"`

	Enrichment *EnrichedTransactionRow `gorm:"foreignKey:TransactionID;references:ID;constraint:OnDelete:CASCADE"`
}

func (TransactionRow) TableName() string { return "transactions" }

// EnrichedTransactionRow is a row in enriched_transactions, keyed by transaction id.
type EnrichedTransactionRow struct {
	TransactionID  int64   `gorm:"primaryKey;autoIncrement:false"`
	Merchant       *string `gorm:"size:255"`
	Category       *string `gorm:"size:64"`
	Subcategory    *string `gorm:"size:64"`
	IsSubscription bool    `gorm:"not null"`
	Confidence     float64 `gorm:"not null"`
	Notes          *string `gorm:"type:text"`
	SpendingClass  *string `gorm:"size:16"`
}

func (EnrichedTransactionRow) TableName() string { return "enriched_transactions" }

// AdviceInsightRow is a row in advice_insights. Meta holds the kind-specific JSON payload.
type AdviceInsightRow struct {
	ID            int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt     time.Time `gorm:"not null;index"`
	RunID         string    `gorm:"size:36;index"`
	Kind          string    `gorm:"size:16;not null"`
	Title         string    `gorm:"size:255;not null"`
	Body          string    `gorm:"type:text;not null"`
	MonthlySaving *float64
	AnnualSaving  *float64
	Projection10y *float64 `gorm:"column:projection_10y"`
	Confidence    float64  `gorm:"not null"`
	TxIDs         []int64  `gorm:"column:tx_ids;type:text;serializer:json"`
	Meta          string   `gorm:"type:text"`
}

func (AdviceInsightRow) TableName() string { return "advice_insights" }

// ProviderBenchmarkRow is a row in provider_benchmarks.
type ProviderBenchmarkRow struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	Provider     string  `gorm:"size:64;not null"`
	Plan         string  `gorm:"size:64"`
	MonthlyPrice float64 `gorm:"not null"`
	Currency     string  `gorm:"size:3;not null"`
	Region       string  `gorm:"size:8;not null;index"`
	Category     string  `gorm:"size:50"`
}

func (ProviderBenchmarkRow) TableName() string { return "provider_benchmarks" }

// HomebrewCostRow is a row in homebrew_costs.
type HomebrewCostRow struct {
	ID                int64   `gorm:"primaryKey;autoIncrement"`
	Item              string  `gorm:"size:64;not null;uniqueIndex:idx_homebrew_item_region"`
	EstimatedUnitCost float64 `gorm:"not null"`
	Region            string  `gorm:"size:8;not null;uniqueIndex:idx_homebrew_item_region"`
	Currency          string  `gorm:"size:3;not null"`
}

func (HomebrewCostRow) TableName() string { return "homebrew_costs" }

// Models lists every table managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&TransactionRow{},
		&EnrichedTransactionRow{},
		&AdviceInsightRow{},
		&ProviderBenchmarkRow{},
		&HomebrewCostRow{},
	}
}

func toDomainTransaction(r *TransactionRow) domain.Transaction {
	return domain.Transaction{
		ID:          r.ID,
		AccountID:   r.AccountID,
		Date:        r.Date.UTC(),
		Description: r.Description,
		Amount:      r.Amount,
		MerchantRaw: r.MerchantRaw,
	}
}

func toDomainEnrichment(r *EnrichedTransactionRow) *domain.EnrichedTransaction {
	if r == nil {
		return nil
	}
	e := &domain.EnrichedTransaction{
		TransactionID: r.TransactionID,
		Labels: domain.Labels{
			Merchant:       r.Merchant,
			Category:       r.Category,
			Subcategory:    r.Subcategory,
			IsSubscription: r.IsSubscription,
			Confidence:     r.Confidence,
			Notes:          r.Notes,
		},
	}
	if r.SpendingClass != nil {
		e.SpendingClass = domain.ParseSpendingClass(*r.SpendingClass)
	}
	return e
}

func fromDomainEnrichment(transactionID int64, l domain.Labels) *EnrichedTransactionRow {
	row := &EnrichedTransactionRow{
		TransactionID:  transactionID,
		Merchant:       l.Merchant,
		Category:       l.Category,
		Subcategory:    l.Subcategory,
		IsSubscription: l.IsSubscription,
		Confidence:     l.Confidence,
		Notes:          l.Notes,
	}
	if l.SpendingClass != nil {
		s := string(*l.SpendingClass)
		row.SpendingClass = &s
	}
	return row
}

func toDomainInsight(r *AdviceInsightRow) (domain.AdviceInsight, error) {
	kind := domain.InsightKind(r.Kind)
	meta, err := domain.DecodeMeta(kind, []byte(r.Meta))
	if err != nil {
		return domain.AdviceInsight{}, err
	}
	txIDs := r.TxIDs
	if txIDs == nil {
		txIDs = []int64{}
	}
	return domain.AdviceInsight{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt.UTC(),
		RunID:         r.RunID,
		Kind:          kind,
		Title:         r.Title,
		Body:          r.Body,
		MonthlySaving: r.MonthlySaving,
		AnnualSaving:  r.AnnualSaving,
		Projection10y: r.Projection10y,
		Confidence:    r.Confidence,
		TxIDs:         txIDs,
		Meta:          meta,
	}, nil
}

func fromDomainInsight(in *domain.AdviceInsight) (*AdviceInsightRow, error) {
	meta, err := domain.EncodeMeta(in.Meta)
	if err != nil {
		return nil, err
	}
	return &AdviceInsightRow{
		CreatedAt:     in.CreatedAt,
		RunID:         in.RunID,
		Kind:          string(in.Kind),
		Title:         in.Title,
		Body:          in.Body,
		MonthlySaving: in.MonthlySaving,
		AnnualSaving:  in.AnnualSaving,
		Projection10y: in.Projection10y,
		Confidence:    in.Confidence,
		TxIDs:         in.TxIDs,
		Meta:          string(meta),
	}, nil
}
