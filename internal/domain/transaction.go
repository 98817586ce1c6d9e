package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by repositories when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// DefaultAccountID is used when a transaction is created without an account.
const DefaultAccountID = 1

// Transaction is a single user-entered financial transaction.
// Amount is signed: positive for income, negative for spend.
type Transaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account_id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	MerchantRaw *string         `json:"merchant_raw,omitempty"`
}

// SpendingClass is a coarse budgeting classification.
type SpendingClass string

const (
	SpendingNeed    SpendingClass = "need"
	SpendingWant    SpendingClass = "want"
	SpendingSavings SpendingClass = "savings"
)

// ParseSpendingClass returns nil for anything outside need/want/savings.
func ParseSpendingClass(s string) *SpendingClass {
	switch c := SpendingClass(s); c {
	case SpendingNeed, SpendingWant, SpendingSavings:
		return &c
	default:
		return nil
	}
}

// Labels is the categorization result produced for a (description, amount) pair.
type Labels struct {
	Merchant       *string        `json:"merchant"`
	Category       *string        `json:"category"`
	Subcategory    *string        `json:"subcategory"`
	IsSubscription bool           `json:"is_subscription"`
	Confidence     float64        `json:"confidence"`
	Notes          *string        `json:"notes"`
	SpendingClass  *SpendingClass `json:"spending_class"`
}

// EnrichedTransaction holds the AI-derived labels for one transaction.
// There is at most one per transaction.
type EnrichedTransaction struct {
	TransactionID int64 `json:"transaction_id"`
	Labels
}

// TransactionWithEnrichment pairs a transaction with its optional enrichment.
type TransactionWithEnrichment struct {
	Transaction Transaction
	Enrichment  *EnrichedTransaction
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
