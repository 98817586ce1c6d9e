package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"gorm.io/gorm"
)

// DefaultListLimit is used when a listing is requested without a positive limit.
const DefaultListLimit = 100

const searchClause = `LOWER(transactions.description) LIKE @q
	OR LOWER(COALESCE(transactions.merchant_raw, '')) LIKE @q
	OR CAST(transactions.amount AS TEXT) LIKE @q
	OR LOWER(COALESCE(enriched_transactions.merchant, '')) LIKE @q
	OR LOWER(COALESCE(enriched_transactions.category, '')) LIKE @q
	OR LOWER(COALESCE(enriched_transactions.subcategory, '')) LIKE @q
	OR LOWER(COALESCE(enriched_transactions.notes, '')) LIKE @q
	OR LOWER(COALESCE(enriched_transactions.spending_class, '')) LIKE @q`

// CreateTransaction inserts tx and sets its ID. The date is stored as a UTC calendar day.
func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.AccountID == 0 {
		tx.AccountID = domain.DefaultAccountID
	}
	tx.Date = dateOnly(tx.Date)
	row := &TransactionRow{
		AccountID:   tx.AccountID,
		Date:        tx.Date,
		Description: tx.Description,
		Amount:      tx.Amount.Round(2),
		MerchantRaw: tx.MerchantRaw,
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("CreateTransaction: %w", err)
	}
	tx.ID = row.ID
	tx.Amount = row.Amount
	return nil
}

// GetTransaction returns one transaction or domain.ErrNotFound.
func (s *Store) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	var row TransactionRow
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("GetTransaction: id %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: %w", err)
	}
	tx := toDomainTransaction(&row)
	return &tx, nil
}

// ListTransactions returns up to limit transactions, newest id first. A non-empty
// q keeps rows where q appears, case-insensitively, in the description, raw
// merchant, amount or any enrichment label.
func (s *Store) ListTransactions(ctx context.Context, limit int, q string) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := s.db.WithContext(ctx).
		Model(&TransactionRow{}).
		Select("transactions.*").
		Order("transactions.id DESC").
		Limit(limit)

	if q = strings.TrimSpace(q); q != "" {
		query = query.
			Joins("LEFT JOIN enriched_transactions ON enriched_transactions.transaction_id = transactions.id").
			Where(searchClause, sql.Named("q", "%"+strings.ToLower(q)+"%"))
	}

	var rows []TransactionRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	out := make([]domain.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainTransaction(&rows[i]))
	}
	return out, nil
}

// ListTransactionsSince returns transactions dated on or after since, newest
// first, each with its enrichment when present.
func (s *Store) ListTransactionsSince(ctx context.Context, since time.Time) ([]domain.TransactionWithEnrichment, error) {
	var rows []TransactionRow
	err := s.db.WithContext(ctx).
		Preload("Enrichment").
		Where("date >= ?", dateOnly(since)).
		Order("date DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListTransactionsSince: %w", err)
	}

	out := make([]domain.TransactionWithEnrichment, 0, len(rows))
	for i := range rows {
		out = append(out, domain.TransactionWithEnrichment{
			Transaction: toDomainTransaction(&rows[i]),
			Enrichment:  toDomainEnrichment(rows[i].Enrichment),
		})
	}
	return out, nil
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
