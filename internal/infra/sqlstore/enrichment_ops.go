package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertEnrichment creates or replaces the enrichment for a transaction.
// It returns domain.ErrNotFound when the transaction does not exist.
func (s *Store) UpsertEnrichment(ctx context.Context, transactionID int64, labels domain.Labels) (*domain.EnrichedTransaction, error) {
	row := fromDomainEnrichment(transactionID, labels)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&TransactionRow{}).Where("id = ?", transactionID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "transaction_id"}},
			UpdateAll: true,
		}).Create(row).Error
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("UpsertEnrichment: transaction %d: %w", transactionID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("UpsertEnrichment: %w", err)
	}
	return toDomainEnrichment(row), nil
}

// GetEnrichment returns the enrichment for a transaction, or nil when there is none.
func (s *Store) GetEnrichment(ctx context.Context, transactionID int64) (*domain.EnrichedTransaction, error) {
	var row EnrichedTransactionRow
	err := s.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetEnrichment: %w", err)
	}
	return toDomainEnrichment(&row), nil
}
