package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/finance-advisor/internal/domain"
)

// DefaultInsightLimit is used when latest insights are requested without a positive limit.
const DefaultInsightLimit = 20

// InsertInsights persists a batch of insights in one statement and fills in
// their ID and CreatedAt.
func (s *Store) InsertInsights(ctx context.Context, insights []*domain.AdviceInsight) error {
	if len(insights) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]*AdviceInsightRow, 0, len(insights))
	for _, in := range insights {
		if in.CreatedAt.IsZero() {
			in.CreatedAt = now
		}
		row, err := fromDomainInsight(in)
		if err != nil {
			return fmt.Errorf("InsertInsights: encode meta: %w", err)
		}
		rows = append(rows, row)
	}

	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("InsertInsights: %w", err)
	}
	for i, row := range rows {
		insights[i].ID = row.ID
	}
	return nil
}

// ListLatestInsights returns up to limit insights, newest first.
func (s *Store) ListLatestInsights(ctx context.Context, limit int) ([]domain.AdviceInsight, error) {
	if limit <= 0 {
		limit = DefaultInsightLimit
	}
	var rows []AdviceInsightRow
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListLatestInsights: %w", err)
	}
	return toDomainInsights(rows)
}

// ListAllInsights returns every insight in id order.
func (s *Store) ListAllInsights(ctx context.Context) ([]domain.AdviceInsight, error) {
	var rows []AdviceInsightRow
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListAllInsights: %w", err)
	}
	return toDomainInsights(rows)
}

// DeleteInsight removes one insight or returns domain.ErrNotFound.
func (s *Store) DeleteInsight(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&AdviceInsightRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("DeleteInsight: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteInsight: id %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func toDomainInsights(rows []AdviceInsightRow) ([]domain.AdviceInsight, error) {
	out := make([]domain.AdviceInsight, 0, len(rows))
	for i := range rows {
		in, err := toDomainInsight(&rows[i])
		if err != nil {
			return nil, fmt.Errorf("insight %d: %w", rows[i].ID, err)
		}
		out = append(out, in)
	}
	return out, nil
}
