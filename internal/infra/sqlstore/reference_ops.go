package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-advisor/internal/domain"
	"gorm.io/gorm"
)

// ReplaceBenchmarks deletes every benchmark row and inserts rows. It returns
// the number of rows inserted.
func (s *Store) ReplaceBenchmarks(ctx context.Context, rows []domain.ProviderBenchmark) (int, error) {
	records := make([]ProviderBenchmarkRow, 0, len(rows))
	for _, r := range rows {
		records = append(records, ProviderBenchmarkRow{
			Provider:     r.Provider,
			Plan:         r.Plan,
			MonthlyPrice: r.MonthlyPrice,
			Currency:     orDefault(r.Currency, domain.DefaultCurrency),
			Region:       orDefault(r.Region, domain.DefaultRegion),
			Category:     r.Category,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&ProviderBenchmarkRow{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return 0, fmt.Errorf("ReplaceBenchmarks: %w", err)
	}
	return len(records), nil
}

// ReplaceHomebrew deletes every homebrew cost row and inserts rows. Items are
// stored lowercased. It returns the number of rows inserted.
func (s *Store) ReplaceHomebrew(ctx context.Context, rows []domain.HomebrewCost) (int, error) {
	records := make([]HomebrewCostRow, 0, len(rows))
	for _, r := range rows {
		records = append(records, HomebrewCostRow{
			Item:              strings.ToLower(strings.TrimSpace(r.Item)),
			EstimatedUnitCost: r.EstimatedUnitCost,
			Region:            orDefault(r.Region, domain.DefaultRegion),
			Currency:          orDefault(r.Currency, domain.DefaultCurrency),
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&HomebrewCostRow{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return 0, fmt.Errorf("ReplaceHomebrew: %w", err)
	}
	return len(records), nil
}

// ListBenchmarks returns the benchmark rows for region in id order.
func (s *Store) ListBenchmarks(ctx context.Context, region string) ([]domain.ProviderBenchmark, error) {
	var rows []ProviderBenchmarkRow
	err := s.db.WithContext(ctx).
		Where("region = ?", orDefault(region, domain.DefaultRegion)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListBenchmarks: %w", err)
	}

	out := make([]domain.ProviderBenchmark, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.ProviderBenchmark{
			ID:           r.ID,
			Provider:     r.Provider,
			Plan:         r.Plan,
			MonthlyPrice: r.MonthlyPrice,
			Currency:     r.Currency,
			Region:       r.Region,
			Category:     r.Category,
		})
	}
	return out, nil
}

// FindHomebrewCost returns the cost for item in region or domain.ErrNotFound.
func (s *Store) FindHomebrewCost(ctx context.Context, item, region string) (*domain.HomebrewCost, error) {
	var row HomebrewCostRow
	err := s.db.WithContext(ctx).
		Where("item = ? AND region = ?", strings.ToLower(strings.TrimSpace(item)), orDefault(region, domain.DefaultRegion)).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("FindHomebrewCost: %q: %w", item, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("FindHomebrewCost: %w", err)
	}
	return &domain.HomebrewCost{
		ID:                row.ID,
		Item:              row.Item,
		EstimatedUnitCost: row.EstimatedUnitCost,
		Region:            row.Region,
		Currency:          row.Currency,
	}, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
