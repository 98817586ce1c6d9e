package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// InsightKind identifies the kind of advice an insight carries.
type InsightKind string

const (
	KindSwitch    InsightKind = "switch"
	KindMonitor   InsightKind = "monitor"
	KindCutback   InsightKind = "cutback"
	KindDuplicate InsightKind = "duplicate"
)

// AdviceInsight is a persisted, user-facing advice record.
type AdviceInsight struct {
	ID            int64       `json:"id"`
	CreatedAt     time.Time   `json:"created_at"`
	RunID         string      `json:"run_id"`
	Kind          InsightKind `json:"kind"`
	Title         string      `json:"title"`
	Body          string      `json:"body"`
	MonthlySaving *float64    `json:"monthly_saving"`
	AnnualSaving  *float64    `json:"annual_saving"`
	Projection10y *float64    `json:"projection_10y"`
	Confidence    float64     `json:"confidence"`
	TxIDs         []int64     `json:"tx_ids"`
	Meta          InsightMeta `json:"meta"`
}

// InsightMeta is the kind-specific payload of an insight. Each kind has exactly
// one payload type.
type InsightMeta interface {
	Kind() InsightKind
}

// AlternativeSource records where a switch suggestion came from.
type AlternativeSource string

const (
	SourceBenchmark AlternativeSource = "benchmark"
	SourceAI        AlternativeSource = "ai"
)

// SwitchMeta describes a cheaper alternative for a subscription.
type SwitchMeta struct {
	MerchantKey string            `json:"merchant_key"`
	CurrentCost float64           `json:"current_cost"`
	ServiceType string            `json:"service_type"`
	Source      AlternativeSource `json:"source"`
	Benchmark   *BenchmarkMatch   `json:"benchmark,omitempty"`
	Suggestion  string            `json:"suggestion,omitempty"`
}

func (SwitchMeta) Kind() InsightKind { return KindSwitch }

// MonitorMeta describes a subscription with no known cheaper alternative.
type MonitorMeta struct {
	MerchantKey string  `json:"merchant_key"`
	CurrentCost float64 `json:"current_cost"`
	ServiceType string  `json:"service_type"`
}

func (MonitorMeta) Kind() InsightKind { return KindMonitor }

// CutbackMeta describes a recurring "want" spend and its home alternative.
type CutbackMeta struct {
	MerchantKey      string      `json:"merchant_key"`
	MonthlyEstimate  float64     `json:"monthly_estimate"`
	CutFraction      float64     `json:"cut_fraction"`
	Item             string      `json:"item,omitempty"`
	HomebrewUnitCost *float64    `json:"homebrew_unit_cost,omitempty"`
	Recipe           *RecipeCard `json:"recipe,omitempty"`
}

func (CutbackMeta) Kind() InsightKind { return KindCutback }

// DuplicateMeta describes repeated or outlying amounts within a merchant group.
type DuplicateMeta struct {
	MerchantKey string    `json:"merchant_key"`
	Amounts     []float64 `json:"amounts"`
	Mean        float64   `json:"mean"`
	Duplicate   bool      `json:"duplicate"`
	Anomaly     bool      `json:"anomaly"`
}

func (DuplicateMeta) Kind() InsightKind { return KindDuplicate }

// RecipeCard is a short at-home alternative for a purchased item.
type RecipeCard struct {
	Title             string   `json:"title"`
	Ingredients       []string `json:"ingredients"`
	Method            []string `json:"method"`
	EstCostPerServing float64  `json:"est_cost_per_serving"`
	TimeMinutes       float64  `json:"time_minutes"`
	IsViable          bool     `json:"is_viable"`
}

// EncodeMeta serializes meta for storage. A nil meta encodes to nil.
func EncodeMeta(meta InsightMeta) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	return json.Marshal(meta)
}

// DecodeMeta restores the payload stored for an insight of the given kind.
// Empty input yields a nil meta.
func DecodeMeta(kind InsightKind, raw []byte) (InsightMeta, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var (
		meta InsightMeta
		err  error
	)
	switch kind {
	case KindSwitch:
		var m SwitchMeta
		err = json.Unmarshal(raw, &m)
		meta = m
	case KindMonitor:
		var m MonitorMeta
		err = json.Unmarshal(raw, &m)
		meta = m
	case KindCutback:
		var m CutbackMeta
		err = json.Unmarshal(raw, &m)
		meta = m
	case KindDuplicate:
		var m DuplicateMeta
		err = json.Unmarshal(raw, &m)
		meta = m
	default:
		return nil, fmt.Errorf("DecodeMeta: unknown insight kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("DecodeMeta: %s: %w", kind, err)
	}
	return meta, nil
}

// MetaMerchantKey returns the merchant key carried by meta, or "" for a nil meta.
func MetaMerchantKey(meta InsightMeta) string {
	switch m := meta.(type) {
	case SwitchMeta:
		return m.MerchantKey
	case MonitorMeta:
		return m.MerchantKey
	case CutbackMeta:
		return m.MerchantKey
	case DuplicateMeta:
		return m.MerchantKey
	}
	return ""
}
