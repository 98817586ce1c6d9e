package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/finance-advisor/internal/domain"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// InsightsTable is the analytics table insights are exported to.
const InsightsTable = "advice_insights"

// Exporter streams advice insights into BigQuery.
type Exporter struct {
	client  *bigquery.Client
	project string
	dataset string
}

// NewExporter creates an exporter with its own BigQuery client.
func NewExporter(ctx context.Context, project, dataset string) (*Exporter, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("NewExporter: creating client: %w", err)
	}
	return &Exporter{client: client, project: project, dataset: dataset}, nil
}

// Close closes the BigQuery client connection.
func (e *Exporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

func (e *Exporter) table() *bigquery.Table {
	return e.client.DatasetInProject(e.project, e.dataset).Table(InsightsTable)
}

// PublishInsights exports the insights of one advice run.
func (e *Exporter) PublishInsights(ctx context.Context, runID string, insights []domain.AdviceInsight) error {
	if err := e.ExportInsights(ctx, insights); err != nil {
		return fmt.Errorf("PublishInsights: run %s: %w", runID, err)
	}
	return nil
}

// ExportInsights inserts insights as analytics rows.
func (e *Exporter) ExportInsights(ctx context.Context, insights []domain.AdviceInsight) error {
	if len(insights) == 0 {
		return nil
	}
	rows := make([]*InsightRow, 0, len(insights))
	for _, in := range insights {
		row, err := NewInsightRow(in)
		if err != nil {
			return fmt.Errorf("ExportInsights: %w", err)
		}
		rows = append(rows, row)
	}
	return InsertInsightsWithClient(ctx, e.client, e.project, e.dataset, rows)
}

// InsertInsightsWithClient inserts a batch of InsightRow using the provided client.
func InsertInsightsWithClient(ctx context.Context, client *bigquery.Client, project, dataset string, rows []*InsightRow) error {
	if len(rows) == 0 {
		return nil
	}
	inserter := client.DatasetInProject(project, dataset).Table(InsightsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertInsights: inserting rows: %w", err)
	}
	return nil
}

// ExportedInsightIDs returns the ids already present in the analytics table.
func (e *Exporter) ExportedInsightIDs(ctx context.Context) (map[int64]bool, error) {
	q := e.client.Query(fmt.Sprintf("SELECT DISTINCT insight_id FROM `%s.%s.%s`", e.project, e.dataset, InsightsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ExportedInsightIDs: query read: %w", err)
	}

	ids := make(map[int64]bool)
	for {
		var r struct {
			InsightID int64 `bigquery:"insight_id"`
		}
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ExportedInsightIDs: iterating rows: %w", err)
		}
		ids[r.InsightID] = true
	}
	return ids, nil
}

// EnsureTable creates the insights table, partitioned by run date, when it does not exist.
func (e *Exporter) EnsureTable(ctx context.Context) (created bool, err error) {
	t := e.table()
	if _, err := t.Metadata(ctx); err == nil {
		return false, nil
	} else if !isNotFound(err) {
		return false, fmt.Errorf("EnsureTable: metadata: %w", err)
	}

	schema, err := bigquery.InferSchema(InsightRow{})
	if err != nil {
		return false, fmt.Errorf("EnsureTable: infer schema: %w", err)
	}
	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "run_date",
		},
		Description: "Advice insights exported from the finance advisor",
	}
	if err := t.Create(ctx, meta); err != nil {
		return false, fmt.Errorf("EnsureTable: create: %w", err)
	}
	return true, nil
}

// PendingInsights returns the insights whose ids are not in exported.
func PendingInsights(all []domain.AdviceInsight, exported map[int64]bool) []domain.AdviceInsight {
	var out []domain.AdviceInsight
	for _, in := range all {
		if !exported[in.ID] {
			out = append(out, in)
		}
	}
	return out
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
