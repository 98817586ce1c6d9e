// Package notionsync mirrors advice insights into a Notion database.
package notionsync

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-advisor/internal/logger"
	"github.com/jomei/notionapi"
)

// Stats counts what one sync did or, in dry-run mode, would do.
type Stats struct {
	Created  int
	Updated  int
	Archived int
	Failed   int
}

// SyncInsights makes the Notion database match the stored insights:
// 1. Queries all existing Notion pages
// 2. Archives pages whose insight no longer exists (or that carry no id)
// 3. Updates pages of known insights and creates pages for new ones
// Per-page failures are logged and counted; the sync carries on.
func SyncInsights(ctx context.Context, src InsightSource, notionClient NotionService, notionDBID string, dryRun bool) (Stats, error) {
	log := logger.FromContext(ctx)
	var stats Stats

	log.Info().Bool("dry_run", dryRun).Msg("Starting insights sync to Notion")

	insights, err := src.ListAllInsights(ctx)
	if err != nil {
		return stats, fmt.Errorf("SyncInsights: list insights: %w", err)
	}
	log.Info().Int("insight_count", len(insights)).Msg("Retrieved insights")

	valid := make(map[int64]bool, len(insights))
	for _, in := range insights {
		valid[in.ID] = true
	}

	pages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return stats, fmt.Errorf("SyncInsights: %w", err)
	}
	log.Info().Int("notion_page_count", len(pages)).Msg("Retrieved existing Notion pages")

	existing := make(map[int64]string, len(pages))
	for _, page := range pages {
		id := extractInsightID(page)
		if id == 0 || !valid[id] {
			if dryRun {
				log.Info().Int64("insight_id", id).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
				stats.Archived++
				continue
			}
			if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
				log.Warn().Err(err).Int64("insight_id", id).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
				stats.Failed++
				continue
			}
			stats.Archived++
			continue
		}
		if _, dup := existing[id]; dup {
			// A second page for the same insight is stale.
			if !dryRun {
				if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
					log.Warn().Err(err).Int64("insight_id", id).Msg("Failed to archive duplicate Notion page")
					stats.Failed++
					continue
				}
			}
			stats.Archived++
			continue
		}
		existing[id] = string(page.ID)
	}

	for _, in := range insights {
		pageID, ok := existing[in.ID]
		if dryRun {
			if ok {
				stats.Updated++
			} else {
				stats.Created++
			}
			continue
		}

		props := InsightToNotionProperties(in)
		if ok {
			if _, err := notionClient.UpdatePage(ctx, pageID, props); err != nil {
				log.Warn().Err(err).Int64("insight_id", in.ID).Str("page_id", pageID).Msg("Failed to update Notion page")
				stats.Failed++
				continue
			}
			stats.Updated++
			continue
		}

		page, err := notionClient.CreatePage(ctx, notionDBID, props)
		if err != nil {
			log.Warn().Err(err).Int64("insight_id", in.ID).Msg("Failed to create Notion page")
			stats.Failed++
			continue
		}
		log.Debug().Int64("insight_id", in.ID).Str("page_id", string(page.ID)).Msg("Created Notion page")
		stats.Created++
	}

	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("archived", stats.Archived).
		Int("failed", stats.Failed).
		Msg("Insights sync completed")

	return stats, nil
}

// queryAllNotionPages queries all pages from a Notion database, following pagination.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: 100}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}
		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
