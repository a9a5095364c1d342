package notionsync

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkagawa/budgetline/internal/infra/bigquery"
	"github.com/dkagawa/budgetline/internal/logger"
	"github.com/jomei/notionapi"
)

const (
	// BatchSize defines the number of documents to process in a single batch
	BatchSize = 100
)

// SyncDepartmentSummaries syncs per-department budget totals from BigQuery to Notion
// for one fiscal year and collection. It queries BigQuery for department totals,
// deletes stale Notion pages within that scope, and creates or updates the rest.
// The "Summary ID" property on each page ties it back to a department total for
// idempotency, so re-running the sync refreshes totals in place.
// This function:
// 1. Queries department totals from BigQuery (SUCCESS parse runs only)
// 2. Deletes stale summaries for the same fiscal year and collection
// 3. Creates/updates current summaries from BigQuery
func SyncDepartmentSummaries(ctx context.Context, repo bigquery.BudgetRepository, notionClient NotionService, notionDBID string, fiscalYear int, collection string, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Int("fiscal_year", fiscalYear).
		Str("collection", collection).
		Bool("dry_run", dryRun).
		Msg("Starting department summary sync to Notion")

	// Query department totals from BigQuery (already filtered to successful parse runs only)
	totals, err := repo.QueryDepartmentTotals(ctx, fiscalYear, collection)
	if err != nil {
		return fmt.Errorf("failed to query department totals: %w", err)
	}

	log.Info().Int("department_count", len(totals)).Msg("Retrieved department totals from BigQuery")

	// Grand total across departments, used to compute each department's share
	var grandTotal float64
	for _, dt := range totals {
		if dt.Total != nil {
			f, _ := dt.Total.Float64()
			grandTotal += f
		}
	}

	// Build set of valid summary IDs from BigQuery
	validSummaryIDs := make(map[string]bool)
	for _, dt := range totals {
		validSummaryIDs[DepartmentSummaryID(dt.DepartmentCode, fiscalYear, collection)] = true
	}

	// Query all existing summaries from Notion
	log.Info().Msg("Querying existing summaries from Notion")
	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	// Build map of existing summary IDs in Notion to their page IDs (for updates)
	existingSummaryPages := make(map[string]string)
	for _, page := range notionPages {
		summaryID := extractSummaryID(page)
		if summaryID != "" {
			existingSummaryPages[summaryID] = string(page.ID)
		}
	}

	// Only pages belonging to this fiscal year and collection are candidates for
	// deletion. Summaries for other years or the other collection stay untouched.
	scopeSuffix := fmt.Sprintf("-%d-%s", fiscalYear, collection)

	// Delete stale summaries from Notion (those not in the valid set)
	var deleted int
	for _, page := range notionPages {
		summaryID := extractSummaryID(page)

		// Delete pages without Summary ID (from old sync) or in-scope pages not in valid set
		if summaryID != "" && (!strings.HasSuffix(summaryID, scopeSuffix) || validSummaryIDs[summaryID]) {
			continue
		}
		if dryRun {
			log.Info().
				Str("summary_id", summaryID).
				Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would delete stale Notion page")
			deleted++
		} else {
			if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
				log.Warn().
					Err(err).
					Str("summary_id", summaryID).
					Str("page_id", string(page.ID)).
					Msg("Failed to delete stale Notion page")
				continue
			}
			log.Info().
				Str("summary_id", summaryID).
				Str("page_id", string(page.ID)).
				Msg("Deleted stale Notion page")
			deleted++
		}
	}

	if deleted > 0 {
		log.Info().Int("deleted", deleted).Msg("Deleted stale summaries from Notion")
	}

	// Sync department totals
	var created, updated int
	for _, dt := range totals {
		summaryID := DepartmentSummaryID(dt.DepartmentCode, fiscalYear, collection)
		existingPageID := existingSummaryPages[summaryID]

		if dryRun {
			if existingPageID != "" {
				log.Info().
					Str("summary_id", summaryID).
					Str("page_id", existingPageID).
					Msg("[DRY RUN] Would update existing Notion page")
				updated++
			} else {
				log.Info().
					Str("summary_id", summaryID).
					Msg("[DRY RUN] Would create new Notion page")
				created++
			}
			continue
		}

		var share float64
		if grandTotal > 0 && dt.Total != nil {
			f, _ := dt.Total.Float64()
			share = f / grandTotal
		}

		// Convert department total to Notion properties
		props := DepartmentSummaryToNotionProperties(dt, fiscalYear, collection, share)

		if existingPageID != "" {
			// Update existing page so totals track the latest parse run
			_, err := notionClient.UpdatePage(ctx, existingPageID, props)
			if err != nil {
				log.Warn().
					Err(err).
					Str("summary_id", summaryID).
					Str("page_id", existingPageID).
					Msg("Failed to update Notion page")
				// Continue processing other departments
				continue
			}
			log.Info().
				Str("summary_id", summaryID).
				Str("page_id", existingPageID).
				Msg("Updated Notion page")
			updated++
		} else {
			// Create new page
			page, err := notionClient.CreatePage(ctx, notionDBID, props)
			if err != nil {
				log.Warn().
					Err(err).
					Str("summary_id", summaryID).
					Msg("Failed to create Notion page")
				// Continue processing other departments
				continue
			}
			log.Info().
				Str("summary_id", summaryID).
				Str("page_id", string(page.ID)).
				Msg("Created Notion page")
			created++
		}
	}

	log.Info().
		Int("deleted", deleted).
		Int("created", created).
		Int("updated", updated).
		Int("total", len(totals)).
		Msg("Department summary sync completed")

	return nil
}

// SyncDocuments syncs all budget documents from BigQuery to Notion.
// Deletes stale documents and creates missing ones. Parse status shown in
// Notion reflects whatever the parse lifecycle last wrote to BigQuery.
func SyncDocuments(ctx context.Context, repo bigquery.BudgetRepository, notionClient NotionService, notionDBID string, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Bool("dry_run", dryRun).
		Msg("Starting documents sync to Notion")

	// Query all documents from BigQuery
	documents, err := repo.ListAllDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to query documents: %w", err)
	}

	log.Info().Int("document_count", len(documents)).Msg("Retrieved documents from BigQuery")

	// Build set of valid document IDs from BigQuery
	validDocumentIDs := make(map[string]bool)
	for _, doc := range documents {
		validDocumentIDs[doc.DocumentID] = true
	}

	// Query all existing documents from Notion
	log.Info().Msg("Querying existing documents from Notion")
	notionPages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return fmt.Errorf("failed to query Notion pages: %w", err)
	}

	log.Info().Int("notion_page_count", len(notionPages)).Msg("Retrieved existing Notion pages")

	// Build map of existing document IDs in Notion (for deduplication)
	existingDocumentIDs := make(map[string]bool)
	for _, page := range notionPages {
		docID := extractDocumentID(page)
		if docID != "" {
			existingDocumentIDs[docID] = true
		}
	}

	// Delete stale documents from Notion
	var deleted int
	for _, page := range notionPages {
		docID := extractDocumentID(page)

		// Delete pages without Document ID (from old sync) or not in valid set
		if docID == "" || !validDocumentIDs[docID] {
			if dryRun {
				log.Info().
					Str("document_id", docID).
					Str("page_id", string(page.ID)).
					Msg("[DRY RUN] Would delete stale Notion page")
				deleted++
			} else {
				if err := notionClient.DeletePage(ctx, string(page.ID)); err != nil {
					log.Warn().
						Err(err).
						Str("document_id", docID).
						Str("page_id", string(page.ID)).
						Msg("Failed to delete stale Notion page")
					continue
				}
				log.Info().
					Str("document_id", docID).
					Str("page_id", string(page.ID)).
					Msg("Deleted stale Notion page")
				deleted++
			}
		}
	}

	// Sync documents in batches
	var created, skipped int
	for i := 0; i < len(documents); i += BatchSize {
		end := i + BatchSize
		if end > len(documents) {
			end = len(documents)
		}

		batch := documents[i:end]
		log.Info().
			Int("batch_start", i).
			Int("batch_end", end).
			Int("batch_size", len(batch)).
			Msg("Processing batch")

		for _, doc := range batch {
			// Skip if already exists in Notion
			if existingDocumentIDs[doc.DocumentID] {
				skipped++
				continue
			}

			if dryRun {
				log.Info().
					Str("document_id", doc.DocumentID).
					Msg("[DRY RUN] Would create Notion page for document")
				created++
				continue
			}

			// Convert document to Notion properties
			props := DocumentToNotionProperties(doc)

			// Create new page
			page, err := notionClient.CreatePage(ctx, notionDBID, props)
			if err != nil {
				log.Warn().
					Err(err).
					Str("document_id", doc.DocumentID).
					Msg("Failed to create Notion page for document")
				continue
			}

			log.Info().
				Str("document_id", doc.DocumentID).
				Str("page_id", string(page.ID)).
				Msg("Created Notion page for document")
			created++
		}
	}

	log.Info().
		Int("created", created).
		Int("deleted", deleted).
		Int("skipped", skipped).
		Int("total", len(documents)).
		Msg("Documents sync completed")

	return nil
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}

		// Only set StartCursor if we have a cursor value
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

// extractSummaryID extracts the summary ID from a Notion page's properties.
// Returns empty string if not found.
func extractSummaryID(page notionapi.Page) string {
	if prop, ok := page.Properties["Summary ID"]; ok {
		if richText, ok := prop.(*notionapi.RichTextProperty); ok {
			if len(richText.RichText) > 0 {
				return richText.RichText[0].PlainText
			}
		}
	}
	return ""
}

// extractDocumentID extracts the document ID from a Notion page's properties.
// Returns empty string if not found.
func extractDocumentID(page notionapi.Page) string {
	if prop, ok := page.Properties["Document ID"]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
