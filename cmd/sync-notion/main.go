package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/dkagawa/budgetline/internal/domain"
	"github.com/dkagawa/budgetline/internal/infra/bigquery"
	"github.com/dkagawa/budgetline/internal/logger"
	"github.com/dkagawa/budgetline/internal/notionsync"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	notionToken := flag.String("notion-token", "", "Notion API token (required)")
	summariesDBID := flag.String("summaries-db-id", "", "Notion database ID for department summaries")
	documentsDBID := flag.String("documents-db-id", "", "Notion database ID for budget documents")
	fiscalYear := flag.Int("fiscal-year", domain.DefaultBiennium.FirstYear, "Fiscal year to sync summaries for")
	collection := flag.String("collection", bigquery.CollectionPostVeto, "Allocation collection to sync (PRE_VETO or POST_VETO)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *summariesDBID == "" && *documentsDBID == "" {
		log.Fatal().Msg("Error: --summaries-db-id or --documents-db-id is required")
	}
	if *collection != bigquery.CollectionPreVeto && *collection != bigquery.CollectionPostVeto {
		log.Fatal().Str("collection", *collection).Msg("Error: invalid collection, expected PRE_VETO or POST_VETO")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Int("fiscal_year", *fiscalYear).
		Str("collection", *collection).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	// Initialize BigQuery repository
	repo, err := bigquery.NewBigQueryBudgetRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize BigQuery repository")
	}
	defer repo.Close()

	// Initialize Notion client
	notionClient := notionsync.NewNotionClient(*notionToken)

	// Sync department summaries
	if *summariesDBID != "" {
		if err := notionsync.SyncDepartmentSummaries(ctx, repo, notionClient, *summariesDBID, *fiscalYear, *collection, *dryRun); err != nil {
			log.Fatal().Err(err).Msg("Summary sync failed")
		}
	}

	// Sync documents
	if *documentsDBID != "" {
		if err := notionsync.SyncDocuments(ctx, repo, notionClient, *documentsDBID, *dryRun); err != nil {
			log.Fatal().Err(err).Msg("Document sync failed")
		}
	}

	fmt.Println("Sync completed successfully.")
}
