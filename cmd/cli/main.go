package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dkagawa/budgetline/internal/analysis"
	"github.com/dkagawa/budgetline/internal/domain"
	"github.com/dkagawa/budgetline/internal/export"
	"github.com/dkagawa/budgetline/internal/gcsuploader"
	infraBQ "github.com/dkagawa/budgetline/internal/infra/bigquery"
	"github.com/dkagawa/budgetline/internal/logger"
	"github.com/dkagawa/budgetline/internal/pipeline"
	"github.com/dkagawa/budgetline/internal/veto"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "parse":
		runParse(log)
	case "stats":
		runStats(log)
	case "compare":
		runCompare(log)
	case "process":
		runProcess(log)
	case "reparse":
		runReparse(log)
	case "upload":
		runUpload(log)
	case "download":
		runDownload(log)
	case "inspect":
		runInspect(log)
	case "delete":
		runDelete(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Budgetline CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  parse     Parse a local budget bill and export allocations")
	fmt.Println("  stats     Print amount statistics for a local budget bill")
	fmt.Println("  compare   Diff the allocations of two budget bills")
	fmt.Println("  process   Process a budget document from GCS into BigQuery")
	fmt.Println("  reparse   Re-process an existing document by ID")
	fmt.Println("  upload    Upload a budget document to GCS")
	fmt.Println("  download  Download a stored document from GCS")
	fmt.Println("  inspect   Inspect a document or a parse run")
	fmt.Println("  delete    Delete a document and all its derived data")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// readOptional reads path when it is set. A missing override file is
// fatal rather than skipped.
func readOptional(log zerolog.Logger, path, what string) []byte {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msgf("Failed to read %s", what)
	}
	return data
}

func runParse(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to the budget bill text file")
	outDir := fs.String("out", ".", "Directory for exported files")
	vetoPath := fs.String("veto", "", "Path to a veto change CSV")
	vetoMode := fs.String("veto-mode", string(veto.ModeBoth), "Veto handling: none, apply or both")
	oneTimePath := fs.String("one-time", "", "Path to a one-time appropriations CSV")
	repair := fs.Bool("repair", false, "Repair mid-record line breaks before parsing")
	fiscalYear := fs.Int("fiscal-year", domain.DefaultBiennium.FirstYear, "Fiscal year for the summary")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Error: --file is required")
	}
	mode, err := veto.ParseMode(*vetoMode)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid veto mode")
	}

	raw, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read bill file")
	}
	vetoCSV := readOptional(log, *vetoPath, "veto CSV")
	oneTimeCSV := readOptional(log, *oneTimePath, "one-time CSV")

	cols, err := pipeline.TransformDocument(raw, vetoCSV, oneTimeCSV, pipeline.Options{
		RepairLines: *repair,
		VetoMode:    mode,
		Logger:      log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}

	for _, d := range cols.Diagnostics {
		log.Warn().Msg(d.String())
	}
	if !cols.Valid {
		for _, p := range cols.Problems {
			log.Warn().Str("problem", p).Msg("Validation problem")
		}
		log.Warn().Int("problems", len(cols.Problems)).Msg("Collection failed validation, exporting anyway")
	}

	summary, err := analysis.BuildSummary(cols.Working(), *fiscalYear, pipeline.DefaultTopPrograms)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build summary")
	}

	if err := export.WriteCSVFile(filepath.Join(*outDir, "allocations_pre_veto.csv"), cols.PreVeto); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}
	if err := export.WriteJSONFile(filepath.Join(*outDir, "allocations_pre_veto.json"), cols.PreVeto); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}
	if cols.PostVeto != nil {
		if err := export.WriteCSVFile(filepath.Join(*outDir, "allocations_post_veto.csv"), cols.PostVeto); err != nil {
			log.Fatal().Err(err).Msg("Export failed")
		}
	}
	if err := export.WriteSummaryFile(filepath.Join(*outDir, "summary.json"), summary); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Parsed %d records (%.1f%% coverage, %d diagnostics)\n",
		len(cols.PreVeto), cols.Coverage.Ratio(), len(cols.Diagnostics))
	if cols.PostVeto != nil {
		fmt.Printf("Applied %d veto changes\n", cols.VetoesApplied)
	}
	fmt.Printf("\nFY%d total: %s across %d records\n",
		summary.FiscalYear, analysis.FormatCompact(summary.Stats.Total), summary.Records)
	for _, s := range summary.Sections {
		fmt.Printf("  %-22s %s\n", s.Key(), analysis.FormatCompact(s.Amount))
	}
	fmt.Printf("\nExported to %s\n", *outDir)
}

func runStats(log zerolog.Logger) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	filePath := fs.String("file", "", "Path to the budget bill text file")
	by := fs.String("by", "", "Group statistics by an export column, e.g. department_code or fund_category")
	fiscalYear := fs.Int("fiscal-year", 0, "Restrict to one fiscal year (0 for both)")
	section := fs.String("section", "", "Restrict to one section: operating, capital or one-time")
	department := fs.String("department", "", "Restrict to one department code, e.g. AGR")
	fund := fs.String("fund", "", "Restrict to one fund type letter, e.g. A")
	fs.Parse(os.Args[2:])

	if *filePath == "" {
		log.Fatal().Msg("Error: --file is required")
	}

	raw, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read bill file")
	}

	cols, err := pipeline.TransformDocument(raw, nil, nil, pipeline.Options{Logger: log})
	if err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}

	records := cols.PreVeto
	if *fiscalYear != 0 {
		records = analysis.ByFiscalYear(records, *fiscalYear)
	}
	if *section != "" {
		sec := domain.ParseSection(*section)
		if sec == domain.SectionUnspecified {
			log.Fatal().Str("section", *section).Msg("Unknown section, want operating, capital or one-time")
		}
		records = analysis.BySection(records, sec)
	}
	if *department != "" {
		code := strings.ToUpper(strings.TrimSpace(*department))
		codes := domain.DepartmentCodes()
		known := false
		for _, c := range codes {
			if c == code {
				known = true
				break
			}
		}
		if !known {
			log.Fatal().Strs("known", codes).Msgf("Unknown department code %q", code)
		}
		records = analysis.ByDepartment(records, code)
	}
	if *fund != "" {
		f := domain.ParseFundType(*fund)
		if !f.Known() {
			log.Fatal().Str("fund", *fund).Msg("Unknown fund type letter")
		}
		records = analysis.ByFund(records, f)
	}

	if *by == "" {
		printStats("all records", analysis.Summarize(records))
		return
	}

	grouped, err := analysis.SummarizeBy(records, *by)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to group statistics")
	}
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		printStats(k, grouped[k])
	}
}

func printStats(label string, s analysis.Stats) {
	fmt.Printf("%s\n", label)
	fmt.Printf("  count:  %d (%d zero)\n", s.Count, s.Zero)
	fmt.Printf("  total:  %s\n", analysis.FormatCompact(s.Total))
	fmt.Printf("  mean:   %s\n", analysis.FormatCompact(s.Mean))
	fmt.Printf("  median: %s\n", analysis.FormatCompact(s.Median))
	fmt.Printf("  range:  %s to %s\n", analysis.FormatCompact(s.Min), analysis.FormatCompact(s.Max))
	fmt.Println()
}

func runCompare(log zerolog.Logger) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	beforePath := fs.String("before", "", "Path to the earlier bill text file")
	afterPath := fs.String("after", "", "Path to the later bill text file")
	outPath := fs.String("out", "", "Write the full change list to this JSON file")
	fs.Parse(os.Args[2:])

	if *beforePath == "" || *afterPath == "" {
		log.Fatal().Msg("Usage: cli compare -before PATH -after PATH [-out PATH]")
	}

	parse := func(path string) []domain.Allocation {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to read bill file")
		}
		cols, err := pipeline.TransformDocument(raw, nil, nil, pipeline.Options{Logger: log})
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Parse failed")
		}
		return cols.PreVeto
	}

	changes := analysis.Compare(parse(*beforePath), parse(*afterPath))

	var added, removed, modified int
	for _, c := range changes {
		switch c.Type {
		case analysis.ChangeAdded:
			added++
		case analysis.ChangeRemoved:
			removed++
		case analysis.ChangeModified:
			modified++
		}
	}
	fmt.Printf("%d changes: %d added, %d removed, %d modified\n", len(changes), added, removed, modified)
	for _, c := range changes {
		fmt.Printf("  %-8s %s FY%d %s: %s -> %s\n",
			c.Type, c.ProgramID, c.FiscalYear, c.FundType,
			analysis.FormatCompact(c.Before), analysis.FormatCompact(c.After))
	}

	if *outPath != "" {
		if err := export.WriteChangesFile(*outPath, changes); err != nil {
			log.Fatal().Err(err).Msg("Failed to write change list")
		}
		fmt.Printf("\nWrote %s\n", *outPath)
	}
}

func runProcess(log zerolog.Logger) {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	gcsURI := fs.String("gcs-uri", "", "GCS URI of the budget bill text")
	documentID := fs.String("document-id", "", "Existing document ID (omit to register a new document)")
	vetoURI := fs.String("veto-uri", "", "GCS URI of a veto change CSV")
	oneTimeURI := fs.String("one-time-uri", "", "GCS URI of a one-time appropriations CSV")
	artifactBucket := fs.String("artifact-bucket", os.Getenv("GCS_ARTIFACT_BUCKET"), "GCS bucket for run artifacts")
	fs.Parse(os.Args[2:])

	if *gcsURI == "" {
		log.Fatal().Msg("Error: --gcs-uri is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("gcs_uri", *gcsURI).Msg("Starting processing")

	summary, err := pipeline.ProcessBudgetFromGCS(ctx, pipeline.ProcessRequest{
		DocumentID:     *documentID,
		GCSURI:         *gcsURI,
		VetoGCSURI:     *vetoURI,
		OneTimeGCSURI:  *oneTimeURI,
		ArtifactBucket: *artifactBucket,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Processing failed")
	}

	fmt.Println("Processing completed successfully.")
	fmt.Printf("  document:  %s\n", summary.DocumentID)
	fmt.Printf("  parse run: %s\n", summary.ParseRunID)
	fmt.Printf("  records:   %d (%d warnings, %.1f%% coverage)\n",
		summary.Records, summary.Warnings, summary.CoveragePct)
	if summary.VetoesApplied > 0 {
		fmt.Printf("  vetoes:    %d applied\n", summary.VetoesApplied)
	}
	for _, uri := range summary.Artifacts {
		fmt.Printf("  artifact:  %s\n", uri)
	}
}

func runReparse(log zerolog.Logger) {
	fs := flag.NewFlagSet("reparse", flag.ExitOnError)
	documentID := fs.String("document-id", "", "Document ID to re-process (omit for the latest appropriations bill)")
	vetoURI := fs.String("veto-uri", "", "GCS URI of a veto change CSV")
	artifactBucket := fs.String("artifact-bucket", os.Getenv("GCS_ARTIFACT_BUCKET"), "GCS bucket for run artifacts")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var doc *infraBQ.DocumentRow
	if *documentID == "" {
		latest, err := infraBQ.FindLatestDocumentByType(ctx, infraBQ.DocumentTypeAppropriationsBill)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to look up latest appropriations bill")
		}
		if latest == nil {
			log.Fatal().Msg("No appropriations bill on record")
		}
		doc = latest
	} else {
		// Get all documents and find the one with matching ID
		docs, err := infraBQ.ListAllDocuments(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list documents")
		}
		for _, d := range docs {
			if d.DocumentID == *documentID {
				doc = d
				break
			}
		}
		if doc == nil {
			log.Fatal().Msg("Document not found")
		}
	}

	log.Info().Str("document_id", doc.DocumentID).Msg("Starting re-process")

	gcsURI := doc.TextGCSURI
	if gcsURI == "" {
		gcsURI = doc.GCSURI
	}
	if gcsURI == "" {
		log.Fatal().Msg("Document has no GCS URI")
	}

	log.Info().Str("gcs_uri", gcsURI).Msg("Re-processing document")

	summary, err := pipeline.ProcessBudgetFromGCS(ctx, pipeline.ProcessRequest{
		DocumentID:     doc.DocumentID,
		GCSURI:         gcsURI,
		VetoGCSURI:     *vetoURI,
		ArtifactBucket: *artifactBucket,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Re-process failed")
	}

	fmt.Printf("Re-process completed: run %s, %d records.\n", summary.ParseRunID, summary.Records)
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", "", "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local budget document")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}

	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("bucket", *bucketName).
		Str("object", *objectName).
		Str("file", *filePath).
		Msg("Uploading file to GCS")

	if err := gcsuploader.UploadFile(ctx, *bucketName, *objectName, *filePath); err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to gs://%s/%s\n", *filePath, *bucketName, *objectName)
}

func runDownload(log zerolog.Logger) {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	bucketName := fs.String("bucket", "", "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name")
	outPath := fs.String("out", "", "Local path to write to (defaults to the object's base name)")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *objectName == "" {
		log.Fatal().Msg("Usage: cli download -bucket NAME -object PATH [-out PATH]")
	}

	if *outPath == "" {
		*outPath = filepath.Base(*objectName)
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	data, err := gcsuploader.DownloadFile(ctx, *bucketName, *objectName)
	if err != nil {
		log.Fatal().Err(err).Msg("Download failed")
	}

	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		log.Fatal().Err(err).Msg("Failed to write file")
	}

	fmt.Printf("Downloaded gs://%s/%s to %s (%d bytes)\n", *bucketName, *objectName, *outPath, len(data))
}

func runInspect(log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	documentID := fs.String("document-id", "", "Document ID to inspect")
	parseRunID := fs.String("parse-run-id", "", "Parse run ID to inspect")
	fs.Parse(os.Args[2:])

	if *documentID == "" && *parseRunID == "" {
		log.Fatal().Msg("Error: --document-id or --parse-run-id is required")
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	repo, err := infraBQ.NewBigQueryBudgetRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	if *documentID != "" {
		inspectDocument(ctx, log, repo, *documentID)
	}
	if *parseRunID != "" {
		inspectParseRun(ctx, log, repo, *parseRunID)
	}
}

func inspectDocument(ctx context.Context, log zerolog.Logger, repo infraBQ.BudgetRepository, documentID string) {
	// Get all documents and find the one with matching ID
	docs, err := repo.ListAllDocuments(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list documents")
	}

	var doc *infraBQ.DocumentRow
	for _, d := range docs {
		if d.DocumentID == documentID {
			doc = d
			break
		}
	}

	if doc == nil {
		log.Fatal().Msg("Document not found")
	}

	fmt.Println("\n=== Document Details ===")
	fmt.Printf("ID:        %s\n", doc.DocumentID)
	fmt.Printf("Type:      %s\n", doc.DocumentType)
	fmt.Printf("GCS URI:   %s\n", doc.GCSURI)
	if doc.BillNumber != "" {
		fmt.Printf("Bill:      %s (session %d)\n", doc.BillNumber, doc.SessionYear)
	}
	fmt.Printf("Biennium:  FY%d-FY%d\n", doc.BienniumFirstYear, doc.BienniumSecondYear)
	fmt.Printf("Snapshot:  %s\n", doc.SnapshotDate)
	fmt.Printf("Uploaded:  %s\n", doc.UploadTS)
	fmt.Printf("Status:    %s\n", doc.ParseStatus)
}

func inspectParseRun(ctx context.Context, log zerolog.Logger, repo infraBQ.BudgetRepository, parseRunID string) {
	run, err := repo.GetParseRun(ctx, parseRunID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get parse run")
	}
	if run == nil {
		log.Fatal().Msg("Parse run not found")
	}

	fmt.Println("\n=== Parse Run ===")
	fmt.Printf("ID:       %s\n", run.ParseRunID)
	fmt.Printf("Document: %s\n", run.DocumentID)
	fmt.Printf("Parser:   %s %s\n", run.ParserType, run.ParserVersion)
	fmt.Printf("Status:   %s\n", run.Status)
	fmt.Printf("Started:  %s\n", run.StartedTS)
	if run.RecordsParsed.Valid {
		fmt.Printf("Records:  %d\n", run.RecordsParsed.Int64)
	}
	if run.CoveragePct.Valid {
		fmt.Printf("Coverage: %.1f%%\n", run.CoveragePct.Float64)
	}
	if run.ErrorMessage != "" {
		fmt.Printf("Error:    %s\n", run.ErrorMessage)
	}

	rows, err := repo.QueryAllocationsByRun(ctx, parseRunID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query allocations")
	}

	byCollection := make(map[string][]domain.Allocation)
	for _, row := range rows {
		byCollection[row.Collection] = append(byCollection[row.Collection], row.ToAllocation())
	}
	for _, collection := range []string{infraBQ.CollectionPreVeto, infraBQ.CollectionPostVeto} {
		records, ok := byCollection[collection]
		if !ok {
			continue
		}
		stats := analysis.Summarize(records)
		fmt.Printf("\n=== %s (%d records) ===\n", collection, stats.Count)
		fmt.Printf("Total: %s, largest %s\n", analysis.FormatCompact(stats.Total), analysis.FormatCompact(stats.Max))
	}
}

func runDelete(log zerolog.Logger) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	documentID := fs.String("document-id", "", "Document ID to delete")
	confirm := fs.Bool("confirm", false, "Actually delete instead of describing what would be deleted")
	fs.Parse(os.Args[2:])

	if *documentID == "" {
		log.Fatal().Msg("Usage: cli delete -document-id ID -confirm")
	}

	if !*confirm {
		fmt.Printf("Would delete document %s with all its parse runs, allocations and run reports.\n", *documentID)
		fmt.Println("Re-run with -confirm to delete.")
		return
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	if err := infraBQ.DeleteDocument(ctx, *documentID); err != nil {
		log.Fatal().Err(err).Msg("Delete failed")
	}

	fmt.Printf("Deleted document %s and all derived data\n", *documentID)
}
