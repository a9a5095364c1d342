package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dkagawa/budgetline/internal/analysis"
	"github.com/dkagawa/budgetline/internal/api/middleware"
	"github.com/dkagawa/budgetline/internal/domain"
	"github.com/dkagawa/budgetline/internal/gcsuploader"
	"github.com/dkagawa/budgetline/internal/infra/bigquery"
	"github.com/dkagawa/budgetline/internal/jobs"
)

// DocumentsHandler handles document-related endpoints.
type DocumentsHandler struct {
	repo      bigquery.BudgetRepository
	publisher jobs.Publisher
	bucket    string
	log       zerolog.Logger
}

// NewDocumentsHandler creates a new documents handler.
func NewDocumentsHandler(repo bigquery.BudgetRepository, publisher jobs.Publisher, bucket string, log zerolog.Logger) *DocumentsHandler {
	return &DocumentsHandler{
		repo:      repo,
		publisher: publisher,
		bucket:    bucket,
		log:       log,
	}
}

// ListDocuments handles GET /api/documents
func (h *DocumentsHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	documents, err := h.repo.ListAllDocuments(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list documents")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"count":     len(documents),
	})
}

// CreateUploadURL handles POST /api/documents/upload-url
func (h *DocumentsHandler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename    string `json:"filename"`
		ContentType string `json:"content_type"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Filename == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Filename is required")
		return
	}

	// Generate unique object name grouped by upload date
	objectName := gcsuploader.DocumentObjectName(req.Filename)
	gcsURI := fmt.Sprintf("gs://%s/%s", h.bucket, objectName)
	documentID := uuid.New().String()

	contentType := req.ContentType
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}

	// The direct endpoint always works. Service accounts can additionally
	// sign a URL for uploading straight to GCS; user credentials cannot.
	uploadURL := fmt.Sprintf("/api/documents/upload/%s?object_name=%s&filename=%s", documentID, url.QueryEscape(objectName), url.QueryEscape(req.Filename))

	resp := map[string]string{
		"upload_url":  uploadURL,
		"gcs_uri":     gcsURI,
		"object_name": objectName,
		"document_id": documentID,
	}
	if signed, err := h.generateSignedURL(r.Context(), h.bucket, objectName, contentType); err == nil {
		resp["signed_url"] = signed
	} else {
		h.log.Debug().Err(err).Msg("Signed URL unavailable, direct upload only")
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// UploadDocument handles POST /api/documents/upload/:documentId
// Direct upload endpoint for local development with user credentials
func (h *DocumentsHandler) UploadDocument(w http.ResponseWriter, r *http.Request, documentID string) {
	ctx := r.Context()

	// Get object name from query parameter (passed from CreateUploadURL)
	objectName := r.URL.Query().Get("object_name")
	if objectName == "" {
		middleware.WriteError(w, http.StatusBadRequest, "object_name is required")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}

	gcsURI := fmt.Sprintf("gs://%s/%s", h.bucket, objectName)

	// Upload to GCS
	client, err := storage.NewClient(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create storage client")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}
	defer client.Close()

	wc := client.Bucket(h.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType

	// Copy request body to GCS, hashing it on the way through
	hasher := sha256.New()
	written, err := io.Copy(wc, io.TeeReader(r.Body, hasher))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to write to GCS")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	if err := wc.Close(); err != nil {
		h.log.Error().Err(err).Msg("Failed to close GCS writer")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	checksum := hex.EncodeToString(hasher.Sum(nil))

	// A re-upload of identical bytes resolves to the existing document.
	if existing, err := h.repo.FindDocumentByChecksum(ctx, checksum); err != nil {
		h.log.Error().Err(err).Msg("Failed to check for duplicate document")
	} else if existing != nil {
		h.log.Info().
			Str("document_id", existing.DocumentID).
			Str("checksum", checksum).
			Msg("Duplicate upload, reusing existing document")
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"document_id": existing.DocumentID,
			"gcs_uri":     existing.GCSURI,
			"checksum":    checksum,
			"status":      "duplicate",
		})
		return
	}

	h.log.Info().
		Str("document_id", documentID).
		Str("gcs_uri", gcsURI).
		Int64("bytes", written).
		Str("checksum", checksum).
		Msg("File uploaded successfully")

	// Save document metadata to BigQuery
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "document.txt"
	}
	// Clean filename - remove any path or query parameters
	if idx := strings.Index(filename, "?"); idx > 0 {
		filename = filename[:idx]
	}
	filename = filepath.Base(filename)

	documentType := r.URL.Query().Get("document_type")
	if documentType == "" {
		documentType = bigquery.DocumentTypeAppropriationsBill
	}

	snapshotDate := civil.DateOf(time.Now())
	if s := r.URL.Query().Get("snapshot_date"); s != "" {
		parsed, err := civil.ParseDate(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid snapshot_date format, want YYYY-MM-DD")
			return
		}
		snapshotDate = parsed
	}

	biennium := domain.DefaultBiennium
	doc := &bigquery.DocumentRow{
		DocumentID:         documentID,
		GCSURI:             gcsURI,
		DocumentType:       documentType,
		BillNumber:         r.URL.Query().Get("bill_number"),
		BienniumFirstYear:  int64(biennium.FirstYear),
		BienniumSecondYear: int64(biennium.SecondYear),
		SnapshotDate:       snapshotDate,
		UploadTS:           time.Now(),
		ParseStatus:        "PENDING",
		OriginalFilename:   filename,
		FileMimeType:       contentType,
		TextGCSURI:         gcsURI,
		ChecksumSHA256:     checksum,
	}

	if err := h.repo.InsertDocument(ctx, doc); err != nil {
		h.log.Error().Err(err).Msg("Failed to insert document metadata")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save document metadata")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"document_id": documentID,
		"gcs_uri":     gcsURI,
		"checksum":    checksum,
		"status":      "uploaded",
	})
}

// EnqueueParsing handles POST /api/documents/parse
func (h *DocumentsHandler) EnqueueParsing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID string `json:"document_id"`
		GCSURI     string `json:"gcs_uri"`
		VetoGCSURI string `json:"veto_gcs_uri"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.DocumentID == "" || req.GCSURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "document_id and gcs_uri are required")
		return
	}

	ctx := r.Context()

	// Create parse job
	job := &jobs.ParseBudgetJob{
		DocumentID: req.DocumentID,
		GCSURI:     req.GCSURI,
		VetoGCSURI: req.VetoGCSURI,
	}

	// Publish job
	if err := h.publisher.PublishParseBudget(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue parsing job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue parsing job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("document_id", req.DocumentID).Msg("Parsing job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":      job.JobID,
		"document_id": req.DocumentID,
		"status":      string(job.Status),
	})
}

// generateSignedURL generates a signed URL for uploading to GCS.
func (h *DocumentsHandler) generateSignedURL(ctx context.Context, bucket, object, contentType string) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create storage client: %w", err)
	}
	defer client.Close()

	opts := &storage.SignedURLOptions{
		Method:      "PUT",
		Expires:     time.Now().Add(15 * time.Minute),
		ContentType: contentType,
		Scheme:      storage.SigningSchemeV4,
	}

	url, err := client.Bucket(bucket).SignedURL(object, opts)
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}

	return url, nil
}

// AllocationsHandler handles allocation-related endpoints.
type AllocationsHandler struct {
	repo bigquery.BudgetRepository
	log  zerolog.Logger
}

// NewAllocationsHandler creates a new allocations handler.
func NewAllocationsHandler(repo bigquery.BudgetRepository, log zerolog.Logger) *AllocationsHandler {
	return &AllocationsHandler{
		repo: repo,
		log:  log,
	}
}

// ListAllocations handles GET /api/allocations
func (h *AllocationsHandler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fiscalYear, collection, ok := allocationParams(w, r)
	if !ok {
		return
	}

	allocations, err := h.repo.QueryAllocationsByFiscalYear(ctx, fiscalYear, collection)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query allocations")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query allocations")
		return
	}

	// Return array directly for frontend compatibility
	if allocations == nil {
		allocations = []*bigquery.AllocationRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, allocations)
}

// GetSummary handles GET /api/summary
func (h *AllocationsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fiscalYear, collection, ok := allocationParams(w, r)
	if !ok {
		return
	}

	topN := 10
	if s := r.URL.Query().Get("top"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid top parameter")
			return
		}
		topN = n
	}

	rows, err := h.repo.QueryAllocationsByFiscalYear(ctx, fiscalYear, collection)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query allocations for summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build summary")
		return
	}

	records := make([]domain.Allocation, len(rows))
	for i, row := range rows {
		records[i] = row.ToAllocation()
	}

	summary, err := analysis.BuildSummary(records, fiscalYear, topN)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to build summary")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// GetDepartmentTotals handles GET /api/departments/totals
func (h *AllocationsHandler) GetDepartmentTotals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fiscalYear, collection, ok := allocationParams(w, r)
	if !ok {
		return
	}

	totals, err := h.repo.QueryDepartmentTotals(ctx, fiscalYear, collection)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query department totals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query department totals")
		return
	}

	type departmentTotal struct {
		DepartmentCode string  `json:"department_code"`
		DepartmentName string  `json:"department_name"`
		Total          float64 `json:"total"`
	}

	out := make([]departmentTotal, 0, len(totals))
	for _, t := range totals {
		var total float64
		if t.Total != nil {
			total, _ = t.Total.Float64()
		}
		out = append(out, departmentTotal{
			DepartmentCode: t.DepartmentCode,
			DepartmentName: t.DepartmentName,
			Total:          total,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"fiscal_year": fiscalYear,
		"collection":  collection,
		"departments": out,
		"count":       len(out),
	})
}

// allocationParams reads the shared fiscal_year and collection query
// parameters, writing a 400 response when either is malformed.
func allocationParams(w http.ResponseWriter, r *http.Request) (int, string, bool) {
	query := r.URL.Query()

	fiscalYear := domain.DefaultBiennium.FirstYear
	if s := query.Get("fiscal_year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid fiscal_year format")
			return 0, "", false
		}
		fiscalYear = y
	}

	collection := strings.ToUpper(query.Get("collection"))
	switch collection {
	case "":
		collection = bigquery.CollectionPreVeto
	case bigquery.CollectionPreVeto, bigquery.CollectionPostVeto:
	default:
		middleware.WriteError(w, http.StatusBadRequest, "collection must be PRE_VETO or POST_VETO")
		return 0, "", false
	}

	return fiscalYear, collection, true
}

// RunsHandler handles parse-run endpoints.
type RunsHandler struct {
	repo bigquery.BudgetRepository
	log  zerolog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo bigquery.BudgetRepository, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		repo: repo,
		log:  log,
	}
}

// GetRun handles GET /api/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request, parseRunID string) {
	ctx := r.Context()

	run, err := h.repo.GetParseRun(ctx, parseRunID)
	if err != nil {
		h.log.Error().Err(err).Str("parse_run_id", parseRunID).Msg("Failed to get parse run")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get parse run")
		return
	}
	if run == nil {
		middleware.WriteError(w, http.StatusNotFound, "Parse run not found")
		return
	}

	reports, err := h.repo.QueryRunReportsByRun(ctx, parseRunID)
	if err != nil {
		h.log.Error().Err(err).Str("parse_run_id", parseRunID).Msg("Failed to get run reports")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get run reports")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run":     run,
		"reports": reports,
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Parse query parameters
	query := r.URL.Query()
	filter := jobs.JobFilter{
		DocumentID: query.Get("document_id"),
		Status:     jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
