package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
)

// Document types stored in budget.documents.
const (
	DocumentTypeAppropriationsBill = "APPROPRIATIONS_BILL"
	DocumentTypeVetoCSV            = "VETO_CSV"
	DocumentTypeOneTimeCSV         = "ONE_TIME_CSV"
)

type DocumentRow struct {
	DocumentID string `bigquery:"document_id"` // REQUIRED
	GCSURI     string `bigquery:"gcs_uri"`     // REQUIRED

	DocumentType string `bigquery:"document_type"` // REQUIRED
	SourceSystem string `bigquery:"source_system"` // NULLABLE

	BillNumber  string `bigquery:"bill_number"`  // NULLABLE
	SessionYear int64  `bigquery:"session_year"` // NULLABLE

	BienniumFirstYear  int64 `bigquery:"biennium_first_year"`  // NULLABLE
	BienniumSecondYear int64 `bigquery:"biennium_second_year"` // NULLABLE

	SnapshotDate civil.Date        `bigquery:"snapshot_date"` // REQUIRED
	EnactedDate  bigquery.NullDate `bigquery:"enacted_date"`  // NULLABLE

	UploadTS    time.Time              `bigquery:"upload_ts"`    // REQUIRED
	ProcessedTS bigquery.NullTimestamp `bigquery:"processed_ts"` // NULLABLE

	ParseStatus string `bigquery:"parse_status"` // NULLABLE

	OriginalFilename string `bigquery:"original_filename"` // NULLABLE
	FileMimeType     string `bigquery:"file_mime_type"`    // NULLABLE

	TextGCSURI string `bigquery:"text_gcs_uri"` // NULLABLE

	ChecksumSHA256 string `bigquery:"checksum_sha256"` // NULLABLE

	Metadata bigquery.NullJSON `bigquery:"metadata"` // NULLABLE
}
