package pipeline

// Default values for document processing and parsing.
// These can be overridden via configuration or environment variables in the future.
const (
	// DefaultSourceSystem is the default source system for documents.
	DefaultSourceSystem = "HI_LEGISLATURE"

	// DefaultDocumentType is the default document type for uploaded files.
	DefaultDocumentType = "APPROPRIATIONS_BILL"

	// DefaultTopPrograms is the number of largest programs listed in a run summary.
	DefaultTopPrograms = 10
)
