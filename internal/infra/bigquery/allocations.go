package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/dkagawa/budgetline/internal/domain"
)

// Collection labels distinguish the bill as passed from the bill after
// the governor's vetoes.
const (
	CollectionPreVeto  = "PRE_VETO"
	CollectionPostVeto = "POST_VETO"
)

type AllocationRow struct {
	AllocationID string `bigquery:"allocation_id"` // REQUIRED

	DocumentID string `bigquery:"document_id"`  // NULLABLE
	ParseRunID string `bigquery:"parse_run_id"` // NULLABLE

	ProgramID      string `bigquery:"program_id"`      // REQUIRED
	ProgramName    string `bigquery:"program_name"`    // NULLABLE
	DepartmentCode string `bigquery:"department_code"` // REQUIRED
	DepartmentName string `bigquery:"department_name"` // NULLABLE

	Section      string `bigquery:"section"`       // REQUIRED
	FundType     string `bigquery:"fund_type"`     // REQUIRED
	FundCategory string `bigquery:"fund_category"` // NULLABLE

	FiscalYear int64    `bigquery:"fiscal_year"` // REQUIRED
	Amount     *big.Rat `bigquery:"amount"`      // REQUIRED NUMERIC

	Positions bigquery.NullFloat64 `bigquery:"positions"` // NULLABLE
	Ceiling   bigquery.NullFloat64 `bigquery:"ceiling"`   // NULLABLE

	Category string              `bigquery:"category"` // NULLABLE
	Notes    bigquery.NullString `bigquery:"notes"`    // NULLABLE

	LineNumber bigquery.NullInt64 `bigquery:"line_number"` // NULLABLE

	Collection string `bigquery:"collection"` // REQUIRED, PRE_VETO or POST_VETO

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED (default CURRENT_TIMESTAMP)
}

// RowFromAllocation converts a domain record into its warehouse row,
// minting the allocation id.
func RowFromAllocation(rec domain.Allocation, documentID, parseRunID, collection string) *AllocationRow {
	row := &AllocationRow{
		AllocationID:   uuid.NewString(),
		DocumentID:     documentID,
		ParseRunID:     parseRunID,
		ProgramID:      rec.ProgramID,
		ProgramName:    rec.ProgramName,
		DepartmentCode: rec.DepartmentCode,
		DepartmentName: rec.DepartmentName,
		Section:        string(rec.Section),
		FundType:       string(rec.FundType),
		FundCategory:   rec.FundType.Label(),
		FiscalYear:     int64(rec.FiscalYear),
		Amount:         new(big.Rat).SetFloat64(rec.Amount),
		Category:       rec.Category,
		Collection:     collection,
		CreatedTS:      time.Now(),
	}
	if rec.Positions != nil {
		row.Positions = bigquery.NullFloat64{Float64: *rec.Positions, Valid: true}
	}
	if rec.Ceiling != nil {
		row.Ceiling = bigquery.NullFloat64{Float64: *rec.Ceiling, Valid: true}
	}
	if rec.Notes != "" {
		row.Notes = bigquery.NullString{StringVal: rec.Notes, Valid: true}
	}
	if rec.LineNumber > 0 {
		row.LineNumber = bigquery.NullInt64{Int64: int64(rec.LineNumber), Valid: true}
	}
	return row
}

// RowsFromAllocations converts a whole collection for one parse run.
func RowsFromAllocations(records []domain.Allocation, documentID, parseRunID, collection string) []*AllocationRow {
	rows := make([]*AllocationRow, len(records))
	for i, rec := range records {
		rows[i] = RowFromAllocation(rec, documentID, parseRunID, collection)
	}
	return rows
}

// ToAllocation converts a warehouse row back into a domain record.
func (r *AllocationRow) ToAllocation() domain.Allocation {
	rec := domain.Allocation{
		ProgramID:      r.ProgramID,
		ProgramName:    r.ProgramName,
		DepartmentCode: r.DepartmentCode,
		DepartmentName: r.DepartmentName,
		Section:        domain.Section(r.Section),
		FundType:       domain.FundType(r.FundType),
		FiscalYear:     int(r.FiscalYear),
		Category:       r.Category,
	}
	if r.Amount != nil {
		rec.Amount, _ = r.Amount.Float64()
	}
	if r.Positions.Valid {
		v := r.Positions.Float64
		rec.Positions = &v
	}
	if r.Ceiling.Valid {
		v := r.Ceiling.Float64
		rec.Ceiling = &v
	}
	if r.Notes.Valid {
		rec.Notes = r.Notes.StringVal
	}
	if r.LineNumber.Valid {
		rec.LineNumber = int(r.LineNumber.Int64)
	}
	return rec
}
