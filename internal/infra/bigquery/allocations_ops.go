package bigquery

import (
	"context"
	"fmt"
	"math/big"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const allocationsTable = "allocations"

// InsertAllocations inserts a batch of AllocationRow into budget.allocations.
func InsertAllocations(ctx context.Context, rows []*AllocationRow) error {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return fmt.Errorf("InsertAllocations: bigquery client: %w", err)
	}
	defer client.Close()

	return InsertAllocationsWithClient(ctx, client, rows)
}

// InsertAllocationsWithClient inserts a batch of AllocationRow into
// budget.allocations using the provided BigQuery client.
func InsertAllocationsWithClient(ctx context.Context, client *bigquery.Client, rows []*AllocationRow) error {
	if len(rows) == 0 {
		return nil
	}

	table := client.DatasetInProject(projectID, datasetID).Table(allocationsTable)
	inserter := table.Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertAllocations: inserting rows: %w", err)
	}

	return nil
}

// QueryAllocationsByRun returns every allocation row of one parse run in
// document order.
func QueryAllocationsByRun(ctx context.Context, parseRunID string) ([]*AllocationRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("QueryAllocationsByRun: bigquery client: %w", err)
	}
	defer client.Close()

	return QueryAllocationsByRunWithClient(ctx, client, parseRunID)
}

// QueryAllocationsByRunWithClient returns every allocation row of one
// parse run using the provided BigQuery client.
func QueryAllocationsByRunWithClient(ctx context.Context, client *bigquery.Client, parseRunID string) ([]*AllocationRow, error) {
	q := client.Query(`
		SELECT
			allocation_id,
			document_id,
			parse_run_id,
			program_id,
			program_name,
			department_code,
			department_name,
			section,
			fund_type,
			fund_category,
			fiscal_year,
			amount,
			positions,
			ceiling,
			category,
			notes,
			line_number,
			collection,
			created_ts
		FROM budget.allocations
		WHERE parse_run_id = @parse_run_id
		ORDER BY line_number, created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "parse_run_id", Value: parseRunID},
	}

	return readAllocationRows(ctx, q, "QueryAllocationsByRun")
}

// QueryAllocationsByFiscalYear returns one collection's allocations for a
// fiscal year. Only rows from successful parse runs are included, so
// superseded reparses never leak into reports.
func QueryAllocationsByFiscalYear(ctx context.Context, fiscalYear int, collection string) ([]*AllocationRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("QueryAllocationsByFiscalYear: bigquery client: %w", err)
	}
	defer client.Close()

	return QueryAllocationsByFiscalYearWithClient(ctx, client, fiscalYear, collection)
}

// QueryAllocationsByFiscalYearWithClient returns one collection's
// allocations for a fiscal year using the provided BigQuery client.
func QueryAllocationsByFiscalYearWithClient(ctx context.Context, client *bigquery.Client, fiscalYear int, collection string) ([]*AllocationRow, error) {
	q := client.Query(`
		SELECT
			a.allocation_id,
			a.document_id,
			a.parse_run_id,
			a.program_id,
			a.program_name,
			a.department_code,
			a.department_name,
			a.section,
			a.fund_type,
			a.fund_category,
			a.fiscal_year,
			a.amount,
			a.positions,
			a.ceiling,
			a.category,
			a.notes,
			a.line_number,
			a.collection,
			a.created_ts
		FROM budget.allocations a
		INNER JOIN budget.parse_runs pr
		  ON a.parse_run_id = pr.parse_run_id
		WHERE a.fiscal_year = @fiscal_year
		  AND a.collection = @collection
		  AND pr.status = 'SUCCESS'
		ORDER BY a.line_number, a.created_ts
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "fiscal_year", Value: fiscalYear},
		{Name: "collection", Value: collection},
	}

	return readAllocationRows(ctx, q, "QueryAllocationsByFiscalYear")
}

func readAllocationRows(ctx context.Context, q *bigquery.Query, op string) ([]*AllocationRow, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}

	var rows []*AllocationRow
	for {
		var r AllocationRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}

// DepartmentTotal is one department's summed amount for a fiscal year.
type DepartmentTotal struct {
	DepartmentCode string   `bigquery:"department_code"`
	DepartmentName string   `bigquery:"department_name"`
	Total          *big.Rat `bigquery:"total"`
}

// QueryDepartmentTotals sums a collection's amounts per department for a
// fiscal year, largest first.
func QueryDepartmentTotals(ctx context.Context, fiscalYear int, collection string) ([]*DepartmentTotal, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("QueryDepartmentTotals: bigquery client: %w", err)
	}
	defer client.Close()

	return QueryDepartmentTotalsWithClient(ctx, client, fiscalYear, collection)
}

// QueryDepartmentTotalsWithClient sums a collection's amounts per
// department using the provided BigQuery client.
func QueryDepartmentTotalsWithClient(ctx context.Context, client *bigquery.Client, fiscalYear int, collection string) ([]*DepartmentTotal, error) {
	q := client.Query(`
		SELECT
			a.department_code,
			ANY_VALUE(a.department_name) AS department_name,
			SUM(a.amount) AS total
		FROM budget.allocations a
		INNER JOIN budget.parse_runs pr
		  ON a.parse_run_id = pr.parse_run_id
		WHERE a.fiscal_year = @fiscal_year
		  AND a.collection = @collection
		  AND pr.status = 'SUCCESS'
		GROUP BY a.department_code
		ORDER BY total DESC
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "fiscal_year", Value: fiscalYear},
		{Name: "collection", Value: collection},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryDepartmentTotals: query read: %w", err)
	}

	var rows []*DepartmentTotal
	for {
		var r DepartmentTotal
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryDepartmentTotals: iter next: %w", err)
		}
		rows = append(rows, &r)
	}

	return rows, nil
}
