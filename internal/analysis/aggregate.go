// Package analysis computes aggregations, summary statistics and
// budget-to-budget comparisons over allocation collections. Everything
// here is pure: functions take a collection and return derived values
// without touching the records.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dkagawa/budgetline/internal/domain"
)

// GroupTotal is one row of an aggregation: the group's dimension values
// in the order they were requested, the summed amount and its share of
// the collection total in percent.
type GroupTotal struct {
	Keys   []string `json:"keys"`
	Amount float64  `json:"amount"`
	Pct    float64  `json:"pct_of_total"`
}

// Key joins the dimension values for map lookups and display.
func (g GroupTotal) Key() string {
	return strings.Join(g.Keys, " / ")
}

// GroupSum sums amounts over the given dimensions, which name export
// columns such as "category", "department_code" or "fund_category". An
// unknown column is a configuration error. Rows come back sorted by
// their dimension values; shares are zero when the collection total is
// zero.
func GroupSum(records []domain.Allocation, dims ...string) ([]GroupTotal, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("group sum: no dimensions given")
	}

	totals := make(map[string]*GroupTotal)
	var grand float64
	for _, rec := range records {
		keys := make([]string, len(dims))
		for i, dim := range dims {
			v, err := rec.Field(dim)
			if err != nil {
				return nil, fmt.Errorf("group sum: %w", err)
			}
			keys[i] = v
		}
		id := strings.Join(keys, "\x1f")
		gt, ok := totals[id]
		if !ok {
			gt = &GroupTotal{Keys: keys}
			totals[id] = gt
		}
		gt.Amount += rec.Amount
		grand += rec.Amount
	}

	out := make([]GroupTotal, 0, len(totals))
	for _, gt := range totals {
		if grand != 0 {
			gt.Pct = gt.Amount / grand * 100
		}
		out = append(out, *gt)
	}
	sort.Slice(out, func(i, j int) bool {
		for k := range out[i].Keys {
			if out[i].Keys[k] != out[j].Keys[k] {
				return out[i].Keys[k] < out[j].Keys[k]
			}
		}
		return false
	})
	return out, nil
}

// GroupSumBy is GroupSum over a single dimension, returned as a lookup
// map from dimension value to total.
func GroupSumBy(records []domain.Allocation, dim string) (map[string]float64, error) {
	rows, err := GroupSum(records, dim)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.Keys[0]] = r.Amount
	}
	return out, nil
}
