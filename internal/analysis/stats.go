package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/dkagawa/budgetline/internal/domain"
)

// Stats summarizes the amount distribution of a collection.
type Stats struct {
	Count   int     `json:"count"`
	Total   float64 `json:"total"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	StdDev  float64 `json:"std_dev"`
	Zero    int     `json:"zero_amounts"`
	NonZero int     `json:"non_zero_amounts"`
}

// Summarize computes distribution statistics over the amounts of a
// collection. The standard deviation is the sample deviation and zero
// for fewer than two records. An empty collection yields the zero
// Stats.
func Summarize(records []domain.Allocation) Stats {
	s := Stats{Count: len(records)}
	if len(records) == 0 {
		return s
	}

	amounts := make([]float64, len(records))
	s.Min = records[0].Amount
	s.Max = records[0].Amount
	for i, rec := range records {
		amounts[i] = rec.Amount
		s.Total += rec.Amount
		if rec.Amount < s.Min {
			s.Min = rec.Amount
		}
		if rec.Amount > s.Max {
			s.Max = rec.Amount
		}
		if rec.Amount == 0 {
			s.Zero++
		} else {
			s.NonZero++
		}
	}
	s.Mean = s.Total / float64(len(amounts))

	sort.Float64s(amounts)
	mid := len(amounts) / 2
	if len(amounts)%2 == 0 {
		s.Median = (amounts[mid-1] + amounts[mid]) / 2
	} else {
		s.Median = amounts[mid]
	}

	if len(amounts) > 1 {
		var ss float64
		for _, a := range amounts {
			d := a - s.Mean
			ss += d * d
		}
		s.StdDev = math.Sqrt(ss / float64(len(amounts)-1))
	}
	return s
}

// SummarizeBy computes per-group statistics over a single dimension.
func SummarizeBy(records []domain.Allocation, dim string) (map[string]Stats, error) {
	groups := make(map[string][]domain.Allocation)
	for _, rec := range records {
		v, err := rec.Field(dim)
		if err != nil {
			return nil, fmt.Errorf("summarize by: %w", err)
		}
		groups[v] = append(groups[v], rec)
	}
	out := make(map[string]Stats, len(groups))
	for v, recs := range groups {
		out[v] = Summarize(recs)
	}
	return out, nil
}
