// Copyright 2021 The rtcohort authors.
// All rights reserved.

// Package summary joins per-country Rt estimates by calendar date and
// reduces the cohort into daily order statistics.
package summary

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"rtcohort/rt"
)

// Row is one day of the aggregated table. N is the number of cohort
// members (focal excluded) that contributed to the statistics.
type Row struct {
	Date   time.Time
	Focal  float64
	Median float64
	P10    float64
	P90    float64
	N      int
}

// Table is the day-ordered aggregate of the whole cohort.
type Table []Row

// Build joins estimates by date and computes the cohort median and
// 10th/90th percentiles for every day the focal country has an
// estimate. The focal country's own value never enters the statistics.
// Countries are joined by explicit date, never by position, so series
// with different start dates or lengths can't be misaligned; a day
// where only part of the cohort has data is flagged through Row.N and a
// warning rather than treated as complete. Days with no cohort data at
// all are dropped.
func Build(focal string, estimates map[string]rt.Estimate, logger *zap.Logger) (Table, error) {
	fe, ok := estimates[focal]
	if !ok {
		return nil, fmt.Errorf("no estimate for focal country %v", focal)
	}

	// Re-index every cohort series by date.
	members := make([]string, 0, len(estimates))
	byDate := make(map[string]map[time.Time]float64, len(estimates))
	for code, est := range estimates {
		if code == focal {
			continue
		}
		members = append(members, code)
		m := make(map[time.Time]float64, len(est))
		for _, p := range est {
			m[p.Date] = p.Value
		}
		byDate[code] = m
	}
	sort.Strings(members)

	var table Table
	partial := 0
	for _, p := range fe {
		vals := make([]float64, 0, len(members))
		for _, code := range members {
			if v, ok := byDate[code][p.Date]; ok {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		if len(vals) < len(members) {
			partial++
		}
		sort.Float64s(vals)
		table = append(table, Row{
			Date:   p.Date,
			Focal:  p.Value,
			Median: Quantile(0.5, vals),
			P10:    Quantile(0.1, vals),
			P90:    Quantile(0.9, vals),
			N:      len(vals),
		})
	}

	if partial > 0 {
		logger.Warn("Some days had estimates from only part of the cohort",
			zap.Int("days", partial), zap.Int("cohortSize", len(members)))
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("no dates shared between %v and the cohort", focal)
	}
	return table, nil
}

// Quantile returns the p-th quantile of vals, which must be sorted in
// ascending order and non-empty, interpolating linearly between order
// statistics. Monotonic in p, so p10 <= median <= p90 by construction.
func Quantile(p float64, vals []float64) float64 {
	if p <= 0 {
		return vals[0]
	}
	if p >= 1 {
		return vals[len(vals)-1]
	}
	h := p * float64(len(vals)-1)
	lo := int(h)
	if lo == len(vals)-1 {
		return vals[lo]
	}
	return vals[lo] + (h-float64(lo))*(vals[lo+1]-vals[lo])
}
