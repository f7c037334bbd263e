// Copyright 2021 The rtcohort authors.
// All rights reserved.

package main

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rtcohort/cohort"
	"rtcohort/dataset"
	"rtcohort/rt"
	"rtcohort/summary"
)

var testStart = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

func testSeries(code string, vals []float64) *dataset.Series {
	return &dataset.Series{Code: code, Start: testStart, Cases: vals, Population: 5e6}
}

func testEstimator(t *testing.T) *rt.Estimator {
	t.Helper()
	e, err := rt.NewEstimator(rt.Params{
		SerialIntervalMean: 4.8,
		SerialIntervalStd:  3.0,
		WindowDays:         7,
		PriorMean:          5,
		PriorStd:           5,
	})
	require.NoError(t, err)
	return e
}

// Rising focal incidence against a flat cohort member: the focal Rt
// must sit above 1 while the cohort median tracks the sole member.
func TestPipeline_RisingVersusConstant(t *testing.T) {
	rising := make([]float64, 60)
	flat := make([]float64, 60)
	for i := range rising {
		rising[i] = 10 + 2*float64(i)
		flat[i] = 10
	}
	series := map[string]*dataset.Series{
		"AAA": testSeries("AAA", rising),
		"BBB": testSeries("BBB", flat),
	}

	res, err := rt.EstimateAll(context.Background(), testEstimator(t), series, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, res.Estimates, 2)

	table, err := summary.Build("AAA", res.Estimates, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, table, 60-7)

	last := table[len(table)-1]
	assert.Greater(t, last.Focal, 1.0)
	assert.InDelta(t, 1.0, last.Median, 0.1)

	// With a single cohort member the band collapses onto the median.
	bbb := res.Estimates["BBB"]
	assert.Equal(t, bbb[len(bbb)-1].Value, last.Median)
	assert.Equal(t, last.Median, last.P10)
	assert.Equal(t, last.Median, last.P90)
}

// An all-zero cohort member is dropped without failing the run or
// changing the output row count.
func TestPipeline_AllZeroMemberDropped(t *testing.T) {
	flat := make([]float64, 60)
	zeros := make([]float64, 60)
	for i := range flat {
		flat[i] = 10
	}
	series := map[string]*dataset.Series{
		"AAA": testSeries("AAA", flat),
		"BBB": testSeries("BBB", append([]float64(nil), flat...)),
		"CCC": testSeries("CCC", zeros),
	}

	res, err := rt.EstimateAll(context.Background(), testEstimator(t), series, zap.NewNop())
	require.NoError(t, err)
	assert.ErrorIs(t, res.Failures["CCC"], rt.ErrZeroIncidence)

	table, err := summary.Build("AAA", res.Estimates, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, table, 60-7)
}

func TestWriteSummary(t *testing.T) {
	table := summary.Table{
		{Date: testStart, Focal: 1.2345, Median: 1.1, P10: 0.9, P90: 1.3, N: 3},
		{Date: testStart.AddDate(0, 0, 1), Focal: 1.2, Median: 1.05, P10: 0.85, P90: 1.25, N: 3},
	}

	p := filepath.Join(t.TempDir(), "rt_summary.csv")
	require.NoError(t, writeSummary(p, table))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,rt_focal,rt_cohort_median,rt_cohort_p10,rt_cohort_p90", lines[0])
	assert.Equal(t, "2020-03-01,1.2345,1.1000,0.9000,1.3000", lines[1])
}

// Identical input must produce byte-identical output.
func TestWriteSummary_Idempotent(t *testing.T) {
	table := summary.Table{
		{Date: testStart, Focal: 1.2, Median: 1.1, P10: 0.9, P90: 1.3, N: 2},
	}
	dir := t.TempDir()

	p1 := filepath.Join(dir, "a.csv")
	p2 := filepath.Join(dir, "b.csv")
	require.NoError(t, writeSummary(p1, table))
	require.NoError(t, writeSummary(p2, table))

	b1, err := os.ReadFile(p1)
	require.NoError(t, err)
	b2, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestEnsureOutDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results", "nested")
	require.NoError(t, ensureOutDir(dir))

	// Writers must work in the fresh directory right away.
	require.NoError(t, writeSummary(filepath.Join(dir, "rt_summary.csv"), summary.Table{
		{Date: testStart, Focal: 1.2, Median: 1.1, P10: 0.9, P90: 1.3, N: 2},
	}))

	// Idempotent on an existing directory.
	assert.NoError(t, ensureOutDir(dir))
}

func TestEnsureOutDir_Error(t *testing.T) {
	// A regular file in the way must surface a clear diagnostic.
	f := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0644))

	err := ensureOutDir(filepath.Join(f, "sub"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output dir")
}

// A focal country whose series can't be estimated aborts the run with
// the country named and the underlying cause preserved.
func TestFocalError(t *testing.T) {
	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 10
	}
	series := map[string]*dataset.Series{
		"DEU": testSeries("DEU", []float64{10, 10, 10}), // too short
		"AUT": testSeries("AUT", flat),
	}

	res, err := rt.EstimateAll(context.Background(), testEstimator(t), series, zap.NewNop())
	require.NoError(t, err)

	c := &cohort.Cohort{
		Focal: "DEU",
		Codes: []string{"AUT"},
		Names: map[string]string{"DEU": "Germany", "AUT": "Austria"},
	}
	err = focalError(c, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Germany")
	assert.ErrorIs(t, err, rt.ErrShortSeries)
}

func TestFocalError_FocalSucceeded(t *testing.T) {
	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 10
	}
	series := map[string]*dataset.Series{
		"DEU": testSeries("DEU", flat),
		"AUT": testSeries("AUT", []float64{10, 10, 10}), // member failure is fine
	}

	res, err := rt.EstimateAll(context.Background(), testEstimator(t), series, zap.NewNop())
	require.NoError(t, err)

	c := &cohort.Cohort{
		Focal: "DEU",
		Codes: []string{"AUT"},
		Names: map[string]string{"DEU": "Germany", "AUT": "Austria"},
	}
	assert.NoError(t, focalError(c, res))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1.5000", formatValue(1.5))
	assert.Equal(t, "?", formatValue(math.NaN()))
}
