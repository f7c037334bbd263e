// Copyright 2021 The rtcohort authors.
// All rights reserved.

package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"rtcohort/cohort"
	"rtcohort/dataset"
	"rtcohort/gnuplot"
	"rtcohort/summary"
)

const chartDateLayout = "2006-01-02"

// renderRtChart plots the focal country's Rt against the cohort median
// and the 10th-90th percentile ribbon.
func renderRtChart(table summary.Table, c *cohort.Cohort, term gnuplot.TermSetup) error {
	rows := make([][]string, 0, len(table))
	for _, r := range table {
		rows = append(rows, []string{
			r.Date.Format(chartDateLayout),
			formatValue(r.Focal),
			formatValue(r.Median),
			formatValue(r.P10),
			formatValue(r.P90),
		})
	}
	dp, err := gnuplot.WriteData([]string{"Date", "Focal", "Median", "P10", "P90"}, rows)
	if err != nil {
		return err
	}
	defer os.Remove(dp)

	return gnuplot.ExecTemplate(rtTmpl, struct {
		gnuplot.TermSetup
		Title    string
		Focal    string
		DataPath string
	}{term, fmt.Sprintf("Estimated Rt: %s vs. cohort", c.Name(c.Focal)), c.Name(c.Focal), dp})
}

// renderCasesChart plots the smoothed per-capita new-case trend for
// every cohort country (focal included) with at least minPopulation
// inhabitants.
func renderCasesChart(series map[string]*dataset.Series, c *cohort.Cohort,
	minPopulation float64, term gnuplot.TermSetup) error {
	var codes []string
	for _, code := range c.All() {
		if s, ok := series[code]; ok && s.Population >= minPopulation {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	if len(codes) == 0 {
		return fmt.Errorf("no cohort country with population >= %v", minPopulation)
	}

	smoothed := make(map[string][]float64, len(codes))
	numDays := 0
	for _, code := range codes {
		smoothed[code] = series[code].SmoothedCasesPerCapita(7)
		if n := len(smoothed[code]); n > numDays {
			numDays = n
		}
	}

	header := []string{"Date"}
	for _, code := range codes {
		header = append(header, c.Name(code))
	}

	start := series[codes[0]].Start
	rows := make([][]string, 0, numDays)
	for i := 0; i < numDays; i++ {
		row := []string{start.AddDate(0, 0, i).Format(chartDateLayout)}
		for _, code := range codes {
			if sm := smoothed[code]; i < len(sm) {
				row = append(row, formatValue(sm[i]))
			} else {
				row = append(row, "?")
			}
		}
		rows = append(rows, row)
	}

	dp, err := gnuplot.WriteData(header, rows)
	if err != nil {
		return err
	}
	defer os.Remove(dp)

	return gnuplot.ExecTemplate(casesTmpl, struct {
		gnuplot.TermSetup
		Title    string
		DataPath string
		NumLines int
	}{term, "New cases per 100k, 7-day average", dp, len(codes)})
}

// formatValue renders a number for a gnuplot data file, using the
// missing-value marker for NaN.
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "?"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
