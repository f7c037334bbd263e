// Copyright 2021 The rtcohort authors.
// All rights reserved.

// Package dataset downloads and parses the daily per-country case data.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Series holds one country's daily counts over the analysis window.
// Days with no reported value are NaN. Dates are contiguous: index i
// corresponds to Start plus i days.
type Series struct {
	Code       string // ISO3 code, e.g. "DEU"
	Start      time.Time
	Cases      []float64
	Deaths     []float64
	Population float64
}

// Date returns the calendar date of index i.
func (s *Series) Date(i int) time.Time {
	return s.Start.AddDate(0, 0, i)
}

// SmoothedCasesPerCapita returns a numDays-day trailing mean of daily
// cases per 100k inhabitants. Missing days are skipped within each
// window; a day whose whole window is missing stays NaN.
func (s *Series) SmoothedCasesPerCapita(numDays int) []float64 {
	out := make([]float64, len(s.Cases))
	for i := range s.Cases {
		sum, n := 0.0, 0
		for j := 0; j < numDays && i-j >= 0; j++ {
			if v := s.Cases[i-j]; !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 || s.Population <= 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(n) / s.Population * 1e5
		}
	}
	return out
}

// Fetch returns a reader for the dataset at url, preferring a cached
// copy at cachePath unless refresh is set. A failed download falls back
// to the cache if one exists; otherwise it is fatal to the run.
func Fetch(ctx context.Context, url, cachePath string, refresh bool, logger *zap.Logger) (io.ReadCloser, error) {
	if !refresh {
		if f, err := os.Open(cachePath); err == nil {
			logger.Info("Using cached dataset", zap.String("path", cachePath))
			return f, nil
		}
	}

	if err := download(ctx, url, cachePath); err != nil {
		if f, ferr := os.Open(cachePath); ferr == nil {
			logger.Warn("Download failed; falling back to cached dataset",
				zap.String("path", cachePath), zap.Error(err))
			return f, nil
		}
		return nil, fmt.Errorf("failed downloading dataset: %w", err)
	}
	logger.Info("Downloaded dataset", zap.String("url", url))
	return os.Open(cachePath)
}

// download saves the body at url to path via a temp file so that an
// interrupted transfer never clobbers an existing cache.
func download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %v", resp.Status)
	}

	// Same filesystem as path so the rename stays atomic.
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Parse reads CSV data with at least the columns iso_code, date,
// new_cases, new_deaths, and population, keeping rows for the supplied
// ISO3 codes with dates on or after start. Each country's values are
// laid out on a contiguous daily axis from start to the country's last
// reported date; unreported days and negative revisions become NaN.
func Parse(r io.Reader, start time.Time, codes []string) (map[string]*Series, error) {
	keep := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		keep[c] = struct{}{}
	}

	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	// Find the positions of columns that we care about.
	cols, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed reading header: %w", err)
	}
	var isoCol, dateCol, casesCol, deathsCol, popCol int
	for name, dst := range map[string]*int{
		"iso_code":   &isoCol,
		"date":       &dateCol,
		"new_cases":  &casesCol,
		"new_deaths": &deathsCol,
		"population": &popCol,
	} {
		found := false
		for i, s := range cols {
			if s == name || s == "\ufeff"+name { // sigh
				*dst = i
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	type day struct{ cases, deaths float64 }
	days := make(map[string]map[time.Time]day)
	pops := make(map[string]float64)

	for {
		vals, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		code := vals[isoCol]
		if _, ok := keep[code]; !ok {
			continue
		}

		date, err := time.Parse(dateLayout, vals[dateCol])
		if err != nil {
			return nil, fmt.Errorf("failed parsing date %q: %w", vals[dateCol], err)
		}
		if date.Before(start) {
			continue
		}

		d := day{parseCount(vals[casesCol]), parseCount(vals[deathsCol])}
		m := days[code]
		if m == nil {
			m = make(map[time.Time]day)
			days[code] = m
		}
		m[date] = d

		if s := vals[popCol]; s != "" {
			if p, err := strconv.ParseFloat(s, 64); err == nil {
				pops[code] = p
			}
		}
	}

	series := make(map[string]*Series, len(days))
	for code, m := range days {
		dates := make([]time.Time, 0, len(m))
		for d := range m {
			dates = append(dates, d)
		}
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

		last := dates[len(dates)-1]
		n := int(last.Sub(start)/(24*time.Hour)) + 1
		s := &Series{
			Code:       code,
			Start:      start,
			Cases:      make([]float64, n),
			Deaths:     make([]float64, n),
			Population: pops[code],
		}
		for i := 0; i < n; i++ {
			if d, ok := m[start.AddDate(0, 0, i)]; ok {
				s.Cases[i] = d.cases
				s.Deaths[i] = d.deaths
			} else {
				s.Cases[i] = math.NaN()
				s.Deaths[i] = math.NaN()
			}
		}
		series[code] = s
	}

	return series, nil
}

// parseCount interprets a daily count cell. Empty cells and negative
// revision artifacts both count as missing.
func parseCount(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return math.NaN()
	}
	return v
}
