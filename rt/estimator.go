// Copyright 2021 The rtcohort authors.
// All rights reserved.

// Package rt estimates the time-varying effective reproduction number
// of an epidemic from a daily incidence series.
//
// The method follows the parametric sliding-window approach of Cori et
// al. (2013): new infections on day t are attributed to earlier days
// through a discretized gamma serial-interval distribution, and Rt over
// a trailing window gets a gamma posterior whose median is reported.
package rt

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"rtcohort/dataset"
)

var (
	// ErrShortSeries means the incidence series has fewer observations
	// than the estimation window needs.
	ErrShortSeries = errors.New("series shorter than estimation window")

	// ErrMissingData means the incidence series has unreported days
	// inside the analysis window.
	ErrMissingData = errors.New("series has missing days")

	// ErrZeroIncidence means the series never reports a case, so the
	// likelihood carries no information about Rt.
	ErrZeroIncidence = errors.New("series has zero total incidence")
)

// maxSerialIntervalDays caps the discretized serial interval; gamma
// mass beyond this point is negligible for any plausible parameters.
const maxSerialIntervalDays = 30

// Params configures an Estimator.
type Params struct {
	SerialIntervalMean float64 // days
	SerialIntervalStd  float64 // days
	WindowDays         int
	PriorMean          float64
	PriorStd           float64
}

// Point is one day's Rt estimate.
type Point struct {
	Date  time.Time
	Value float64 // posterior median
}

// Estimate is an ordered daily sequence of Rt point estimates.
type Estimate []Point

// Estimator computes per-country Rt estimate series. It is stateless
// after construction and safe for concurrent use.
type Estimator struct {
	params  Params
	weights []float64 // weights[k] = probability of a k-day serial interval, k >= 1
}

// NewEstimator validates p and precomputes the discretized serial
// interval.
func NewEstimator(p Params) (*Estimator, error) {
	if p.SerialIntervalMean <= 0 || p.SerialIntervalStd <= 0 {
		return nil, fmt.Errorf("serial interval mean %v and std %v must be positive",
			p.SerialIntervalMean, p.SerialIntervalStd)
	}
	if p.WindowDays < 1 {
		return nil, fmt.Errorf("window of %v days is too short", p.WindowDays)
	}
	if p.PriorMean <= 0 || p.PriorStd <= 0 {
		return nil, fmt.Errorf("prior mean %v and std %v must be positive",
			p.PriorMean, p.PriorStd)
	}
	return &Estimator{params: p, weights: discretizeSerialInterval(p.SerialIntervalMean, p.SerialIntervalStd)}, nil
}

// discretizeSerialInterval turns the gamma serial-interval distribution
// into per-day probabilities w(1..n) with w normalized to sum to 1.
// Same-day transmission (k = 0) is excluded.
func discretizeSerialInterval(mean, std float64) []float64 {
	// Gamma with the requested mean and variance; Beta is the rate.
	g := distuv.Gamma{Alpha: mean * mean / (std * std), Beta: mean / (std * std)}

	w := make([]float64, 0, maxSerialIntervalDays)
	prev := g.CDF(0)
	for k := 1; k <= maxSerialIntervalDays; k++ {
		cur := g.CDF(float64(k))
		w = append(w, cur-prev)
		prev = cur
		if 1-cur < 1e-4 {
			break
		}
	}
	floats.Scale(1/floats.Sum(w), w)
	return w
}

// MinSeriesLength returns the shortest incidence series that yields at
// least one estimate.
func (e *Estimator) MinSeriesLength() int {
	return e.params.WindowDays + 1
}

// Estimate computes one Rt point estimate per eligible day of s. The
// first eligible day is s.Start plus WindowDays, so the result always
// has len(s.Cases) - WindowDays entries. The error wraps ErrShortSeries,
// ErrMissingData, or ErrZeroIncidence when s can't be estimated; the
// caller decides whether that is fatal.
func (e *Estimator) Estimate(s *dataset.Series) (Estimate, error) {
	inc := s.Cases
	if len(inc) < e.MinSeriesLength() {
		return nil, fmt.Errorf("%v: %w (have %v days, need %v)",
			s.Code, ErrShortSeries, len(inc), e.MinSeriesLength())
	}
	for i, v := range inc {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("%v: %w (first gap on %v)",
				s.Code, ErrMissingData, s.Date(i).Format("2006-01-02"))
		}
	}
	if floats.Sum(inc) == 0 {
		return nil, fmt.Errorf("%v: %w", s.Code, ErrZeroIncidence)
	}

	// Infection pressure: lambda[t] = sum_k inc[t-k] * w(k).
	lambda := make([]float64, len(inc))
	for t := 1; t < len(inc); t++ {
		for k := 1; k <= t && k <= len(e.weights); k++ {
			lambda[t] += inc[t-k] * e.weights[k-1]
		}
	}

	// Gamma prior on Rt: shape a, rate b.
	a := e.params.PriorMean * e.params.PriorMean / (e.params.PriorStd * e.params.PriorStd)
	b := e.params.PriorMean / (e.params.PriorStd * e.params.PriorStd)

	win := e.params.WindowDays
	est := make(Estimate, 0, len(inc)-win)
	for t := win; t < len(inc); t++ {
		shape, rate := a, b
		for u := t - win + 1; u <= t; u++ {
			shape += inc[u]
			rate += lambda[u]
		}
		post := distuv.Gamma{Alpha: shape, Beta: rate}
		est = append(est, Point{Date: s.Date(t), Value: post.Quantile(0.5)})
	}
	return est, nil
}
