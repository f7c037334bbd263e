// Copyright 2021 The rtcohort authors.
// All rights reserved.

// rtcohort builds a one-shot report comparing one country's estimated
// effective reproduction number (Rt) against a cohort of peers: a chart
// of the focal Rt over the cohort's median and 10th-90th percentile
// band, a chart of smoothed per-capita new cases, and a summary CSV.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rtcohort/cohort"
	"rtcohort/config"
	"rtcohort/dataset"
	"rtcohort/filewriter"
	"rtcohort/gnuplot"
	"rtcohort/rt"
	"rtcohort/summary"
)

const summaryFile = "rt_summary.csv"

func main() {
	var (
		cfgPath string
		refresh bool
		outDir  string
		noPlot  bool
	)

	cmd := &cobra.Command{
		Use:           "rtcohort",
		Short:         "Compare a country's estimated Rt against a cohort of peers",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfgPath, refresh, outDir, noPlot)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "Path to YAML config file (defaults built in)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-download the dataset even if a cached copy exists")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory (overrides config)")
	cmd.Flags().BoolVar(&noPlot, "no-plot", false, "Write the summary table but skip the charts")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string, refresh bool, outDir string, noPlot bool) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed loading config: %w", err)
	}
	if outDir != "" {
		cfg.OutDir = outDir
	}
	if err := ensureOutDir(cfg.OutDir); err != nil {
		return err
	}

	c, err := cohort.Resolve(cfg.CohortNames, cfg.FocalCountry, logger)
	if err != nil {
		return fmt.Errorf("failed resolving cohort: %w", err)
	}
	logger.Info("Resolved cohort",
		zap.String("focal", c.Focal), zap.Int("members", len(c.Codes)))

	r, err := dataset.Fetch(ctx, cfg.DatasetURL, cfg.CachePath, refresh, logger)
	if err != nil {
		return err
	}
	series, err := dataset.Parse(r, cfg.StartDate, c.All())
	r.Close()
	if err != nil {
		return fmt.Errorf("failed parsing dataset: %w", err)
	}
	if _, ok := series[c.Focal]; !ok {
		return fmt.Errorf("dataset has no rows for focal country %v", c.Name(c.Focal))
	}

	est, err := rt.NewEstimator(rt.Params{
		SerialIntervalMean: cfg.SerialIntervalMean,
		SerialIntervalStd:  cfg.SerialIntervalStd,
		WindowDays:         cfg.WindowDays,
		PriorMean:          cfg.PriorMean,
		PriorStd:           cfg.PriorStd,
	})
	if err != nil {
		return err
	}

	res, err := rt.EstimateAll(ctx, est, series, logger)
	if err != nil {
		return err
	}
	if err := focalError(c, res); err != nil {
		return err
	}
	logger.Info("Estimated cohort",
		zap.Int("succeeded", len(res.Estimates)), zap.Int("failed", len(res.Failures)))

	table, err := summary.Build(c.Focal, res.Estimates, logger)
	if err != nil {
		return err
	}

	sp := filepath.Join(cfg.OutDir, summaryFile)
	if err := writeSummary(sp, table); err != nil {
		return fmt.Errorf("failed writing %v: %w", sp, err)
	}
	logger.Info("Wrote summary table", zap.String("path", sp), zap.Int("rows", len(table)))

	if noPlot {
		return nil
	}
	if err := renderRtChart(table, c,
		gnuplot.PNGTerm(filepath.Join(cfg.OutDir, "rt.png"), 1200, 700)); err != nil {
		return fmt.Errorf("failed rendering Rt chart: %w", err)
	}
	if err := renderCasesChart(series, c, cfg.MinPopulation,
		gnuplot.PNGTerm(filepath.Join(cfg.OutDir, "cases.png"), 1200, 700)); err != nil {
		return fmt.Errorf("failed rendering cases chart: %w", err)
	}
	return nil
}

// ensureOutDir creates the output directory so that the writers below
// never surface a raw temp-file error for a missing directory.
func ensureOutDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed creating output dir %v: %w", dir, err)
	}
	return nil
}

// focalError surfaces a focal-country estimation failure. There is no
// recovery path: the whole report is about that country, so the run
// aborts naming it and the underlying cause.
func focalError(c *cohort.Cohort, res *rt.Result) error {
	if ferr, ok := res.Failures[c.Focal]; ok {
		return fmt.Errorf("can't estimate Rt for focal country %v: %w", c.Name(c.Focal), ferr)
	}
	return nil
}

// writeSummary persists the aggregated table. The header and date
// format are a stable interface for downstream consumers.
func writeSummary(path string, table summary.Table) error {
	fw, err := filewriter.New(path)
	if err != nil {
		return err
	}
	fw.Record(",", "date", "rt_focal", "rt_cohort_median", "rt_cohort_p10", "rt_cohort_p90")
	for _, r := range table {
		fw.Record(",",
			r.Date.Format("2006-01-02"),
			formatValue(r.Focal),
			formatValue(r.Median),
			formatValue(r.P10),
			formatValue(r.P90))
	}
	return fw.Close()
}
