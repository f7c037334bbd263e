// Copyright 2021 The rtcohort authors.
// All rights reserved.

// Package config loads the report's configuration constants.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

// Config holds every tunable used by the pipeline. Values come from
// built-in defaults, optionally overridden by a YAML file.
type Config struct {
	// StartDate is the first day of the analysis window.
	StartDate time.Time `mapstructure:"-"`

	// SerialIntervalMean and SerialIntervalStd parameterize the gamma
	// distribution used for the disease's serial interval, in days.
	SerialIntervalMean float64 `mapstructure:"serial_interval_mean"`
	SerialIntervalStd  float64 `mapstructure:"serial_interval_std"`

	// WindowDays is the length of the sliding estimation window.
	WindowDays int `mapstructure:"window_days"`

	// PriorMean and PriorStd parameterize the gamma prior on Rt.
	PriorMean float64 `mapstructure:"prior_mean"`
	PriorStd  float64 `mapstructure:"prior_std"`

	// FocalCountry is the display name of the country under study.
	FocalCountry string `mapstructure:"focal_country"`

	// CohortNames lists the display names of the reference countries.
	CohortNames []string `mapstructure:"cohort_names"`

	// MinPopulation excludes small countries from the new-cases chart.
	MinPopulation float64 `mapstructure:"min_population"`

	DatasetURL string `mapstructure:"dataset_url"`
	CachePath  string `mapstructure:"cache_path"`
	OutDir     string `mapstructure:"out_dir"`
}

// Load reads configuration from path (empty for defaults only).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("start_date", "2020-03-01")
	v.SetDefault("serial_interval_mean", 4.8)
	v.SetDefault("serial_interval_std", 3.0)
	v.SetDefault("window_days", 7)
	v.SetDefault("prior_mean", 5.0)
	v.SetDefault("prior_std", 5.0)
	v.SetDefault("focal_country", "Germany")
	v.SetDefault("cohort_names", []string{
		"Austria",
		"Belgium",
		"Denmark",
		"France",
		"Italy",
		"Netherlands",
		"Poland",
		"Portugal",
		"Spain",
		"Sweden",
		"Switzerland",
		"United Kingdom",
	})
	v.SetDefault("min_population", 1e6)
	v.SetDefault("dataset_url",
		"https://covid.ourworldindata.org/data/owid-covid-data.csv")
	v.SetDefault("cache_path", "owid-covid-data.csv")
	v.SetDefault("out_dir", ".")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed reading config %v: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed unmarshaling config: %w", err)
	}

	ds := v.GetString("start_date")
	start, err := time.Parse(dateLayout, ds)
	if err != nil {
		return nil, fmt.Errorf("bad start_date %q: %w", ds, err)
	}
	cfg.StartDate = start

	return &cfg, cfg.validate()
}

func (cfg *Config) validate() error {
	if cfg.SerialIntervalMean <= 0 || cfg.SerialIntervalStd <= 0 {
		return fmt.Errorf("serial interval mean %v and std %v must be positive",
			cfg.SerialIntervalMean, cfg.SerialIntervalStd)
	}
	if cfg.WindowDays < 1 {
		return fmt.Errorf("window_days %v must be at least 1", cfg.WindowDays)
	}
	if cfg.PriorMean <= 0 || cfg.PriorStd <= 0 {
		return fmt.Errorf("prior mean %v and std %v must be positive",
			cfg.PriorMean, cfg.PriorStd)
	}
	if cfg.FocalCountry == "" {
		return fmt.Errorf("focal_country must be set")
	}
	if len(cfg.CohortNames) == 0 {
		return fmt.Errorf("cohort_names must not be empty")
	}
	return nil
}
