// Command normalize turns the configured hourly observation CSV into the
// normalized, horizon-labelled feature table used for model training.
//
// Paths and scaling divisors come from ETL_-prefixed environment variables or
// the YAML file named by ETL_CONFIG. Failures are reported with a single
// message; the process still exits 0 for data and file errors.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/weather-feature-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/weather-feature-etl/internal/config"
	"github.com/couchcryptid/weather-feature-etl/internal/domain"
	"github.com/couchcryptid/weather-feature-etl/internal/observability"
	"github.com/couchcryptid/weather-feature-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	store := csvfile.Store{}
	normalizer := pipeline.NewBatchNormalizer(store, store, cfg.Scaling(), logger, metrics)

	if err := normalizer.Run(context.Background(), cfg.SourcePath, cfg.DestinationPath); err != nil {
		fmt.Fprintf(os.Stderr, "could not normalize data: %s: %v\n", domain.KindOf(err), err)
	}
}
