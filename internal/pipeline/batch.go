package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-feature-etl/internal/domain"
	"github.com/couchcryptid/weather-feature-etl/internal/observability"
	"github.com/google/uuid"
)

// TableReader loads observation rows and their header from a source.
type TableReader interface {
	ReadRows(ctx context.Context, source string) ([]*domain.Row, []string, error)
}

// TableWriter persists rows under the given header to a destination.
type TableWriter interface {
	WriteRows(ctx context.Context, destination string, header []string, rows []*domain.Row) error
}

// BatchNormalizer reads a historical observation table, normalizes it and
// writes the augmented table back out.
type BatchNormalizer struct {
	reader  TableReader
	writer  TableWriter
	scaling domain.Scaling
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBatchNormalizer creates a BatchNormalizer using the given scaling divisors.
func NewBatchNormalizer(r TableReader, w TableWriter, scaling domain.Scaling, logger *slog.Logger, metrics *observability.Metrics) *BatchNormalizer {
	return &BatchNormalizer{
		reader:  r,
		writer:  w,
		scaling: scaling,
		logger:  logger,
		metrics: metrics,
	}
}

// Run normalizes source into destination. The returned error wraps one of
// domain.ErrSourceUnavailable, domain.ErrInvalidData or
// domain.ErrDestinationUnavailable. Nothing is written unless the whole batch
// normalizes. Failures are logged at debug level only; reporting them is left
// to the caller.
func (b *BatchNormalizer) Run(ctx context.Context, source, destination string) error {
	start := time.Now()
	logger := b.logger.With("run_id", uuid.NewString(), "source", source, "destination", destination)

	rows, err := b.run(ctx, logger, source, destination)
	outcome := "success"
	if err != nil {
		outcome = domain.KindOf(err).String()
		// The caller reports the failure to the user; this record is for tracing only.
		logger.Debug("batch normalization failed", "error", err, "kind", outcome)
	} else {
		b.metrics.RowsNormalized.Add(float64(rows))
		logger.Info("batch normalization complete", "rows", rows, "duration", time.Since(start))
	}
	b.metrics.BatchRuns.WithLabelValues(outcome).Inc()
	b.metrics.BatchDuration.Observe(time.Since(start).Seconds())
	return err
}

func (b *BatchNormalizer) run(ctx context.Context, logger *slog.Logger, source, destination string) (int, error) {
	rows, header, err := b.reader.ReadRows(ctx, source)
	if err != nil {
		return 0, err
	}
	logger.Debug("source loaded", "rows", len(rows), "columns", len(header))

	normalized, err := domain.NormalizeBatch(rows, b.scaling)
	if err != nil {
		return 0, err
	}

	if err := b.writer.WriteRows(ctx, destination, domain.Header(normalized), normalized); err != nil {
		return 0, err
	}
	return len(normalized), nil
}
