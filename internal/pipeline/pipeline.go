package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/weather-feature-etl/internal/domain"
	"github.com/couchcryptid/weather-feature-etl/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw sensor messages from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawMessage, error)
}

// Transformer converts a raw sensor message into a normalized feature record.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawMessage) (domain.FeatureRecord, error)
}

// BatchLoader writes feature records to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.FeatureRecord) error
}

// Pipeline runs the live extract-transform-load loop for sensor readings.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int

	// lastObserved is the newest ObservedAt loaded per station. Only the Run
	// goroutine touches it.
	lastObserved map[string]time.Time
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,

		lastObserved: make(map[string]time.Time),
	}
}

// CheckReadiness returns nil once the pipeline has loaded at least one record.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not produced any features yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Source and sink outages back off from 200ms, doubling up to 5s.
	backoff := initialBackoff

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.ReadingsConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	loaded, ok := p.transformAndLoad(ctx, rawBatch, backoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// transformAndLoad normalizes each reading, loads the successes and commits
// offsets. Readings that fail normalization are committed and skipped; they
// are never retried. A reading observed before one already seen for its
// station is still loaded, but counted and logged. Returns the number of
// loaded records and false if the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawMessage, backoff *time.Duration) (int, bool) {
	outBatch := make([]domain.FeatureRecord, 0, len(rawBatch))
	successfulRaws := make([]domain.RawMessage, 0, len(rawBatch))
	newest := make(map[string]time.Time)

	for _, raw := range rawBatch {
		rec, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			reason := rejectReason(err)
			p.logger.Warn("reading rejected, skipping",
				"error", err,
				"reason", reason,
				"station_id", string(raw.Key),
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.WithLabelValues(reason).Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		p.trackObservation(rec, newest)
		outBatch = append(outBatch, rec)
		successfulRaws = append(successfulRaws, raw)
	}

	if len(outBatch) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(outBatch))
		return 0, p.backoffOrStop(ctx, backoff)
	}

	p.metrics.FeaturesProduced.Add(float64(len(outBatch)))
	for station, at := range newest {
		if at.After(p.lastObserved[station]) {
			p.lastObserved[station] = at
		}
	}

	for _, raw := range successfulRaws {
		p.commitOffset(ctx, raw)
	}

	return len(outBatch), true
}

// trackObservation flags a record observed before the newest reading seen for
// its station, either loaded earlier or pending in this batch, and advances
// the batch's per-station high-water mark.
func (p *Pipeline) trackObservation(rec domain.FeatureRecord, newest map[string]time.Time) {
	if rec.StationID == "" || rec.ObservedAt.IsZero() {
		return
	}
	last := p.lastObserved[rec.StationID]
	if pending := newest[rec.StationID]; pending.After(last) {
		last = pending
	}
	if rec.ObservedAt.Before(last) {
		p.metrics.ReadingsOutOfOrder.Inc()
		p.logger.Warn("reading older than last seen for station",
			"station_id", rec.StationID,
			"observed_at", rec.ObservedAt,
			"last_observed_at", last,
		)
		return
	}
	newest[rec.StationID] = rec.ObservedAt
}

// rejectReason labels a normalization failure for the transform error metric.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedReading):
		return "malformed"
	case errors.Is(err, domain.ErrInvalidData):
		return "invalid_reading"
	default:
		return "unknown"
	}
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the context ended first.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawMessage) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
