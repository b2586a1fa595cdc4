package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/weather-feature-etl/internal/domain"
)

// SensorTransformer implements Transformer by normalizing live readings with
// a fixed set of scaling divisors.
type SensorTransformer struct {
	scaling domain.Scaling
	logger  *slog.Logger
}

// NewTransformer creates a SensorTransformer.
func NewTransformer(scaling domain.Scaling, logger *slog.Logger) *SensorTransformer {
	return &SensorTransformer{
		scaling: scaling,
		logger:  logger,
	}
}

func (t *SensorTransformer) Transform(_ context.Context, raw domain.RawMessage) (domain.FeatureRecord, error) {
	reading, err := domain.ParseReading(raw)
	if err != nil {
		return domain.FeatureRecord{}, err
	}
	return domain.NewFeatureRecord(raw, reading, t.scaling)
}

// Normalize runs the point normalizer on an already-decoded reading.
func (t *SensorTransformer) Normalize(reading domain.Reading) (domain.Features, error) {
	f, err := domain.NormalizePoint(reading, t.scaling)
	if err != nil {
		t.logger.Debug("reading rejected", "error", err)
	}
	return f, err
}
