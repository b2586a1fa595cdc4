package domain

import (
	"context"
	"time"
)

// Reading keys produced by the live station poll.
const (
	ReadingTemperature = "temperature"
	ReadingDewPoint    = "dewpoint"
	ReadingHumidity    = "humidity"
	ReadingPressure    = "pressure"
	ReadingLuminosity  = "luminosity"
	ReadingStationID   = "station_id"
)

// Reading is a single point-in-time sensor sample. Values may be numbers or
// numeric strings.
type Reading map[string]any

// RawMessage represents an unprocessed message from the source topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Features is a normalized live reading, keyed like the batch columns.
type Features struct {
	Temperature        float64 `json:"temperature_2m"`
	DewPoint           float64 `json:"dew_point_2m"`
	RelativeHumidity   float64 `json:"relative_humidity_2m"`
	SurfacePressure    float64 `json:"surface_pressure"`
	ShortwaveRadiation float64 `json:"shortwave_radiation"`
}

// Map returns the features as a column-name mapping.
func (f Features) Map() map[string]float64 {
	return map[string]float64{
		FieldTemperature:        f.Temperature,
		FieldDewPoint:           f.DewPoint,
		FieldRelativeHumidity:   f.RelativeHumidity,
		FieldSurfacePressure:    f.SurfacePressure,
		FieldShortwaveRadiation: f.ShortwaveRadiation,
	}
}

// FeatureRecord is a normalized live reading with its provenance, destined
// for the sink topic.
type FeatureRecord struct {
	ID           string    `json:"id"`
	StationID    string    `json:"station_id,omitempty"`
	Features     Features  `json:"features"`
	ObservedAt   time.Time `json:"observed_at"`
	NormalizedAt time.Time `json:"normalized_at"`
}
