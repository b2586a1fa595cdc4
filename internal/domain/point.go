package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NormalizePoint rescales one live reading with the same divisors as the
// batch path. Shortwave radiation is additionally divided by
// ExtraLuminosityFactor, which the batch path does not do.
//
// No horizon labels are produced. A missing or non-numeric key yields
// ErrInvalidData and a zero Features; partial results are never returned.
func NormalizePoint(reading Reading, scaling Scaling) (Features, error) {
	temperature, err := readingValue(reading, ReadingTemperature)
	if err != nil {
		return Features{}, err
	}
	dewPoint, err := readingValue(reading, ReadingDewPoint)
	if err != nil {
		return Features{}, err
	}
	humidity, err := readingValue(reading, ReadingHumidity)
	if err != nil {
		return Features{}, err
	}
	pressure, err := readingValue(reading, ReadingPressure)
	if err != nil {
		return Features{}, err
	}
	luminosity, err := readingValue(reading, ReadingLuminosity)
	if err != nil {
		return Features{}, err
	}

	return Features{
		Temperature:        temperature / scaling.TemperatureDivisor,
		DewPoint:           dewPoint / scaling.DewPointDivisor,
		RelativeHumidity:   humidity / scaling.HumidityDivisor,
		SurfacePressure:    pressure / scaling.PressureDivisor,
		ShortwaveRadiation: luminosity / scaling.LuminosityDivisor / scaling.ExtraLuminosityFactor,
	}, nil
}

func readingValue(reading Reading, key string) (float64, error) {
	raw, ok := reading[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %q", ErrInvalidData, key)
	}
	v, ok := toFloat(raw)
	if !ok {
		return 0, fmt.Errorf("%w: %s %v is not numeric", ErrInvalidData, key, raw)
	}
	return v, nil
}

// ParseReading decodes a JSON sensor message into a Reading. Numbers are kept
// as json.Number so that no precision is lost before scaling.
func ParseReading(raw RawMessage) (Reading, error) {
	dec := json.NewDecoder(bytes.NewReader(raw.Value))
	dec.UseNumber()

	var reading Reading
	if err := dec.Decode(&reading); err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrInvalidData, ErrMalformedReading, err)
	}
	if reading == nil {
		return nil, fmt.Errorf("%w: %w: empty payload", ErrInvalidData, ErrMalformedReading)
	}
	return reading, nil
}

// NewFeatureRecord normalizes a parsed reading and stamps it with the
// package clock. The station ID comes from the reading, falling back to the
// message key; the record ID is a fresh UUID.
func NewFeatureRecord(raw RawMessage, reading Reading, scaling Scaling) (FeatureRecord, error) {
	features, err := NormalizePoint(reading, scaling)
	if err != nil {
		return FeatureRecord{}, err
	}

	station, _ := reading[ReadingStationID].(string)
	if station == "" {
		station = string(raw.Key)
	}

	return FeatureRecord{
		ID:           uuid.NewString(),
		StationID:    station,
		Features:     features,
		ObservedAt:   raw.Timestamp,
		NormalizedAt: clock.Now(),
	}, nil
}
