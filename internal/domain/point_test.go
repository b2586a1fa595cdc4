package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReading() Reading {
	return Reading{
		ReadingTemperature: 21.5,
		ReadingDewPoint:    "12.0",
		ReadingHumidity:    64,
		ReadingPressure:    1013.2,
		ReadingLuminosity:  52000,
	}
}

func TestNormalizePoint(t *testing.T) {
	s := DefaultScaling()

	f, err := NormalizePoint(testReading(), s)
	require.NoError(t, err)

	assert.InDelta(t, 21.5/50, f.Temperature, 1e-12)
	assert.InDelta(t, 12.0/50, f.DewPoint, 1e-12)
	assert.InDelta(t, 64.0/100, f.RelativeHumidity, 1e-12)
	assert.InDelta(t, 1013.2/1100, f.SurfacePressure, 1e-12)
	assert.InDelta(t, 52000.0/1000/4000, f.ShortwaveRadiation, 1e-12)
}

func TestNormalizePoint_RoundTrip(t *testing.T) {
	s := DefaultScaling()
	f, err := NormalizePoint(testReading(), s)
	require.NoError(t, err)

	m := f.Map()
	require.Len(t, m, 5)
	assert.InDelta(t, 21.5, m[FieldTemperature]*s.TemperatureDivisor, 1e-9)
	assert.InDelta(t, 12.0, m[FieldDewPoint]*s.DewPointDivisor, 1e-9)
	assert.InDelta(t, 64.0, m[FieldRelativeHumidity]*s.HumidityDivisor, 1e-9)
	assert.InDelta(t, 1013.2, m[FieldSurfacePressure]*s.PressureDivisor, 1e-9)
	assert.InDelta(t, 52000.0, m[FieldShortwaveRadiation]*s.LuminosityDivisor*s.ExtraLuminosityFactor, 1e-6)
}

func TestNormalizePoint_Invalid(t *testing.T) {
	t.Run("missing humidity", func(t *testing.T) {
		r := testReading()
		delete(r, ReadingHumidity)

		f, err := NormalizePoint(r, DefaultScaling())
		require.ErrorIs(t, err, ErrInvalidData)
		assert.Contains(t, err.Error(), "humidity")
		assert.Equal(t, Features{}, f)
	})

	t.Run("non-numeric pressure", func(t *testing.T) {
		r := testReading()
		r[ReadingPressure] = "high"

		f, err := NormalizePoint(r, DefaultScaling())
		require.ErrorIs(t, err, ErrInvalidData)
		assert.Equal(t, Features{}, f)
	})
}

func TestParseReading(t *testing.T) {
	raw := RawMessage{Value: []byte(`{"station_id":"st-7","temperature":18.25,"dewpoint":"9","humidity":70,"pressure":1001,"luminosity":0}`)}

	r, err := ParseReading(raw)
	require.NoError(t, err)
	assert.Equal(t, "st-7", r[ReadingStationID])

	f, err := NormalizePoint(r, DefaultScaling())
	require.NoError(t, err)
	assert.InDelta(t, 18.25/50, f.Temperature, 1e-12)
	assert.InDelta(t, 9.0/50, f.DewPoint, 1e-12)
	assert.Zero(t, f.ShortwaveRadiation)

	_, err = ParseReading(RawMessage{Value: []byte("{invalid json")})
	require.ErrorIs(t, err, ErrInvalidData)
	require.ErrorIs(t, err, ErrMalformedReading)
	assert.Equal(t, KindInvalidData, KindOf(err))

	_, err = ParseReading(RawMessage{Value: []byte("null")})
	require.ErrorIs(t, err, ErrInvalidData)
	require.ErrorIs(t, err, ErrMalformedReading)

	_, err = NormalizePoint(Reading{ReadingTemperature: 1}, DefaultScaling())
	require.ErrorIs(t, err, ErrInvalidData)
	assert.NotErrorIs(t, err, ErrMalformedReading)
}

func TestNewFeatureRecord(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	observed := time.Date(2024, time.April, 26, 15, 0, 0, 0, time.UTC)
	raw := RawMessage{Key: []byte("key-station"), Timestamp: observed}

	rec, err := NewFeatureRecord(raw, testReading(), DefaultScaling())
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "key-station", rec.StationID)
	assert.Equal(t, observed, rec.ObservedAt)
	assert.Equal(t, fakeClock.Now(), rec.NormalizedAt)

	r := testReading()
	r[ReadingStationID] = "st-1"
	rec, err = NewFeatureRecord(raw, r, DefaultScaling())
	require.NoError(t, err)
	assert.Equal(t, "st-1", rec.StationID)

	delete(r, ReadingLuminosity)
	_, err = NewFeatureRecord(raw, r, DefaultScaling())
	require.ErrorIs(t, err, ErrInvalidData)
}
