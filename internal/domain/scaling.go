package domain

import (
	"errors"
	"fmt"
)

// Scaling holds the fixed divisors that bring raw sensor units into the
// model's input range. It is passed explicitly to the normalizers.
type Scaling struct {
	TemperatureDivisor float64 `json:"temperature_divisor"`
	DewPointDivisor    float64 `json:"dewpoint_divisor"`
	HumidityDivisor    float64 `json:"humidity_divisor"`
	PressureDivisor    float64 `json:"pressure_divisor"`
	LuminosityDivisor  float64 `json:"luminosity_divisor"`

	// ExtraLuminosityFactor is applied only by NormalizePoint, after
	// LuminosityDivisor. The batch path divides radiation once.
	ExtraLuminosityFactor float64 `json:"extra_luminosity_factor"`
}

// DefaultScaling returns the divisors the model was trained with:
// degrees Celsius over 50, relative humidity percent over 100, hPa over 1100,
// W/m² over 1000, and the live luminosity sensor's extra factor of 4000.
func DefaultScaling() Scaling {
	return Scaling{
		TemperatureDivisor:    50,
		DewPointDivisor:       50,
		HumidityDivisor:       100,
		PressureDivisor:       1100,
		LuminosityDivisor:     1000,
		ExtraLuminosityFactor: 4000,
	}
}

// Validate rejects zero or negative divisors.
func (s Scaling) Validate() error {
	var errs []error
	check := func(name string, v float64) {
		if !(v > 0) {
			errs = append(errs, fmt.Errorf("%s must be positive, got %g", name, v))
		}
	}
	check("temperature divisor", s.TemperatureDivisor)
	check("dewpoint divisor", s.DewPointDivisor)
	check("humidity divisor", s.HumidityDivisor)
	check("pressure divisor", s.PressureDivisor)
	check("luminosity divisor", s.LuminosityDivisor)
	check("extra luminosity factor", s.ExtraLuminosityFactor)
	return errors.Join(errs...)
}

// scaledField pairs a batch column with its divisor.
type scaledField struct {
	name    string
	divisor float64
}

func (s Scaling) batchFields() []scaledField {
	return []scaledField{
		{FieldTemperature, s.TemperatureDivisor},
		{FieldDewPoint, s.DewPointDivisor},
		{FieldRelativeHumidity, s.HumidityDivisor},
		{FieldSurfacePressure, s.PressureDivisor},
		{FieldShortwaveRadiation, s.LuminosityDivisor},
	}
}
