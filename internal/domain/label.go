package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Severity is the precipitation intensity class assigned by Label.
type Severity int

const (
	SeverityInvalid  Severity = -1
	SeverityNone     Severity = 0
	SeverityLight    Severity = 1
	SeverityModerate Severity = 2
	SeverityHeavy    Severity = 3
	SeverityExtreme  Severity = 4
)

// LabelPlaceholder fills a horizon column when the sequence ends before the
// horizon. It shares the integer type of real labels.
const LabelPlaceholder = 0

// Label maps a precipitation amount to its severity class. The value may be
// any Go number, a numeric string, a json.Number or a byte slice; anything
// that cannot be read as a float yields SeverityInvalid.
//
// Thresholds, evaluated in order:
//   - v == 0: none
//   - v < 0.5: light (includes negative amounts)
//   - v < 4: moderate
//   - v < 8: heavy
//   - otherwise: extreme
func Label(value any) Severity {
	v, ok := toFloat(value)
	if !ok {
		return SeverityInvalid
	}
	switch {
	case v == 0:
		return SeverityNone
	case v < 0.5:
		return SeverityLight
	case v < 4:
		return SeverityModerate
	case v < 8:
		return SeverityHeavy
	default:
		return SeverityExtreme
	}
}

// toFloat coerces value to float64, reporting whether coercion succeeded.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		return parseFloat(v)
	case []byte:
		return parseFloat(string(v))
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
