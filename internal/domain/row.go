package domain

import "strconv"

// Column names of the hourly observation table.
const (
	FieldTime               = "time"
	FieldPrecipitation      = "precipitation"
	FieldTemperature        = "temperature_2m"
	FieldDewPoint           = "dew_point_2m"
	FieldRelativeHumidity   = "relative_humidity_2m"
	FieldSurfacePressure    = "surface_pressure"
	FieldShortwaveRadiation = "shortwave_radiation"
)

// TimeLayout is the layout of the time column, e.g. "2024-04-26T15:00".
const TimeLayout = "2006-01-02T15:04"

// Horizons are the lookahead distances, in rows, for the precipitation labels.
var Horizons = []int{1, 6, 12, 24}

// Row is one observation: field values keyed by column name, remembering the
// order in which columns were first set. Rows are mutated in place by
// NormalizeBatch.
type Row struct {
	fields []string
	values map[string]string
}

// NewRow builds a row from parallel header and value slices. Missing trailing
// values are stored as empty strings.
func NewRow(header, values []string) *Row {
	r := &Row{
		fields: make([]string, 0, len(header)+len(Horizons)),
		values: make(map[string]string, len(header)+len(Horizons)),
	}
	for i, name := range header {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		r.Set(name, v)
	}
	return r
}

// Get returns the value stored under name and whether the field exists.
func (r *Row) Get(name string) (string, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Set stores value under name. New fields are appended to the field order;
// existing fields keep their position.
func (r *Row) Set(name, value string) {
	if r.values == nil {
		r.values = make(map[string]string)
	}
	if _, ok := r.values[name]; !ok {
		r.fields = append(r.fields, name)
	}
	r.values[name] = value
}

// Fields returns the field names in insertion order.
func (r *Row) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Values returns the values in the order of header; absent fields are empty.
func (r *Row) Values(header []string) []string {
	out := make([]string, len(header))
	for i, name := range header {
		out[i] = r.values[name]
	}
	return out
}

// HorizonField names the label column for a horizon of h rows, e.g. "precipitation_6h".
func HorizonField(h int) string {
	return FieldPrecipitation + "_" + strconv.Itoa(h) + "h"
}
