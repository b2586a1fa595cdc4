package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// NormalizeBatch sorts rows by time, attaches the horizon precipitation labels
// and rescales the continuous sensor fields. Rows are modified in place; the
// returned slice holds the same rows in ascending time order.
//
// Lookahead is positional: the label for horizon h on row i is read from the
// row h positions later, whatever its timestamp. Rows with fewer than h
// successors get LabelPlaceholder.
//
// Any missing or non-numeric field needed for labelling or scaling, a
// missing or malformed time, or an empty batch fails the whole batch with
// ErrInvalidData.
func NormalizeBatch(rows []*Row, scaling Scaling) ([]*Row, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no observations", ErrInvalidData)
	}

	sorted, err := sortByTime(rows)
	if err != nil {
		return nil, err
	}

	// Labels are read from the unscaled precipitation column, which scaling
	// never touches, so one pass per row is enough.
	for i, row := range sorted {
		for _, h := range Horizons {
			label := LabelPlaceholder
			if i+h < len(sorted) {
				sev, err := precipitationLabel(sorted[i+h], i+h)
				if err != nil {
					return nil, err
				}
				label = int(sev)
			}
			row.Set(HorizonField(h), strconv.Itoa(label))
		}
		if err := scaleRow(row, i, scaling.batchFields()); err != nil {
			return nil, err
		}
	}
	return sorted, nil
}

// Header returns the output column order: the field order of the first row.
func Header(rows []*Row) []string {
	if len(rows) == 0 {
		return nil
	}
	return rows[0].Fields()
}

type timedRow struct {
	at  time.Time
	row *Row
}

func sortByTime(rows []*Row) ([]*Row, error) {
	timed := make([]timedRow, len(rows))
	for i, row := range rows {
		at, err := ParseTime(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		timed[i] = timedRow{at: at, row: row}
	}

	slices.SortStableFunc(timed, func(a, b timedRow) int {
		return cmp.Compare(a.at.UnixNano(), b.at.UnixNano())
	})

	out := make([]*Row, len(timed))
	for i := range timed {
		out[i] = timed[i].row
	}
	return out, nil
}

// ParseTime reads a row's time column. The value is treated as naive local
// time; it is parsed as UTC so that ordering is unaffected by DST.
func ParseTime(row *Row) (time.Time, error) {
	raw, ok := row.Get(FieldTime)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: missing %q", ErrInvalidData, FieldTime)
	}
	at, err := time.Parse(TimeLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed %s %q", ErrInvalidData, FieldTime, raw)
	}
	return at, nil
}

func precipitationLabel(row *Row, index int) (Severity, error) {
	raw, ok := row.Get(FieldPrecipitation)
	if !ok {
		return SeverityInvalid, fmt.Errorf("%w: row %d: missing %q", ErrInvalidData, index, FieldPrecipitation)
	}
	if _, ok := parseFloat(raw); !ok {
		return SeverityInvalid, fmt.Errorf("%w: row %d: %s %q is not numeric", ErrInvalidData, index, FieldPrecipitation, raw)
	}
	return Label(raw), nil
}

func scaleRow(row *Row, index int, fields []scaledField) error {
	for _, f := range fields {
		raw, ok := row.Get(f.name)
		if !ok {
			return fmt.Errorf("%w: row %d: missing %q", ErrInvalidData, index, f.name)
		}
		v, ok := parseFloat(raw)
		if !ok {
			return fmt.Errorf("%w: row %d: %s %q is not numeric", ErrInvalidData, index, f.name, raw)
		}
		row.Set(f.name, formatFloat(v/f.divisor))
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
