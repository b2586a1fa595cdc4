// Command validate checks a normalized feature table against the source it
// was produced from: row parity, time ordering, horizon labels, scaling
// round-trip, and that the feature matrix can be built from it.
//
// Scaling divisors are read from the same ETL_ configuration as normalize.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -source data/api_output.csv \
//	  -normalized data/normalized.csv
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/couchcryptid/weather-feature-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/weather-feature-etl/internal/config"
	"github.com/couchcryptid/weather-feature-etl/internal/domain"
)

// tolerance for the scaling round-trip (normalized * divisor vs source).
const tolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	source := flag.String("source", "", "source observation CSV")
	normalized := flag.String("normalized", "", "normalized feature CSV")
	flag.Parse()

	if *source == "" || *normalized == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*source, *normalized); code != 0 {
		os.Exit(code)
	}
}

func run(sourcePath, normalizedPath string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}
	scaling := cfg.Scaling()

	fmt.Println("=== Feature Table Validation ===")
	fmt.Println()

	srcRows, _, err := csvfile.ReadRows(sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load source: %v\n", err)
		return 1
	}
	// Sorting the source the same way the normalizer does gives the reference order.
	expected, err := expectedLabels(srcRows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: source: %v\n", err)
		return 1
	}

	header, records, err := csvfile.ReadTable(normalizedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load normalized: %v\n", err)
		return 1
	}
	outRows := make([]*domain.Row, len(records))
	for i, rec := range records {
		outRows[i] = domain.NewRow(header, rec)
	}

	phases := []*phase{
		validateParity(expected, outRows),
		validateLabels(expected, outRows),
		validateScaling(expected, outRows, scaling),
		validateMatrix(header, records),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d source, %d normalized\n", len(srcRows), len(outRows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// reference is a source row in time order with its expected horizon labels.
type reference struct {
	row    *domain.Row
	labels map[string]string
	raw    map[string]float64
}

func expectedLabels(rows []*domain.Row) ([]reference, error) {
	// Capture raw sensor values before NormalizeBatch rescales them in place.
	raw := make(map[*domain.Row]map[string]float64, len(rows))
	for _, r := range rows {
		vals := map[string]float64{}
		for _, f := range sensorFields {
			v, _ := r.Get(f)
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("%s %q is not numeric", f, v)
			}
			vals[f] = x
		}
		raw[r] = vals
	}

	sorted, err := domain.NormalizeBatch(rows, domain.DefaultScaling())
	if err != nil {
		return nil, err
	}

	refs := make([]reference, len(sorted))
	for i, r := range sorted {
		labels := make(map[string]string, len(domain.Horizons))
		for _, h := range domain.Horizons {
			want := domain.LabelPlaceholder
			if i+h < len(sorted) {
				p, _ := sorted[i+h].Get(domain.FieldPrecipitation)
				want = int(domain.Label(p))
			}
			labels[domain.HorizonField(h)] = strconv.Itoa(want)
		}
		refs[i] = reference{row: r, labels: labels, raw: raw[r]}
	}
	return refs, nil
}

var sensorFields = []string{
	domain.FieldTemperature,
	domain.FieldDewPoint,
	domain.FieldRelativeHumidity,
	domain.FieldSurfacePressure,
	domain.FieldShortwaveRadiation,
}

func validateParity(expected []reference, out []*domain.Row) *phase {
	p := &phase{name: "Phase 1: Row parity and ordering"}
	if len(expected) != len(out) {
		p.errorf("row count: source %d, normalized %d", len(expected), len(out))
		return p
	}
	for i := range out {
		want, _ := expected[i].row.Get(domain.FieldTime)
		got, _ := out[i].Get(domain.FieldTime)
		if want != got {
			p.errorf("row %d: time %q, expected %q", i, got, want)
		}
	}
	return p
}

func validateLabels(expected []reference, out []*domain.Row) *phase {
	p := &phase{name: "Phase 2: Horizon labels"}
	for i := range min(len(expected), len(out)) {
		for field, want := range expected[i].labels {
			got, ok := out[i].Get(field)
			if !ok {
				p.errorf("row %d: missing %s", i, field)
				continue
			}
			if got != want {
				p.errorf("row %d: %s = %s, expected %s", i, field, got, want)
			}
		}
	}
	return p
}

func validateScaling(expected []reference, out []*domain.Row, s domain.Scaling) *phase {
	p := &phase{name: "Phase 3: Scaling round-trip"}
	divisors := map[string]float64{
		domain.FieldTemperature:        s.TemperatureDivisor,
		domain.FieldDewPoint:           s.DewPointDivisor,
		domain.FieldRelativeHumidity:   s.HumidityDivisor,
		domain.FieldSurfacePressure:    s.PressureDivisor,
		domain.FieldShortwaveRadiation: s.LuminosityDivisor,
	}
	for i := range min(len(expected), len(out)) {
		for _, f := range sensorFields {
			v, _ := out[i].Get(f)
			got, err := strconv.ParseFloat(v, 64)
			if err != nil {
				p.errorf("row %d: %s %q is not numeric", i, f, v)
				continue
			}
			if diff := math.Abs(got*divisors[f] - expected[i].raw[f]); diff > tolerance*math.Max(1, math.Abs(expected[i].raw[f])) {
				p.errorf("row %d: %s round-trip %g, source %g", i, f, got*divisors[f], expected[i].raw[f])
			}
		}
	}
	return p
}

func validateMatrix(header []string, records [][]string) *phase {
	p := &phase{name: "Phase 4: Feature matrix"}
	features, err := domain.ColumnIndex(header, sensorFields...)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	target, err := domain.ColumnIndex(header, domain.HorizonField(1))
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	x, y, err := domain.BuildMatrix(records, features, target[0])
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	r, c := x.Dims()
	fmt.Printf("Feature matrix: %d x %d, target length %d\n", r, c, y.Len())
	return p
}
