// Command genmock generates deterministic mock fixtures: an hourly
// observation CSV for the batch normalizer and a JSON file of live sensor
// readings paired with the feature records the live pipeline produces for
// them. It runs the real domain package so fixtures match pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv-out data/mock/observations.csv \
//	  -readings-out data/mock/readings.json \
//	  -hours 72 -seed 42
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/weather-feature-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/weather-feature-etl/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var header = []string{
	domain.FieldTime,
	domain.FieldTemperature,
	domain.FieldRelativeHumidity,
	domain.FieldDewPoint,
	domain.FieldPrecipitation,
	domain.FieldSurfacePressure,
	domain.FieldShortwaveRadiation,
}

// fixture pairs a live reading with the record the transformer emits for it.
type fixture struct {
	Reading domain.Reading       `json:"reading"`
	Record  domain.FeatureRecord `json:"record"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvOut := flag.String("csv-out", "", "output path for the hourly observation CSV")
	readingsOut := flag.String("readings-out", "", "output path for the live readings JSON fixture")
	hours := flag.Int("hours", 72, "number of hourly observations")
	start := flag.String("start", "2024-04-26T00:00", "first observation time")
	seed := flag.Uint64("seed", 42, "random seed")
	stations := flag.Int("stations", 3, "number of stations in the readings fixture")
	flag.Parse()

	if *csvOut == "" || *readingsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-out, -readings-out")
	}
	if *hours < 1 {
		return fmt.Errorf("-hours must be positive, got %d", *hours)
	}
	startAt, err := time.Parse(domain.TimeLayout, *start)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}

	// Set a fixed clock for reproducible NormalizedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(startAt.Add(time.Duration(*hours) * time.Hour)))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewPCG(*seed, *seed))

	rows := generateSeries(rng, startAt, *hours)
	if err := os.MkdirAll(filepath.Dir(*csvOut), 0o755); err != nil {
		return err
	}
	if err := csvfile.WriteRows(*csvOut, header, rows); err != nil {
		return fmt.Errorf("writing observations: %w", err)
	}
	log.Printf("wrote %d observations: %s", len(rows), *csvOut)
	printStats(rows)

	fixtures, err := generateReadings(rng, *seed, startAt, *stations)
	if err != nil {
		return err
	}
	if err := writeJSON(*readingsOut, fixtures); err != nil {
		return fmt.Errorf("writing readings fixture: %w", err)
	}
	log.Printf("wrote %d readings: %s", len(fixtures), *readingsOut)
	return nil
}

// generateSeries produces a gap-free hourly series with a diurnal
// temperature and radiation cycle and occasional rain spells.
func generateSeries(rng *rand.Rand, start time.Time, hours int) []*domain.Row {
	rows := make([]*domain.Row, hours)
	raining := 0
	for k := range hours {
		at := start.Add(time.Duration(k) * time.Hour)
		phase := 2 * math.Pi * float64(at.Hour()-15) / 24

		temperature := 18 + 7*math.Cos(phase) + rng.NormFloat64()
		humidity := clamp(65-15*math.Cos(phase)+3*rng.NormFloat64(), 5, 100)
		dewPoint := temperature - (100-humidity)/5
		pressure := 1012 + 4*math.Sin(float64(k)/30) + rng.NormFloat64()/2
		radiation := math.Max(0, 850*math.Sin(math.Pi*float64(at.Hour()-6)/12))

		if raining == 0 && rng.Float64() < 0.08 {
			raining = 1 + rng.IntN(6)
		}
		precipitation := 0.0
		if raining > 0 {
			precipitation = rng.ExpFloat64() * 2.5
			radiation *= 0.3
			humidity = clamp(humidity+20, 5, 100)
			raining--
		}

		rows[k] = domain.NewRow(header, []string{
			at.Format(domain.TimeLayout),
			format(temperature),
			format(humidity),
			format(dewPoint),
			format(precipitation),
			format(pressure),
			format(radiation),
		})
	}
	return rows
}

// generateReadings builds the live fixtures. Record IDs are derived from the
// seed, station and observation time so repeated runs produce identical files.
func generateReadings(rng *rand.Rand, seed uint64, start time.Time, stations int) ([]fixture, error) {
	var fixtures []fixture //nolint:prealloc // one per station per hour below
	for s := range stations {
		station := fmt.Sprintf("station-%02d", s+1)
		for h := range 3 {
			reading := domain.Reading{
				domain.ReadingStationID:   station,
				domain.ReadingTemperature: json.Number(format(15 + 10*rng.Float64())),
				domain.ReadingDewPoint:    json.Number(format(5 + 8*rng.Float64())),
				domain.ReadingHumidity:    json.Number(format(40 + 50*rng.Float64())),
				domain.ReadingPressure:    json.Number(format(1000 + 25*rng.Float64())),
				domain.ReadingLuminosity:  json.Number(format(4000 * rng.Float64())),
			}
			value, err := json.Marshal(reading)
			if err != nil {
				return nil, fmt.Errorf("marshal reading: %w", err)
			}
			raw := domain.RawMessage{
				Key:       []byte(station),
				Value:     value,
				Timestamp: start.Add(time.Duration(h) * time.Hour),
			}
			parsed, err := domain.ParseReading(raw)
			if err != nil {
				return nil, fmt.Errorf("parse reading: %w", err)
			}
			record, err := domain.NewFeatureRecord(raw, parsed, domain.DefaultScaling())
			if err != nil {
				return nil, fmt.Errorf("normalize reading: %w", err)
			}
			record.ID = fixtureID(seed, station, raw.Timestamp)
			fixtures = append(fixtures, fixture{Reading: reading, Record: record})
		}
	}
	return fixtures, nil
}

func fixtureID(seed uint64, station string, at time.Time) string {
	name := fmt.Sprintf("%d/%s/%s", seed, station, at.Format(time.RFC3339))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// printStats reports the 1h label distribution the series will produce.
func printStats(rows []*domain.Row) {
	counts := map[domain.Severity]int{}
	for i := 1; i < len(rows); i++ {
		p, _ := rows[i].Get(domain.FieldPrecipitation)
		counts[domain.Label(p)]++
	}
	fmt.Println("\n=== 1h Label Distribution ===")
	for sev := domain.SeverityNone; sev <= domain.SeverityExtreme; sev++ {
		fmt.Printf("  %d: %d\n", sev, counts[sev])
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func format(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
