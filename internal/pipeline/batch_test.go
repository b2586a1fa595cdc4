package pipeline_test

import (
	"context"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/weather-feature-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/weather-feature-etl/internal/domain"
	"github.com/couchcryptid/weather-feature-etl/internal/observability"
	"github.com/couchcryptid/weather-feature-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceHeader = "time,temperature_2m,relative_humidity_2m,dew_point_2m,precipitation,surface_pressure,shortwave_radiation"

// precipSeries is the known precipitation sequence of the 30-row fixture.
var precipSeries = []string{
	"0", "0.1", "0", "0", "0", "0", "2.5", "0", "0", "0",
	"0", "0", "9.2", "0", "0", "0", "0", "0", "0", "0",
	"0", "0", "0", "0", "5.0", "0", "0", "0", "0", "0.3",
}

// writeSeries writes a gap-free hourly fixture with rows shuffled so that
// the normalizer has to sort them.
func writeSeries(t *testing.T, dir string) string {
	t.Helper()
	base := time.Date(2024, time.April, 26, 0, 0, 0, 0, time.UTC)

	lines := make([]string, len(precipSeries))
	for k, p := range precipSeries {
		lines[k] = fmt.Sprintf("%s,%.1f,%d,%.1f,%s,%.1f,%d",
			base.Add(time.Duration(k)*time.Hour).Format(domain.TimeLayout),
			12.0+float64(k)/2, 70+k, 8.0+float64(k)/4, p, 1000.0+float64(k), k*25)
	}
	// odd rows first, then even rows
	shuffled := make([]string, 0, len(lines))
	for k := 1; k < len(lines); k += 2 {
		shuffled = append(shuffled, lines[k])
	}
	for k := 0; k < len(lines); k += 2 {
		shuffled = append(shuffled, lines[k])
	}

	path := filepath.Join(dir, "api_output.csv")
	content := sourceHeader + "\n" + strings.Join(shuffled, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newBatchNormalizer(metrics *observability.Metrics) *pipeline.BatchNormalizer {
	return pipeline.NewBatchNormalizer(csvfile.Store{}, csvfile.Store{}, domain.DefaultScaling(), slog.Default(), metrics)
}

func TestBatchNormalizer_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := writeSeries(t, dir)
	dst := filepath.Join(dir, "normalized.csv")
	metrics := observability.NewMetricsForTesting()

	require.NoError(t, newBatchNormalizer(metrics).Run(context.Background(), src, dst))

	rows, header, err := csvfile.ReadRows(dst)
	require.NoError(t, err)
	require.Len(t, rows, 30)
	assert.Equal(t, sourceHeader+",precipitation_1h,precipitation_6h,precipitation_12h,precipitation_24h",
		strings.Join(header, ","))

	get := func(i int, name string) string {
		v, ok := rows[i].Get(name)
		require.True(t, ok)
		return v
	}

	// Output is time-ascending regardless of input order.
	assert.Equal(t, "2024-04-26T00:00", get(0, "time"))
	assert.Equal(t, "2024-04-27T05:00", get(29, "time"))

	// Row 0 looks at rows 1 (0.1), 6 (2.5), 12 (9.2), 24 (5.0).
	assert.Equal(t, "1", get(0, "precipitation_1h"))
	assert.Equal(t, "2", get(0, "precipitation_6h"))
	assert.Equal(t, "4", get(0, "precipitation_12h"))
	assert.Equal(t, "3", get(0, "precipitation_24h"))

	// Row 29 has nothing ahead.
	for _, h := range domain.Horizons {
		assert.Equal(t, "0", get(29, domain.HorizonField(h)))
	}
	// Row 5 (N-25) sees row 29 (0.3) at 24h.
	assert.Equal(t, "1", get(5, "precipitation_24h"))

	// Sensor fields are scaled; precipitation is not.
	assert.Equal(t, "0.24", get(0, "temperature_2m"))
	assert.Equal(t, "0.7", get(0, "relative_humidity_2m"))
	assert.Equal(t, "0.16", get(0, "dew_point_2m"))
	assert.Equal(t, "9.2", get(12, "precipitation"))

	assert.InDelta(t, 30.0, testutil.ToFloat64(metrics.RowsNormalized), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.BatchRuns.WithLabelValues("success")), 0)
}

func TestBatchNormalizer_SourceUnavailable(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "normalized.csv")
	metrics := observability.NewMetricsForTesting()

	err := newBatchNormalizer(metrics).Run(context.Background(), filepath.Join(dir, "missing.csv"), dst)
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.NoFileExists(t, dst)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.BatchRuns.WithLabelValues("source_unavailable")), 0)
}

func TestBatchNormalizer_InvalidDataWritesNothing(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(src, []byte(sourceHeader+"\n"+
		"2024-04-26T00:00,12.0,70,8.0,0,1000.0,0\n"+
		"2024-04-26T01:00,warm,71,8.1,0,1000.0,0\n"), 0o600))
	dst := filepath.Join(dir, "normalized.csv")

	err := newBatchNormalizer(observability.NewMetricsForTesting()).Run(context.Background(), src, dst)
	require.ErrorIs(t, err, domain.ErrInvalidData)
	assert.NoFileExists(t, dst)
}

func TestBatchNormalizer_ShortRowIsInvalidData(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "short.csv")
	require.NoError(t, os.WriteFile(src, []byte(sourceHeader+"\n"+
		"2024-04-26T00:00,12.0,70,8.0,0,1000.0,0\n"+
		"2024-04-26T01:00,12.5,71,8.1\n"), 0o600))
	dst := filepath.Join(dir, "normalized.csv")

	err := newBatchNormalizer(observability.NewMetricsForTesting()).Run(context.Background(), src, dst)
	require.ErrorIs(t, err, domain.ErrInvalidData)
	assert.Equal(t, domain.KindInvalidData, domain.KindOf(err))
	assert.NoFileExists(t, dst)
}

func TestBatchNormalizer_FailureNotLoggedAboveDebug(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	b := pipeline.NewBatchNormalizer(csvfile.Store{}, csvfile.Store{}, domain.DefaultScaling(), logger, observability.NewMetricsForTesting())
	err := b.Run(context.Background(), filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.csv"))

	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Empty(t, buf.String())
}

func TestBatchNormalizer_DestinationUnavailable(t *testing.T) {
	dir := t.TempDir()
	src := writeSeries(t, dir)

	err := newBatchNormalizer(observability.NewMetricsForTesting()).Run(context.Background(), src, filepath.Join(dir, "no-such-dir", "out.csv"))
	require.ErrorIs(t, err, domain.ErrDestinationUnavailable)
	assert.Equal(t, domain.KindDestinationUnavailable, domain.KindOf(err))
}

type failingWriter struct{ called bool }

func (f *failingWriter) WriteRows(context.Context, string, []string, []*domain.Row) error {
	f.called = true
	return fmt.Errorf("%w: read-only", domain.ErrDestinationUnavailable)
}

func TestBatchNormalizer_WriterErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	src := writeSeries(t, dir)
	w := &failingWriter{}

	b := pipeline.NewBatchNormalizer(csvfile.Store{}, w, domain.DefaultScaling(), slog.Default(), observability.NewMetricsForTesting())
	err := b.Run(context.Background(), src, "ignored")

	assert.True(t, w.called)
	assert.True(t, errors.Is(err, domain.ErrDestinationUnavailable))
}
