package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/weather-feature-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRows(t *testing.T) {
	rows, header, err := ReadRows(filepath.Join("testdata", "observations.csv"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"time", "temperature_2m", "relative_humidity_2m", "dew_point_2m",
		"precipitation", "surface_pressure", "shortwave_radiation",
	}, header)
	require.Len(t, rows, 3)

	v, ok := rows[0].Get(domain.FieldTime)
	assert.True(t, ok)
	assert.Equal(t, "2024-04-26T02:00", v)
	assert.Equal(t, header, rows[1].Fields())
}

func TestReadRows_MissingFile(t *testing.T) {
	_, _, err := ReadRows(filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestReadTable_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, _, err := ReadTable(path)
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestReadTable_ShortRecordKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragged.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n3\n"), 0o600))

	header, records, err := ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, header)
	assert.Equal(t, [][]string{{"1", "2"}, {"3"}}, records)
}

func TestReadRows_ShortRecordReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,precipitation,temperature_2m\n2024-04-26T00:00,0\n"), 0o600))

	rows, _, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	v, ok := rows[0].Get(domain.FieldTemperature)
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestReadTable_MalformedQuote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n\"1,2\n"), 0o600))

	_, _, err := ReadTable(path)
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestWriteRows_RoundTrip(t *testing.T) {
	header := []string{"time", "precipitation", "precipitation_1h"}
	rows := []*domain.Row{
		domain.NewRow(header, []string{"2024-04-26T00:00", "0.0", "2"}),
		domain.NewRow(header, []string{"2024-04-26T01:00", "1.2", "0"}),
	}
	path := filepath.Join(t.TempDir(), "out.csv")

	require.NoError(t, WriteRows(path, header, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "time,precipitation,precipitation_1h\n2024-04-26T00:00,0.0,2\n2024-04-26T01:00,1.2,0\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be renamed away")
}

func TestWriteRows_FileMode(t *testing.T) {
	header := []string{"time"}
	rows := []*domain.Row{domain.NewRow(header, []string{"2024-04-26T00:00"})}

	t.Run("new destination is world readable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		require.NoError(t, WriteRows(path, header, rows))

		fi, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm())
	})

	t.Run("existing destination keeps its mode", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o640))
		require.NoError(t, os.Chmod(path, 0o640))
		require.NoError(t, WriteRows(path, header, rows))

		fi, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o640), fi.Mode().Perm())
	})
}

func TestWriteRows_Unwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "out.csv")

	err := WriteRows(path, []string{"a"}, nil)
	require.ErrorIs(t, err, domain.ErrDestinationUnavailable)
}

func TestStore(t *testing.T) {
	var s Store
	ctx := context.Background()

	rows, header, err := s.ReadRows(ctx, filepath.Join("testdata", "observations.csv"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "copy.csv")
	require.NoError(t, s.WriteRows(ctx, path, header, rows))

	again, _, err := ReadRows(path)
	require.NoError(t, err)
	assert.Len(t, again, len(rows))
}
