// Package csvfile reads and writes observation tables as comma-separated
// files whose first line names the columns.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/couchcryptid/weather-feature-etl/internal/domain"
)

const defaultMode os.FileMode = 0o644

// ReadRows loads every record of the file at path as an ordered Row and
// returns the rows together with the header. Any open or parse failure is
// reported as domain.ErrSourceUnavailable.
func ReadRows(path string) ([]*domain.Row, []string, error) {
	header, records, err := ReadTable(path)
	if err != nil {
		return nil, nil, err
	}
	rows := make([]*domain.Row, len(records))
	for i, rec := range records {
		rows[i] = domain.NewRow(header, rec)
	}
	return rows, header, nil
}

// ReadTable loads the header and the raw records of the file at path.
func ReadTable(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Short records are kept; the missing trailing fields read as empty and
	// are rejected as invalid data by the normalizer.
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: %s: no header line", domain.ErrSourceUnavailable, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", domain.ErrSourceUnavailable, path, err)
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", domain.ErrSourceUnavailable, path, err)
	}
	return header, records, nil
}

// WriteRows writes header followed by one line per row, values looked up by
// header name. The file is written to a temporary sibling and renamed into
// place so a failed write never leaves a truncated destination. Failures are
// reported as domain.ErrDestinationUnavailable.
//
// A new destination gets mode 0644; an existing one keeps its permissions.
func WriteRows(path string, header []string, rows []*domain.Row) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDestinationUnavailable, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(header); err != nil {
		return fmt.Errorf("%w: write header: %v", domain.ErrDestinationUnavailable, err)
	}
	for _, row := range rows {
		if err = w.Write(row.Values(header)); err != nil {
			return fmt.Errorf("%w: write row: %v", domain.ErrDestinationUnavailable, err)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return fmt.Errorf("%w: flush: %v", domain.ErrDestinationUnavailable, err)
	}
	mode := defaultMode
	if fi, statErr := os.Stat(path); statErr == nil {
		mode = fi.Mode().Perm()
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("%w: chmod: %v", domain.ErrDestinationUnavailable, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", domain.ErrDestinationUnavailable, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDestinationUnavailable, err)
	}
	return nil
}

// Store binds the file functions to the pipeline's table interfaces.
type Store struct{}

// ReadRows implements pipeline.TableReader.
func (Store) ReadRows(_ context.Context, path string) ([]*domain.Row, []string, error) {
	return ReadRows(path)
}

// WriteRows implements pipeline.TableWriter.
func (Store) WriteRows(_ context.Context, path string, header []string, rows []*domain.Row) error {
	return WriteRows(path, header, rows)
}
