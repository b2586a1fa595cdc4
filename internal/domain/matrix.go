package domain

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// BuildMatrix converts tabular rows into a feature matrix (rows × features)
// and a target vector, preserving row order. Every selected cell must parse
// as a float; the first one that does not fails the call with ErrInvalidData.
func BuildMatrix(rows [][]string, featureCols []int, targetCol int) (*mat.Dense, *mat.VecDense, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%w: no rows", ErrInvalidData)
	}
	if len(featureCols) == 0 {
		return nil, nil, fmt.Errorf("%w: no feature columns", ErrInvalidData)
	}

	x := mat.NewDense(len(rows), len(featureCols), nil)
	y := mat.NewVecDense(len(rows), nil)

	for i, row := range rows {
		for j, col := range featureCols {
			v, err := cellFloat(row, i, col)
			if err != nil {
				return nil, nil, err
			}
			x.Set(i, j, v)
		}
		v, err := cellFloat(row, i, targetCol)
		if err != nil {
			return nil, nil, err
		}
		y.SetVec(i, v)
	}
	return x, y, nil
}

func cellFloat(row []string, i, col int) (float64, error) {
	if col < 0 || col >= len(row) {
		return 0, fmt.Errorf("%w: row %d has no column %d", ErrInvalidData, i, col)
	}
	v, ok := parseFloat(row[col])
	if !ok {
		return 0, fmt.Errorf("%w: row %d column %d: %q is not numeric", ErrInvalidData, i, col, row[col])
	}
	return v, nil
}

// ColumnIndex resolves column names against a header. Unknown names fail
// with ErrInvalidData.
func ColumnIndex(header []string, names ...string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}
	out := make([]int, len(names))
	for i, name := range names {
		p, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidData, name)
		}
		out[i] = p
	}
	return out, nil
}
