package core

import (
	"fmt"
	"math"

	m "pairscan/models"
)

// ComputeReturns converts a price panel into a panel of simple returns.
// Row-over-previous-row relative change; a zero prior price makes the value
// infinite, which is treated as missing and forward-filled from the last
// valid return. Rows still missing after the fill (the leading ones) are
// dropped, as is the first row, which has no prior price to diff against.
func ComputeReturns(prices *m.Panel) (*m.Panel, error) {
	if prices.IsEmpty() {
		return nil, fmt.Errorf("compute returns: %w: price panel is absent or empty", ErrInvalidInput)
	}
	if err := prices.Validate(); err != nil {
		return nil, fmt.Errorf("compute returns: %w: %v", ErrInvalidInput, err)
	}

	nRows := prices.NumRows() - 1
	nCols := prices.NumColumns()
	if nRows < 1 {
		return nil, fmt.Errorf("compute returns: %w: need at least two price rows", ErrInvalidInput)
	}

	values := make([][]float64, nRows)
	for i := range values {
		row := make([]float64, nCols)
		for j := range nCols {
			prev := prices.Values[i][j]
			cur := prices.Values[i+1][j]
			r := (cur - prev) / prev
			if math.IsInf(r, 0) {
				r = math.NaN()
			}
			row[j] = r
		}
		values[i] = row
	}

	// forward fill per column
	for j := range nCols {
		last := math.NaN()
		for i := range nRows {
			if math.IsNaN(values[i][j]) {
				values[i][j] = last
			} else {
				last = values[i][j]
			}
		}
	}

	// drop leading rows that are still missing
	first := 0
	for first < nRows && rowHasNaN(values[first]) {
		first++
	}
	if first == nRows {
		return nil, fmt.Errorf("compute returns: %w: no complete return rows after fill", ErrInvalidInput)
	}

	return &m.Panel{
		Columns: prices.Columns,
		Index:   prices.Index[1+first:],
		Values:  values[first:],
	}, nil
}

func rowHasNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
