package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	m "pairscan/models"
)

// ReduceFeatures standardizes each asset's return column to zero mean and
// unit variance (fit on the full column, this is feature extraction rather
// than prediction), drops rows left incomplete by the scaling, and projects
// the panel onto numFeatures principal components. The loading matrix is
// transposed so every asset ends up with one K-dimensional feature vector.
// Optimal ranges for numFeatures should be < 15 to keep the clustering step
// meaningful.
func ReduceFeatures(returns *m.Panel, numFeatures int) (*m.FeatureMatrix, error) {
	if returns.IsEmpty() {
		return nil, fmt.Errorf("reduce features: %w: compute returns before reducing", ErrNotReady)
	}
	if numFeatures < 1 {
		return nil, fmt.Errorf("reduce features: %w: numFeatures must be positive, got %d", ErrInvalidInput, numFeatures)
	}

	scaled := standardizeColumns(returns)
	scaled = dropIncompleteRows(scaled)

	nObs := len(scaled)
	nAssets := returns.NumColumns()
	if numFeatures > nObs || numFeatures > nAssets {
		return nil, fmt.Errorf("reduce features: %w: %d components exceed the %dx%d scaled panel", ErrInvalidInput, numFeatures, nObs, nAssets)
	}

	x := mat.NewDense(nObs, nAssets, nil)
	for i, row := range scaled {
		x.SetRow(i, row)
	}

	// principal axes are the right singular vectors of the centered matrix;
	// the columns are already zero mean from the scaling
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, fmt.Errorf("reduce features: svd of the scaled return panel failed")
	}

	var v mat.Dense
	svd.VTo(&v)

	loadings := make([][]float64, nAssets)
	for a := range nAssets {
		vec := make([]float64, numFeatures)
		for k := range numFeatures {
			vec[k] = v.At(a, k)
		}
		loadings[a] = vec
	}

	return &m.FeatureMatrix{
		Assets:   returns.Columns,
		Loadings: loadings,
	}, nil
}

func standardizeColumns(panel *m.Panel) [][]float64 {
	nRows := panel.NumRows()
	nCols := panel.NumColumns()

	means := make([]float64, nCols)
	stds := make([]float64, nCols)
	col := make([]float64, 0, nRows)
	for j := range nCols {
		col = col[:0]
		for i := range nRows {
			if v := panel.Values[i][j]; !math.IsNaN(v) {
				col = append(col, v)
			}
		}
		means[j] = stat.Mean(col, nil)
		stds[j] = stat.PopStdDev(col, nil)
		if stds[j] == 0 || math.IsNaN(stds[j]) {
			stds[j] = 1 // constant column, leave it centered only
		}
	}

	scaled := make([][]float64, nRows)
	for i := range nRows {
		row := make([]float64, nCols)
		for j := range nCols {
			row[j] = (panel.Values[i][j] - means[j]) / stds[j]
		}
		scaled[i] = row
	}

	return scaled
}

func dropIncompleteRows(rows [][]float64) [][]float64 {
	res := rows[:0:0]
	for _, row := range rows {
		if !rowHasNaN(row) {
			res = append(res, row)
		}
	}
	return res
}
