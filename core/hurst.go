package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	m "pairscan/models"
)

// FilterHurst builds the hedge-ratio-adjusted spread for each cointegrated
// pair over the full price panel index and keeps the pairs whose estimated
// Hurst exponent is strictly below the threshold; below 0.5 the spread is
// anti-persistent, the property a pairs trade needs. Retained spreads are
// collected column-wise into one panel sharing the price index, labeled by
// pair key.
func FilterHurst(prices *m.Panel, passing []m.CointegrationResult, hurstThreshold float64, maxLag int) (*m.Panel, []m.Pair, error) {
	if len(passing) == 0 {
		return nil, nil, fmt.Errorf("hurst filter: %w: empty pair list", ErrNoCandidates)
	}

	var keptPairs []m.Pair
	var keptSpreads [][]float64

	for _, r := range passing {
		dep, err := prices.Column(r.Pair.Dependent)
		if err != nil {
			return nil, nil, fmt.Errorf("hurst filter: %w", err)
		}
		ind, err := prices.Column(r.Pair.Independent)
		if err != nil {
			return nil, nil, fmt.Errorf("hurst filter: %w", err)
		}

		spread := make([]float64, len(dep))
		for i := range dep {
			spread[i] = dep[i] - r.HedgeRatio*ind[i]
		}

		if h := HurstExponent(spread, maxLag); h < hurstThreshold {
			keptPairs = append(keptPairs, r.Pair)
			keptSpreads = append(keptSpreads, spread)
		}
	}

	spreads := &m.Panel{
		Columns: make([]string, len(keptPairs)),
		Index:   prices.Index,
		Values:  make([][]float64, prices.NumRows()),
	}
	for k, p := range keptPairs {
		spreads.Columns[k] = p.Key()
	}
	for i := range spreads.Values {
		row := make([]float64, len(keptPairs))
		for k := range keptSpreads {
			row[k] = keptSpreads[k][i]
		}
		spreads.Values[i] = row
	}

	return spreads, keptPairs, nil
}

// HurstExponent estimates long-range memory of a series: for each lag from 2
// up to (but excluding) maxLag, take the square root of the standard
// deviation of the lag-differenced series, then regress its log on the log
// of the lag. The exponent is twice the slope. Values near 0.5 are a random
// walk, below 0.5 mean reversion, above 0.5 trending.
func HurstExponent(series []float64, maxLag int) float64 {
	if maxLag > len(series) {
		maxLag = len(series)
	}
	if maxLag < 3 {
		return math.NaN()
	}

	logLags := make([]float64, 0, maxLag-2)
	logTaus := make([]float64, 0, maxLag-2)
	for lag := 2; lag < maxLag; lag++ {
		diffs := make([]float64, len(series)-lag)
		for i := range diffs {
			diffs[i] = series[i+lag] - series[i]
		}
		tau := math.Sqrt(stat.PopStdDev(diffs, nil))
		if tau <= 0 || math.IsNaN(tau) {
			continue
		}
		logLags = append(logLags, math.Log(float64(lag)))
		logTaus = append(logTaus, math.Log(tau))
	}

	if len(logLags) < 2 {
		return math.NaN()
	}

	_, slope := stat.LinearRegression(logLags, logTaus, nil, false)
	return 2 * slope
}
