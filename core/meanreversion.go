package core

import (
	"context"
	"fmt"

	m "pairscan/models"
)

// Half-life bounds in panel sampling units, both exclusive: anything at one
// unit or faster is noise, anything at a year or slower is impractical.
const (
	HalfLifeLowerBound = 1.0
	HalfLifeUpperBound = 365.0
)

// FilterMeanReversion applies the final two criteria in order: the OU
// half-life must lie strictly inside (1, 365), and of those survivors only
// pairs whose spread crosses its mean often enough are kept. Both the
// half-life-passing list and the final list are returned for reporting.
func FilterMeanReversion(ctx context.Context, estimator OUEstimator, spreads *m.Panel, pairs []m.Pair, window, minCrossoversPerYear int) ([]m.Pair, []m.Pair, error) {
	if len(pairs) == 0 {
		return nil, nil, fmt.Errorf("mean reversion filter: %w: empty pair list", ErrNoCandidates)
	}

	results, err := estimator.RunOUTests(ctx, spreads, pairs, window, minCrossoversPerYear)
	if err != nil {
		return nil, nil, fmt.Errorf("mean reversion filter: %w", err)
	}
	if len(results) != len(pairs) {
		return nil, nil, fmt.Errorf("mean reversion filter: estimator returned %d records for %d pairs", len(results), len(pairs))
	}

	var halfLifePass []m.Pair
	var finalPairs []m.Pair
	for _, r := range results {
		if !(r.HalfLife > HalfLifeLowerBound && r.HalfLife < HalfLifeUpperBound) {
			continue
		}
		halfLifePass = append(halfLifePass, r.Pair)

		if r.CrossoverPass {
			finalPairs = append(finalPairs, r.Pair)
		}
	}

	return halfLifePass, finalPairs, nil
}
