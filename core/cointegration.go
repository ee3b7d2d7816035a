package core

import (
	"context"
	"fmt"

	m "pairscan/models"
)

// FilterCointegrated runs the cointegration tester over every candidate and
// keeps exactly the pairs whose p-value is at or below the threshold
// (inclusive). The returned results are the surviving pairs' records in
// candidate order, so the hedge-ratio orientation established here threads
// unchanged into the spread computation.
func FilterCointegrated(ctx context.Context, tester CointegrationTester, prices *m.Panel, candidates []m.Pair, pvalueThreshold float64) ([]m.CointegrationResult, []m.Pair, error) {
	if len(candidates) == 0 {
		return nil, nil, fmt.Errorf("cointegration filter: %w: empty candidate list", ErrNoCandidates)
	}

	results, err := tester.RunCointegrationTests(ctx, prices, candidates)
	if err != nil {
		return nil, nil, fmt.Errorf("cointegration filter: %w", err)
	}
	if len(results) != len(candidates) {
		return nil, nil, fmt.Errorf("cointegration filter: tester returned %d records for %d candidates", len(results), len(candidates))
	}

	passing := make([]m.CointegrationResult, 0, len(results))
	pairs := make([]m.Pair, 0, len(results))
	for _, r := range results {
		if r.PValue <= pvalueThreshold {
			passing = append(passing, r)
			pairs = append(pairs, r.Pair)
		}
	}

	return passing, pairs, nil
}
