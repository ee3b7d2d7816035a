package core

import (
	"fmt"

	m "pairscan/models"
)

// Summary returns the per-stage artifact counts kept for reporting consumers.
// It is only meaningful once the whole cascade has run.
func (p *Pipeline) Summary() (m.SelectionSummary, error) {
	if !p.finalized {
		return m.SelectionSummary{}, fmt.Errorf("summary: %w: the filtering cascade has not finished", ErrNotReady)
	}

	return m.SelectionSummary{
		Clusters:          len(p.Assignment.ClusterIDs()),
		PairCombinations:  len(p.Combinations),
		CointegrationPass: len(p.CointPairs),
		HurstPass:         len(p.HurstPairs),
		HalfLifePass:      len(p.HalfLifePairs),
		FinalPairs:        len(p.FinalPairs),
	}, nil
}

// ReportRow is one line of the human-readable selection summary.
type ReportRow struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Report renders the summary as labeled rows, in pipeline order.
func (p *Pipeline) Report() ([]ReportRow, error) {
	s, err := p.Summary()
	if err != nil {
		return nil, err
	}

	return []ReportRow{
		{"No. of Clusters", s.Clusters},
		{"Total Pair Combinations", s.PairCombinations},
		{"Pairs passing Coint Test", s.CointegrationPass},
		{"Pairs passing Hurst threshold", s.HurstPass},
		{"Pairs passing Half Life threshold", s.HalfLifePass},
		{"Final Set of Pairs", s.FinalPairs},
	}, nil
}
