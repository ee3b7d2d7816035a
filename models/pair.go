package models

import "fmt"

// Pair is an unordered candidate pair drawn from one cluster. The orientation
// is still significant downstream: Dependent is the asset being estimated and
// the hedge ratio is applied to Independent, so the spread is
// price(Dependent) - ratio*price(Independent).
type Pair struct {
	Dependent   string `json:"dependent"`
	Independent string `json:"independent"`
}

// Key is the pair's column label in the spread table.
func (p Pair) Key() string {
	return fmt.Sprintf("%s/%s", p.Dependent, p.Independent)
}

// CointegrationResult is the cointegration tester's verdict on one candidate.
type CointegrationResult struct {
	Pair       Pair    `json:"pair"`
	PValue     float64 `json:"pvalue"`
	HedgeRatio float64 `json:"hedgeRatio"`
}

// OUFitResult is the OU estimator's verdict on one spread over the test window.
type OUFitResult struct {
	Pair          Pair    `json:"pair"`
	HalfLife      float64 `json:"halfLife"` // in panel sampling units, nominally trading days
	Crossovers    int     `json:"crossovers"`
	CrossoverPass bool    `json:"crossoverPass"`
}
