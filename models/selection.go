package models

// Sampling frequencies, in periods per year.
const (
	Daily  = 252
	Weekly = 52
)

// Defaults for the selection criteria.
const (
	DefaultNumFeatures          = 10
	DefaultMinSamples           = 5
	DefaultPValueThreshold      = 0.01
	DefaultHurstThreshold       = 0.5
	DefaultMaxLag               = 100
	DefaultMinCrossoversPerYear = 12
	DefaultTestWindow           = 2 * Daily // trailing two trading years
)

// SelectionParams are the tunables for one pair-selection run. The zero value
// is not usable, start from DefaultSelectionParams.
type SelectionParams struct {
	NumFeatures          int     `json:"numFeatures"`          // pca components, keep < 15
	MinSamples           int     `json:"minSamples"`           // optics density requirement
	Epsilon              float64 `json:"epsilon"`              // optics extraction cut, 0 picks one from the reachability profile
	PValueThreshold      float64 `json:"pvalueThreshold"`      // cointegration retention, inclusive
	HurstThreshold       float64 `json:"hurstThreshold"`       // hurst retention, strict
	MaxLag               int     `json:"maxLag"`               // hurst lag upper bound, exclusive
	MinCrossoversPerYear int     `json:"minCrossoversPerYear"` // mean-crossing frequency floor
	TestWindow           int     `json:"testWindow"`           // trailing rows for the ou fit
}

func DefaultSelectionParams() SelectionParams {
	return SelectionParams{
		NumFeatures:          DefaultNumFeatures,
		MinSamples:           DefaultMinSamples,
		PValueThreshold:      DefaultPValueThreshold,
		HurstThreshold:       DefaultHurstThreshold,
		MaxLag:               DefaultMaxLag,
		MinCrossoversPerYear: DefaultMinCrossoversPerYear,
		TestWindow:           DefaultTestWindow,
	}
}

// SelectionRequest is the request from the front end to run a selection over
// a stored universe of symbols.
type SelectionRequest struct {
	Symbols []string        `json:"symbols"`
	Params  SelectionParams `json:"params"`
}

// SelectionSummary mirrors the per-stage artifact counts kept for reporting.
type SelectionSummary struct {
	Clusters          int `json:"clusters"`
	PairCombinations  int `json:"pairCombinations"`
	CointegrationPass int `json:"cointegrationPass"`
	HurstPass         int `json:"hurstPass"`
	HalfLifePass      int `json:"halfLifePass"`
	FinalPairs        int `json:"finalPairs"`
}

// SelectionResponse is what the selection controller hands back to the caller.
type SelectionResponse struct {
	FinalPairs    []Pair                `json:"finalPairs"`
	HalfLifePairs []Pair                `json:"halfLifePairs"`
	HurstPairs    []Pair                `json:"hurstPairs"`
	Cointegrated  []CointegrationResult `json:"cointegrated"`
	Summary       SelectionSummary      `json:"summary"`
}
