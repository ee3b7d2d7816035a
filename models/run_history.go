package models

import "time"

// SelectionRunHistory is the persisted record of one selection run, inserted
// before the pipeline starts and marked as success or failure afterwards.
type SelectionRunHistory struct {
	Id                   int32     `db:"id"`
	NumFeatures          int       `db:"num_features"`
	MinSamples           int       `db:"min_samples"`
	PValueThreshold      float64   `db:"pvalue_threshold"`
	HurstThreshold       float64   `db:"hurst_threshold"`
	MinCrossoversPerYear int       `db:"min_crossovers_per_year"`
	TestWindow           int       `db:"test_window"`
	UniverseSize         int       `db:"universe_size"`
	StartedAt            time.Time `db:"started_at"`
}
