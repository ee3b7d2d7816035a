package models

import (
	"fmt"
	"math"
	"time"
)

// Panel is a time-indexed table of float64 columns. It is used for the raw
// price universe, the derived return panel and the spread table, the only
// difference being what the columns are keyed by (asset symbols or pair keys).
type Panel struct {
	Columns []string
	Index   []time.Time
	Values  [][]float64 // one row per index entry, len(Columns) wide
}

func NewPanel(columns []string, index []time.Time) *Panel {
	values := make([][]float64, len(index))
	for i := range values {
		values[i] = make([]float64, len(columns))
	}

	return &Panel{
		Columns: columns,
		Index:   index,
		Values:  values,
	}
}

func (p *Panel) NumRows() int {
	return len(p.Index)
}

func (p *Panel) NumColumns() int {
	return len(p.Columns)
}

func (p *Panel) IsEmpty() bool {
	return p == nil || len(p.Index) == 0 || len(p.Columns) == 0
}

// ColumnIndex returns the position of a column key, or -1 if it is unknown.
func (p *Panel) ColumnIndex(key string) int {
	for i, c := range p.Columns {
		if c == key {
			return i
		}
	}
	return -1
}

// Column copies one column out of the panel.
func (p *Panel) Column(key string) ([]float64, error) {
	j := p.ColumnIndex(key)
	if j < 0 {
		return nil, fmt.Errorf("panel has no column %s", key)
	}

	res := make([]float64, len(p.Values))
	for i, row := range p.Values {
		res[i] = row[j]
	}
	return res, nil
}

// Validate checks the panel invariants: rectangular values and a strictly
// increasing time index (no two rows share a timestamp).
func (p *Panel) Validate() error {
	if p.IsEmpty() {
		return fmt.Errorf("panel is empty")
	}
	if len(p.Values) != len(p.Index) {
		return fmt.Errorf("panel has %d rows but %d index entries", len(p.Values), len(p.Index))
	}

	for i, row := range p.Values {
		if len(row) != len(p.Columns) {
			return fmt.Errorf("panel row %d has %d values, expected %d", i, len(row), len(p.Columns))
		}
	}

	for i := 1; i < len(p.Index); i++ {
		if !p.Index[i].After(p.Index[i-1]) {
			return fmt.Errorf("panel index is not strictly increasing at row %d (%s)", i, p.Index[i].Format(time.RFC3339))
		}
	}

	return nil
}

// HasMissing reports whether any value in the panel is NaN or infinite.
func (p *Panel) HasMissing() bool {
	for _, row := range p.Values {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}

// FeatureMatrix holds one K-dimensional loading vector per asset, in a fixed
// asset order. Produced once per selection run and immutable afterwards.
type FeatureMatrix struct {
	Assets   []string
	Loadings [][]float64 // one row per asset, NumFeatures wide
}

func (f *FeatureMatrix) NumAssets() int {
	return len(f.Assets)
}

func (f *FeatureMatrix) NumFeatures() int {
	if len(f.Loadings) == 0 {
		return 0
	}
	return len(f.Loadings[0])
}

// NoiseLabel marks points that fall outside every dense region.
const NoiseLabel = -1

// ClusterAssignment maps each asset to an integer cluster label, aligned with
// the feature matrix asset order. Labels >= 0 form the cluster id space and
// are not necessarily contiguous; NoiseLabel marks unclustered assets.
type ClusterAssignment struct {
	Assets []string
	Labels []int
}

// ClusterIDs returns the distinct non-noise labels in order of first appearance.
func (ca *ClusterAssignment) ClusterIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, l := range ca.Labels {
		if l == NoiseLabel || seen[l] {
			continue
		}
		seen[l] = true
		ids = append(ids, l)
	}
	return ids
}

// Members returns the assets carrying the given label, in assignment order.
func (ca *ClusterAssignment) Members(label int) []string {
	var members []string
	for i, l := range ca.Labels {
		if l == label {
			members = append(members, ca.Assets[i])
		}
	}
	return members
}
