package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// UniverseMetadata tracks one symbol in the stored price universe.
type UniverseMetadata struct {
	Id            int32     `db:"id"`
	Symbol        string    `db:"symbol"`
	LastRefreshed time.Time `db:"last_refreshed"`
}

// DailyPrice is one stored observation of a symbol's adjusted close.
type DailyPrice struct {
	SourceId      int32     `db:"source_id"`
	Symbol        string    `db:"symbol"`
	Timestamp     time.Time `db:"timestamp"`
	AdjustedClose float64   `db:"adjusted_close"`
}

// DailySeriesResult is a full adjusted daily history as fetched from the
// price source, newest first the way the source returns it.
type DailySeriesResult struct {
	Metadata *UniverseMetadata
	Bars     []*DailyBar
}

// DailyBar is one raw bar from the price source. Fields besides the adjusted
// close can be absent depending on the symbol, hence the null wrappers.
type DailyBar struct {
	Timestamp      time.Time
	Open           null.Float
	High           null.Float
	Low            null.Float
	Close          null.Float
	AdjustedClose  null.Float
	Volume         null.Float
	DividendAmount null.Float
}
