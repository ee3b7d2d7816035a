package core

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	ex "pairscan/extensions"
	m "pairscan/models"
)

// SyncSymbolHistory pulls a symbol's full adjusted daily history from the
// price source and stores whatever is newer than what we already hold. A
// symbol refreshed within the last week is left alone.
func (sc *ServiceContext) SyncSymbolHistory(symbol string) (time.Time, error) {
	md, err := sc.PostgresConnection.GetMetadataBySymbol(sc.Context, symbol)
	if err != nil {
		return time.Time{}, fmt.Errorf("error determining if metadata exists in sync: %w", err)
	}

	if md == nil {
		log.Info().Str("symbol", symbol).Msg("adding new symbol to universe")
		md = &m.UniverseMetadata{
			Symbol:        symbol,
			LastRefreshed: time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
		}

		if err := sc.PostgresConnection.InsertNewMetadata(sc.Context, md, nil); err != nil {
			return time.Time{}, fmt.Errorf("error adding %s to universe: %w", symbol, err)
		}
	}

	cutoffDate := time.Now().AddDate(0, 0, -7)
	if md.LastRefreshed.After(cutoffDate) {
		return md.LastRefreshed, fmt.Errorf("data was refreshed less than a week ago (%s), will not sync symbol %s", ex.FmtShort(md.LastRefreshed), symbol)
	}

	mostRecent, err := sc.PostgresConnection.GetMostRecentTimestampForSymbol(sc.Context, symbol)
	if err != nil {
		return time.Time{}, fmt.Errorf("error getting most recent daily price for symbol %s: %w", symbol, err)
	}

	res, err := sc.PriceSourceClient.GetDailyAdjustedHistory(sc.Context, symbol)
	if err != nil {
		return time.Time{}, err
	}

	f := func(b *m.DailyBar) bool {
		return b.AdjustedClose.Valid && (mostRecent == nil || b.Timestamp.After(*mostRecent))
	}
	toInsert := ex.FilterMultiplePtr(res.Bars, f)

	tx, err := sc.PostgresConnection.GetTransaction(sc.Context)
	if err != nil {
		return time.Time{}, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback(sc.Context) // this will kick off if we return before committing

	var inserted int64
	if len(toInsert) > 0 {
		prices := make([]*m.DailyPrice, len(toInsert))
		for i, b := range toInsert {
			prices[i] = &m.DailyPrice{
				SourceId:      md.Id,
				Symbol:        symbol,
				Timestamp:     b.Timestamp,
				AdjustedClose: b.AdjustedClose.Float64,
			}
		}

		inserted, err = sc.PostgresConnection.InsertDailyPrices(sc.Context, prices, &tx)
		if err != nil {
			return time.Time{}, fmt.Errorf("error inserting daily prices: %w", err)
		}
	}

	if err := sc.PostgresConnection.UpdateLastRefreshedDate(sc.Context, symbol, res.Metadata.LastRefreshed, &tx); err != nil {
		return time.Time{}, err
	}

	if err := tx.Commit(sc.Context); err != nil {
		return time.Time{}, fmt.Errorf("error committing transaction to sync symbol %s: %w", symbol, err)
	}

	log.Info().
		Str("symbol", symbol).
		Int("fetched", len(res.Bars)).
		Int64("inserted", inserted).
		Msg("symbol history synced")

	return res.Metadata.LastRefreshed, nil
}
