package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	m "pairscan/models"
)

func (pg *Postgres) GetDailyPrices(ctx context.Context, symbols []string) ([]*m.DailyPrice, error) {
	query := `
		SELECT
			dp.source_id,
			um.symbol,
			dp."timestamp",
			dp.adjusted_close
		FROM daily_prices dp
		JOIN universe_metadata um ON dp.source_id = um.id
		WHERE um.symbol = ANY(@symbols)
		ORDER BY dp."timestamp" ASC`

	args := pgx.NamedArgs{
		"symbols": symbols,
	}

	res, err := Query[m.DailyPrice](ctx, pg, query, args)
	if err != nil {
		return nil, fmt.Errorf("unable to query daily prices for %d symbols: %w", len(symbols), err)
	}
	return res, nil
}

func (pg *Postgres) GetMostRecentTimestampForSymbol(ctx context.Context, symbol string) (*time.Time, error) {
	query := `
		SELECT MAX(dp."timestamp")
		FROM daily_prices dp
		JOIN universe_metadata um ON dp.source_id = um.id
		WHERE um.symbol = @symbol`

	args := pgx.NamedArgs{
		"symbol": symbol,
	}

	var res *time.Time
	if err := pg.db.QueryRow(ctx, query, args).Scan(&res); err != nil {
		return nil, fmt.Errorf("unable to query most recent timestamp for %s: %w", symbol, err)
	}

	return res, nil
}

func (pg *Postgres) InsertDailyPrices(ctx context.Context, data []*m.DailyPrice, tx *pgx.Tx) (int64, error) {
	columns := []string{"source_id", "timestamp", "adjusted_close"}

	entries := make([][]any, len(data))
	for i, ent := range data {
		entries[i] = []any{ent.SourceId, ent.Timestamp, ent.AdjustedClose}
	}

	if tx == nil {
		return pg.db.CopyFrom(ctx, pgx.Identifier{"daily_prices"}, columns, pgx.CopyFromRows(entries))
	}
	return (*tx).CopyFrom(ctx, pgx.Identifier{"daily_prices"}, columns, pgx.CopyFromRows(entries))
}
