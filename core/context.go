package core

import (
	"context"

	av "pairscan/api/alpha_vantage"
	r "pairscan/repos"
)

type ServiceContext struct {
	Context            context.Context
	PostgresConnection *r.Postgres
	PriceSourceClient  av.AlphaVantageClient
}
