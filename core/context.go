package core

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"bardata/api/alpaca"
	ex "bardata/extensions"
)

// alpaca authorizes 200 requests per minute and per api key, which caps
// how wide the pull fan out is allowed to go
const (
	MaxWorkersCap = 200
	ChunkSizeCap  = 100
)

type ServiceContext struct {
	Context      context.Context
	AlpacaClient alpaca.AlpacaClient
	Location     *time.Location
	Limiter      *rate.Limiter
	MaxWorkers   int
	ChunkSize    int
}

// GetServiceContext wires a service context with the provider limits
// applied, so a generous config cannot outrun the api. The knobs are
// clamped to [1, cap], a zero worker pool would drain no jobs at all.
func GetServiceContext(ctx context.Context, client alpaca.AlpacaClient, location *time.Location, maxWorkers int, chunkSize int) ServiceContext {
	return ServiceContext{
		Context:      ctx,
		AlpacaClient: client,
		Location:     location,
		Limiter:      rate.NewLimiter(rate.Every(time.Minute/MaxWorkersCap), 1),
		MaxWorkers:   ex.Min(ex.Max(maxWorkers, 1), MaxWorkersCap),
		ChunkSize:    ex.Min(ex.Max(chunkSize, 1), ChunkSizeCap),
	}
}
