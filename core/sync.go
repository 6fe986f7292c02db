package core

import (
	"log"
	"maps"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	ex "bardata/extensions"
	m "bardata/models"
)

type job struct {
	index int
	start int
	end   int
}

// GetJobsAndWorkers splits a batch of assets into chunk sized jobs and
// decides how many workers are worth spinning up for them. Degenerate
// inputs are floored at 1, a zero chunk size would divide the batch by
// zero and zero workers would leave every job stranded in the channel.
func GetJobsAndWorkers(nAssets int, chunkSize int, workers int) ([]job, int) {
	chunkSize = ex.Max(chunkSize, 1)
	nJobs := int(math.Ceil(float64(nAssets) / float64(chunkSize)))
	nWorkers := ex.Max(ex.Min(nJobs, workers), 1)

	// jobs store the asset index range they cover, the last one gets
	// truncated to the batch size
	jobs := make([]job, nJobs)
	for i := range nJobs {
		jobs[i] = job{
			index: i,
			start: i * chunkSize,
			end:   ex.Min((i+1)*chunkSize, nAssets),
		}
	}

	return jobs, nWorkers
}

// GetBars pulls and normalizes bars for many assets at once. The batch is
// split into provider sized chunks which fan out over a bounded worker
// pool, with a shared limiter holding the pool inside the provider's
// request budget. One bad chunk fails the whole batch.
func (sc *ServiceContext) GetBars(assets []m.Asset, length int, timestep string, timeshift time.Duration) (map[string]*m.BarSeries, error) {
	parsed := MinTimestep
	if timestep != "" {
		var err error
		parsed, err = parseTimestep(timestep)
		if err != nil {
			return nil, err
		}
	}

	jobs, nWorkers := GetJobsAndWorkers(len(assets), sc.ChunkSize, sc.MaxWorkers)

	log.Printf("pulling %s bars for %d assets in %d chunks with %d workers", parsed, len(assets), len(jobs), nWorkers)

	// workers steal chunks from this channel until it runs dry
	jobsChannel := make(chan job, len(jobs))
	for _, v := range jobs {
		jobsChannel <- v
	}
	close(jobsChannel)

	// deriving from the service context means a cancelled caller stops
	// the pool, and one failed chunk cancels the rest
	g, ctx := errgroup.WithContext(sc.Context)

	results := make([]map[string]*m.BarSeries, len(jobs))
	for range nWorkers {
		g.Go(func() error {
			for j := range jobsChannel {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				if sc.Limiter != nil {
					if err := sc.Limiter.Wait(ctx); err != nil {
						return err
					}
				}

				chunk := assets[j.start:j.end]
				symbols := make([]string, len(chunk))
				for i, asset := range chunk {
					symbols[i] = asset.Symbol
				}

				response, err := sc.PullBars(symbols, length, parsed, timeshift)
				if err != nil {
					return err
				}

				series, err := sc.ParseBars(response, chunk)
				if err != nil {
					return err
				}

				results[j.index] = series
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := make(map[string]*m.BarSeries, len(assets))
	for _, chunkResult := range results {
		maps.Copy(res, chunkResult)
	}

	return res, nil
}
