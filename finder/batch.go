package finder

import (
	"context"
	"log"
	"sync"
	"time"

	"nipfinder/models"
)

const defaultBatchConcurrency = 3

// FindBatch обрабатывает пакет запросов с ограниченным параллелизмом.
// Каждый отдельный каскад внутри остается последовательным; параллелизм
// допустим только между независимыми фирмами.
func (f *Finder) FindBatch(ctx context.Context, batch models.BatchRequest) *models.BatchResult {
	start := time.Now()

	maxConcurrent := batch.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultBatchConcurrency
	}

	log.Printf("[Finder] INFO: batch of %d companies, concurrency %d", len(batch.Companies), maxConcurrent)

	results := make([]models.NIPResult, len(batch.Companies))
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup

	for i, req := range batch.Companies {
		if batch.SkipCache {
			req.SkipCache = true
		}

		wg.Add(1)
		go func(idx int, r models.NIPRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = *f.FindNIP(ctx, r)
		}(i, req)
	}
	wg.Wait()

	out := &models.BatchResult{
		Results:       results,
		Total:         len(results),
		TotalTimeMS:   time.Since(start).Milliseconds(),
		StrategyStats: make(map[string]int),
	}
	for i := range results {
		r := &results[i]
		if r.Found {
			out.Found++
		} else {
			out.NotFound++
		}
		out.TotalCostUSD += r.CostUSD
		if r.StrategyUsed != "" {
			out.StrategyStats[string(r.StrategyUsed)]++
		}
	}
	if out.Total > 0 {
		out.SuccessRate = float64(out.Found) / float64(out.Total)
		out.AvgCostUSD = out.TotalCostUSD / float64(out.Total)
	}

	log.Printf("[Finder] INFO: batch done, %d/%d found, total cost $%.4f",
		out.Found, out.Total, out.TotalCostUSD)
	return out
}
