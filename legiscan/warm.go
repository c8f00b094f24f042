package legiscan

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	warmMaxAttempts = 3
	warmBaseDelay   = 500 * time.Millisecond
)

// WarmReport summarizes a cache warming pass.
type WarmReport struct {
	Warmed int
	Failed int
}

// WarmCache fetches the given bills through the client concurrently so
// later pipeline runs hit the cache instead of the API. Each fetch is
// retried with backoff; failures are counted, not fatal. workers < 1
// selects a default sized from the machine.
func WarmCache(ctx context.Context, client *Client, billIDs []int64, workers int) (WarmReport, error) {
	if workers < 1 {
		workers = runtime.NumCPU() / 2
		if workers < 1 {
			workers = 1
		}
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return WarmReport{}, err
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		warmed atomic.Int64
		failed atomic.Int64
	)

	for _, billID := range billIDs {
		billID := billID
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			err := RetryWithBackoff(ctx, func() error {
				_, err := client.GetBill(ctx, billID)
				return err
			}, warmMaxAttempts, warmBaseDelay)
			if err != nil {
				failed.Add(1)
				client.logger.Warn("could not warm bill cache", "bill_id", billID, "err", err)
				return
			}
			warmed.Add(1)
		})
		if err != nil {
			wg.Done()
			failed.Add(1)
			client.logger.Warn("could not submit warm task", "bill_id", billID, "err", err)
		}
	}

	wg.Wait()

	report := WarmReport{
		Warmed: int(warmed.Load()),
		Failed: int(failed.Load()),
	}
	client.logger.Info("cache warming complete", "warmed", report.Warmed, "failed", report.Failed)
	return report, nil
}
