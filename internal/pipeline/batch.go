package pipeline

import (
	"context"
	"sync"
)

// RunBatch analyzes requests with at most workers concurrent runs. Results
// are returned in request order. Requests not started before ctx is done are
// reported as cancelled.
func (o *Orchestrator) RunBatch(ctx context.Context, requests []Request, workers int) []Result {
	results := make([]Result, len(requests))
	if len(requests) == 0 {
		return results
	}
	workers = min(max(workers, 1), len(requests))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for idx := range jobs {
				results[idx] = o.Run(ctx, requests[idx])
			}
		})
	}

	next := 0
feed:
	for ; next < len(requests); next++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()

	for ; next < len(requests); next++ {
		results[next] = Result{
			Status:  StatusCancelled,
			OwnerID: requests[next].OwnerID,
			SubID:   requests[next].SubID,
			Message: "cancelled before start",
		}
	}
	return results
}
