package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"sjsage522/contactmerge/helpers"
	"sjsage522/contactmerge/logger"
	"sjsage522/contactmerge/services/publisher"
)

// Job is one unit of work run by a Worker
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Worker runs jobs with bounded concurrency and publishes results
type Worker struct {
	ctx         context.Context
	publisher   publisher.Publisher
	logger      helpers.Journal
	concurrency int
}

// NewWorker creates a new worker. A nil publisher disables publishing.
func NewWorker(
	ctx context.Context,
	pub publisher.Publisher,
	journal helpers.Journal,
	concurrency int,
) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if journal == nil {
		journal = helpers.NopJournal{}
	}
	return &Worker{
		ctx:         ctx,
		publisher:   pub,
		logger:      journal,
		concurrency: concurrency,
	}
}

// Run executes jobs, at most concurrency at a time, and waits for them.
// Failures are written to the journal and counted. Jobs not yet started
// when the context is cancelled are skipped.
func (w *Worker) Run(jobs []Job) int {
	start := time.Now()
	sem := make(chan struct{}, w.concurrency)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)

	started := 0
loop:
	for _, job := range jobs {
		if w.ctx.Err() != nil {
			break
		}
		select {
		case <-w.ctx.Done():
			break loop
		case sem <- struct{}{}:
		}
		started++

		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := job.Run(w.ctx); err != nil {
				w.logger.LogError(job.Name, err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(job)
	}
	wg.Wait()

	if skipped := len(jobs) - started; skipped > 0 {
		logger.ForWorker().Warn().Int("skipped", skipped).Msg("Context cancelled, remaining jobs skipped")
	}
	logger.ForWorker().Debug().
		Int("jobs", len(jobs)).
		Int("failed", failed).
		Dur("elapsed", time.Since(start)).
		Msg("Jobs finished")
	return failed
}

// Publish encodes each record as JSON and publishes it under key, then
// trims the streams. It returns the number of records published.
func (w *Worker) Publish(key string, records []interface{}) int {
	if w.publisher == nil {
		return 0
	}

	published := 0
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			w.logger.LogError(key, err)
			continue
		}
		if err := w.publisher.Publish(key, data); err != nil {
			w.logger.LogError(key, err)
			continue
		}
		published++
	}

	if err := w.publisher.TrimStreams(); err != nil {
		w.logger.LogError("StreamTrimming", err)
	}
	return published
}
