// Package downloader runs concurrent image downloads with dedup against
// the photo directory, rate limiting, and per-download retry.
package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"profilesync/pkg/logger"
	"profilesync/pkg/ratelimit"
	"profilesync/pkg/retry"
)

// Job is a single image download task.
type Job struct {
	URL      string
	Filename string
	Source   string
}

// Result reports the outcome of one job.
type Result struct {
	Job      Job
	Skipped  bool
	Size     int
	Duration time.Duration
	Err      error
}

// Fetcher downloads binary content.
type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Store persists downloaded images and answers existence checks.
type Store interface {
	Exists(filename string) bool
	Save(r io.Reader, filename string) error
}

// Stats summarizes a pool run.
type Stats struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Pool downloads a batch of jobs with a fixed number of workers.
type Pool struct {
	workers int
	fetcher Fetcher
	store   Store
	limiter ratelimit.Limiter
	retry   *retry.Config
	logger  logger.Logger
}

func NewPool(workers int, fetcher Fetcher, store Store, limiter ratelimit.Limiter, retryCfg *retry.Config, log logger.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pool{
		workers: workers,
		fetcher: fetcher,
		store:   store,
		limiter: limiter,
		retry:   retryCfg,
		logger:  log,
	}
}

// Run processes all jobs and returns aggregate stats. Individual download
// failures are logged and counted but do not abort the batch; context
// cancellation does.
func (p *Pool) Run(ctx context.Context, jobs []Job) Stats {
	jobQueue := make(chan Job)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for job := range jobQueue {
				select {
				case results <- p.process(ctx, job, id):
				case <-ctx.Done():
					return
				}
			}
		}(i)
	}

	go func() {
		defer close(jobQueue)
		for _, job := range jobs {
			select {
			case jobQueue <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var stats Stats
	for res := range results {
		switch {
		case res.Err != nil:
			stats.Failed++
			logger.LogDownload(res.Job.Source, res.Job.Filename, false, res.Err)
		case res.Skipped:
			stats.Skipped++
		default:
			stats.Downloaded++
			logger.LogDownload(res.Job.Source, res.Job.Filename, true, nil)
		}
	}

	p.logger.InfoWithFields("download batch finished", map[string]interface{}{
		"workers":    p.workers,
		"downloaded": stats.Downloaded,
		"skipped":    stats.Skipped,
		"failed":     stats.Failed,
	})
	return stats
}

func (p *Pool) process(ctx context.Context, job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}

	// A file on disk is complete: saves are atomic renames.
	if p.store.Exists(job.Filename) {
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	if p.limiter != nil && !p.limiter.Allow() {
		p.logger.DebugWithFields("worker waiting for rate limit", map[string]interface{}{
			"worker_id": workerID,
			"filename":  job.Filename,
		})
		p.limiter.Wait()
	}

	if err := ctx.Err(); err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	data, err := retry.DoWithResult(func() ([]byte, error) {
		return p.fetcher.Download(ctx, job.URL)
	}, p.retry)
	if err != nil {
		result.Err = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	result.Size = len(data)

	if err := p.store.Save(bytes.NewReader(data), job.Filename); err != nil {
		result.Err = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	p.logger.DebugWithFields("worker completed download", map[string]interface{}{
		"worker_id": workerID,
		"source":    job.Source,
		"filename":  job.Filename,
		"size":      result.Size,
		"duration":  result.Duration,
	})
	return result
}
