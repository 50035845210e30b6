// Package syncer runs the registered source pipelines. Each pipeline is a
// linear fetch, transform, persist run; the syncer fans out over sources,
// records per-source outcomes, and reports whether any pipeline failed.
package syncer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"profilesync/pkg/logger"
	"profilesync/pkg/syncstate"
)

// Result summarizes one pipeline run.
type Result struct {
	// Items is the number of records fetched and persisted.
	Items int
	// Skipped counts work avoided: images already on disk, categories
	// passed over by the incremental count check.
	Skipped int
}

// Source is one sync pipeline.
type Source interface {
	Name() string
	Sync(ctx context.Context) (*Result, error)
}

// Runner executes registered sources and records outcomes.
type Runner struct {
	sources map[string]Source
	order   []string
	state   *syncstate.Store
	log     logger.Logger
}

func NewRunner(state *syncstate.Store, log logger.Logger) *Runner {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Runner{
		sources: make(map[string]Source),
		state:   state,
		log:     log,
	}
}

// Register adds a source. Registering the same name twice replaces it.
func (r *Runner) Register(s Source) {
	name := s.Name()
	if _, exists := r.sources[name]; !exists {
		r.order = append(r.order, name)
	}
	r.sources[name] = s
}

// Names returns the registered source names in registration order.
func (r *Runner) Names() []string {
	return append([]string(nil), r.order...)
}

// Run executes the named sources concurrently. All requested sources run
// to completion even when some fail; the returned error aggregates every
// failure so the process can exit non-zero.
func (r *Runner) Run(ctx context.Context, names []string) error {
	if len(names) == 0 {
		names = r.order
	}
	for _, name := range names {
		if _, ok := r.sources[name]; !ok {
			return fmt.Errorf("unknown source %q (registered: %v)", name, r.order)
		}
	}

	type outcome struct {
		name string
		err  error
	}
	outcomes := make([]outcome, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			outcomes[i] = outcome{name: name, err: r.runOne(ctx, r.sources[name])}
			// Failures are collected, not propagated, so sibling
			// pipelines keep running.
			return nil
		})
	}
	g.Wait()

	var failed []string
	for _, o := range outcomes {
		if o.err != nil {
			failed = append(failed, o.name)
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return fmt.Errorf("sync failed for %d of %d sources: %v", len(failed), len(names), failed)
	}
	return nil
}

func (r *Runner) runOne(ctx context.Context, src Source) error {
	start := time.Now()
	result, err := src.Sync(ctx)
	duration := time.Since(start)

	rec := &syncstate.Record{
		Source:   src.Name(),
		LastRun:  start,
		Duration: duration,
		Status:   syncstate.StatusSuccess,
	}
	if result != nil {
		rec.Items = result.Items
		rec.Skipped = result.Skipped
		logger.LogSyncRun(src.Name(), result.Items, result.Skipped, duration, err)
	} else {
		logger.LogSyncRun(src.Name(), 0, 0, duration, err)
	}
	if err != nil {
		rec.Status = syncstate.StatusFailed
		rec.Error = err.Error()
	}

	if r.state != nil {
		if stateErr := r.state.Record(rec); stateErr != nil {
			r.log.WithError(stateErr).Warn("failed to record sync state")
		}
	}
	return err
}
