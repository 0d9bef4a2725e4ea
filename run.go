package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"autostatus/internal/executor"
	"autostatus/internal/github"
	"autostatus/internal/loader"
	"autostatus/internal/status"
)

// maxWorkers bounds the decision/execution fan-out. Decisions are
// pure; only the host calls block.
const maxWorkers = 4

// Report is the outcome of one run.
type Report struct {
	ProjectTitle string
	Counts       executor.Counts
	Processed    int
}

// Run executes one full pass: load the board, decide per pull request,
// apply the changes, aggregate the counts. Per-pull-request failures
// do not stop the other pull requests but make the run fail.
func Run(ctx context.Context, cfg *Config, client github.Client, log *logrus.Logger) (*Report, error) {
	result, err := loader.Load(ctx, client, loader.Params{
		ProjectNumber: cfg.ProjectNumber,
		Owner:         cfg.Owner,
		OwnerType:     cfg.OwnerType,
		StatusField:   cfg.StatusField,
		Limit:         cfg.Limit,
		BatchSize:     cfg.BatchSize,
		Author:        cfg.Author,
		Configured:    cfg.ConfiguredOptions(),
		IgnoredIDs:    cfg.IgnoredIDs,
	}, log)
	if err != nil {
		if auth, aerr := client.AuthStatus(ctx); aerr == nil {
			log.Debugf("gh auth status:\n%s", auth)
		}
		return nil, err
	}

	report := &Report{
		ProjectTitle: result.ProjectTitle,
		Counts:       executor.NewCounts(),
		Processed:    len(result.Snapshots),
	}
	if len(result.Snapshots) == 0 {
		log.Info("no pull requests to process")
		return report, nil
	}

	engine := status.NewEngine(result.Registry, cfg.MarkDraft, cfg.FailingTestLabel)
	exec := executor.New(client, result.Registry, cfg.RerunBuilds, cfg.FailingTestLabel, log)

	workers := min(maxWorkers, len(result.Snapshots))
	jobs := make(chan *status.Snapshot)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Per-worker partial counts, merged once at the end.
			local := executor.NewCounts()
			var localErrs []error

			for s := range jobs {
				outcome := engine.Decide(s)
				delta, err := exec.Apply(ctx, s, outcome)
				local.Merge(delta)
				if err != nil {
					localErrs = append(localErrs, fmt.Errorf("%s#%d: %w", s.RepoWithOwner(), s.Number, err))
				}
			}

			mu.Lock()
			report.Counts.Merge(local)
			errs = append(errs, localErrs...)
			mu.Unlock()
		}()
	}

	for _, s := range result.Snapshots {
		jobs <- s
	}
	close(jobs)
	wg.Wait()

	return report, errors.Join(errs...)
}
