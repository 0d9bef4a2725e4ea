// Package executor turns engine decisions into host mutations and
// counts what changed for the run summary.
package executor

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"autostatus/internal/github"
	"autostatus/internal/status"
)

// Counts aggregates changes by human-readable name.
type Counts struct {
	Moved   map[string]int
	Applied map[string]int
	Removed map[string]int
}

// NewCounts returns empty, initialised counts.
func NewCounts() Counts {
	return Counts{
		Moved:   make(map[string]int),
		Applied: make(map[string]int),
		Removed: make(map[string]int),
	}
}

// Merge folds other into c. Used to combine per-worker partial counts.
func (c Counts) Merge(other Counts) {
	for name, n := range other.Moved {
		c.Moved[name] += n
	}
	for name, n := range other.Applied {
		c.Applied[name] += n
	}
	for name, n := range other.Removed {
		c.Removed[name] += n
	}
}

// Empty reports whether nothing changed.
func (c Counts) Empty() bool {
	return len(c.Moved) == 0 && len(c.Applied) == 0 && len(c.Removed) == 0
}

// Executor applies outcomes through the host client.
type Executor struct {
	client       github.Client
	reg          *status.Registry
	rerunBuilds  []string
	failingLabel string
	log          *logrus.Logger
}

// New returns an executor. rerunBuilds lists the required build names
// (matched case-insensitively, exact first then substring) to re-run
// when a pull request moves back to in progress.
func New(client github.Client, reg *status.Registry, rerunBuilds []string, failingLabel string, log *logrus.Logger) *Executor {
	return &Executor{
		client:       client,
		reg:          reg,
		rerunBuilds:  rerunBuilds,
		failingLabel: failingLabel,
		log:          log,
	}
}

// Apply performs the changes one outcome asks for and returns the
// count deltas. The common steady-state outcome (no target, no draft
// flip, no label action) makes no host calls at all.
func (e *Executor) Apply(ctx context.Context, s *status.Snapshot, out status.Outcome) (Counts, error) {
	counts := NewCounts()

	if out.Target != status.StatusNone && !out.NoOp {
		opt, ok := e.reg.Option(out.Target)
		if !ok {
			return counts, fmt.Errorf("target status %v has no configured option", out.Target)
		}
		if !s.OnBoard() {
			return counts, fmt.Errorf("%s#%d needs a status change but has no project item identifiers",
				s.RepoWithOwner(), s.Number)
		}

		from := s.CurrentOptionName
		if from == "" {
			from = "(none)"
		}
		e.log.Infof("moving %s#%d from %q to %q", s.RepoWithOwner(), s.Number, from, opt.Name)

		if err := e.client.SetProjectItemStatus(ctx, s.ItemID, s.ProjectID, s.FieldID, opt.ID); err != nil {
			return counts, fmt.Errorf("setting status of %s#%d: %w", s.RepoWithOwner(), s.Number, err)
		}
		counts.Moved[opt.Name]++

		if out.Target == status.StatusInProgress && len(e.rerunBuilds) > 0 {
			if err := e.rerunFailingBuilds(ctx, s); err != nil {
				return counts, err
			}
		}
	}

	if out.MarkDraft {
		e.log.Infof("marking %s#%d as draft", s.RepoWithOwner(), s.Number)
		if err := e.client.SetDraft(ctx, s.Number, s.RepoWithOwner()); err != nil {
			return counts, fmt.Errorf("marking %s#%d as draft: %w", s.RepoWithOwner(), s.Number, err)
		}
	}

	switch out.Label {
	case status.LabelApply:
		e.log.Infof("applying %q to %s#%d", e.failingLabel, s.RepoWithOwner(), s.Number)
		if err := e.client.ApplyLabel(ctx, s.Number, s.RepoWithOwner(), e.failingLabel); err != nil {
			return counts, fmt.Errorf("applying label to %s#%d: %w", s.RepoWithOwner(), s.Number, err)
		}
		counts.Applied[e.failingLabel]++
	case status.LabelRemove:
		e.log.Infof("removing %q from %s#%d", e.failingLabel, s.RepoWithOwner(), s.Number)
		if err := e.client.RemoveLabel(ctx, s.Number, s.RepoWithOwner(), e.failingLabel); err != nil {
			return counts, fmt.Errorf("removing label from %s#%d: %w", s.RepoWithOwner(), s.Number, err)
		}
		counts.Removed[e.failingLabel]++
	}

	return counts, nil
}

var runIDPattern = regexp.MustCompile(`/actions/runs/(\d+)`)

// runIDFromLink extracts the workflow run id from a check detail link.
func runIDFromLink(link string) string {
	m := runIDPattern.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return m[1]
}

type failingRun struct {
	name  string // lower-cased check name
	runID string
}

// rerunFailingBuilds re-runs the failed workflow runs behind the
// configured build names. Matching walks the failing checks in fetch
// order: an exact name match wins, then the first substring match.
// Each run is re-run at most once per pull request.
func (e *Executor) rerunFailingBuilds(ctx context.Context, s *status.Snapshot) error {
	checks, err := e.client.ListFailingRequiredChecks(ctx, s.Number, s.RepoWithOwner())
	if err != nil {
		return fmt.Errorf("listing failing checks of %s#%d: %w", s.RepoWithOwner(), s.Number, err)
	}

	var runs []failingRun
	for _, chk := range checks {
		id := runIDFromLink(chk.Link)
		if id == "" {
			continue
		}
		runs = append(runs, failingRun{name: strings.ToLower(chk.Name), runID: id})
	}

	rerun := make(map[string]struct{})
	for _, want := range e.rerunBuilds {
		needle := strings.ToLower(want)

		var id string
		for _, r := range runs {
			if r.name == needle {
				id = r.runID
				break
			}
		}
		if id == "" {
			for _, r := range runs {
				if strings.Contains(r.name, needle) {
					id = r.runID
					break
				}
			}
		}
		if id == "" {
			continue
		}
		if _, done := rerun[id]; done {
			continue
		}
		rerun[id] = struct{}{}

		e.log.Infof("re-running failed build %q (run %s) for %s#%d", want, id, s.RepoWithOwner(), s.Number)
		if err := e.client.RerunFailedRun(ctx, id, s.RepoWithOwner()); err != nil {
			return fmt.Errorf("re-running %q for %s#%d: %w", want, s.RepoWithOwner(), s.Number, err)
		}
	}
	return nil
}
