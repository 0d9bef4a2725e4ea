package status

import (
	"fmt"
	"slices"
)

// ReviewDecision is the review state GitHub reports for a pull request.
type ReviewDecision int

const (
	ReviewUnknown ReviewDecision = iota
	ReviewApproved
	ReviewChangesRequested
	ReviewRequired
)

// ParseReviewDecision maps the GraphQL reviewDecision value.
func ParseReviewDecision(s string) ReviewDecision {
	switch s {
	case "APPROVED":
		return ReviewApproved
	case "CHANGES_REQUESTED":
		return ReviewChangesRequested
	case "REVIEW_REQUIRED":
		return ReviewRequired
	}
	return ReviewUnknown
}

// MergeState is the mergeability GitHub reports for a pull request.
type MergeState int

const (
	MergeStateUnknown MergeState = iota
	MergeStateMergeable
	MergeStateConflicting
)

// ParseMergeState maps the GraphQL mergeable value.
func ParseMergeState(s string) MergeState {
	switch s {
	case "MERGEABLE":
		return MergeStateMergeable
	case "CONFLICTING":
		return MergeStateConflicting
	}
	return MergeStateUnknown
}

// CheckResult is one check run or legacy status context on the pull
// request's last commit.
type CheckResult struct {
	Name       string
	IsRequired bool
	State      string
}

// failingStates are the check conclusions that cannot turn green
// without a re-run.
var failingStates = map[string]struct{}{
	"FAILURE":         {},
	"ERROR":           {},
	"TIMED_OUT":       {},
	"CANCELLED":       {},
	"ACTION_REQUIRED": {},
	"STARTUP_FAILURE": {},
}

// Failing reports whether the check result is in a failed state.
func (c CheckResult) Failing() bool {
	_, ok := failingStates[c.State]
	return ok
}

// Snapshot is an immutable per-run view of one pull request's fetched
// state. All fields are populated eagerly at assembly time; the
// predicate methods recompute from those fields and cache nothing.
type Snapshot struct {
	Owner  string
	Repo   string
	Number int

	IsDraft        bool
	InMergeQueue   bool
	ReviewDecision ReviewDecision
	MergeState     MergeState
	BaseBranch     string
	DefaultBranch  string
	Labels         []string
	Checks         []CheckResult

	// Current placement on the board, empty when the pull request has
	// no item with the configured status field.
	CurrentOptionID   string
	CurrentOptionName string
	ItemID            string
	ProjectID         string
	FieldID           string
}

// RepoWithOwner returns the owner/name form used by gh commands.
func (s *Snapshot) RepoWithOwner() string {
	return fmt.Sprintf("%s/%s", s.Owner, s.Repo)
}

// AgainstDefaultBranch reports whether the pull request targets the
// repository's default branch.
func (s *Snapshot) AgainstDefaultBranch() bool {
	return s.BaseBranch == s.DefaultBranch
}

// DaisyChained reports whether the pull request is stacked on a branch
// other than the default branch.
func (s *Snapshot) DaisyChained() bool {
	return !s.AgainstDefaultBranch()
}

// Conflicting reports whether GitHub considers the merge conflicting.
func (s *Snapshot) Conflicting() bool {
	return s.MergeState == MergeStateConflicting
}

// UnknownMergeState reports whether mergeability is still unknown
// (GitHub computes it asynchronously).
func (s *Snapshot) UnknownMergeState() bool {
	return s.MergeState == MergeStateUnknown
}

// Approved reports whether the review decision is approved.
func (s *Snapshot) Approved() bool {
	return s.ReviewDecision == ReviewApproved
}

// HasFailingRequiredBuilds reports whether any required check on the
// last commit failed.
func (s *Snapshot) HasFailingRequiredBuilds() bool {
	for _, c := range s.Checks {
		if c.IsRequired && c.Failing() {
			return true
		}
	}
	return false
}

// FailingRequiredChecks returns the failed required checks in the
// order they were fetched.
func (s *Snapshot) FailingRequiredChecks() []CheckResult {
	var failed []CheckResult
	for _, c := range s.Checks {
		if c.IsRequired && c.Failing() {
			failed = append(failed, c)
		}
	}
	return failed
}

// HasLabel reports whether the pull request carries the label.
func (s *Snapshot) HasLabel(name string) bool {
	return slices.Contains(s.Labels, name)
}

// OnBoard reports whether the pull request has the project item
// identifiers needed to change its status.
func (s *Snapshot) OnBoard() bool {
	return s.ItemID != "" && s.ProjectID != "" && s.FieldID != ""
}
