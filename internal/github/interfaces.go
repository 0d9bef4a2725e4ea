package github

import (
	"context"
	"encoding/json"
)

// Client is the host-side collaborator. The production implementation
// shells out to the gh CLI and uses its GraphQL client; tests use
// MockClient.
type Client interface {
	// ListProjectItems lists the items tracked on a project board.
	ListProjectItems(ctx context.Context, projectNumber int, owner string, limit int) ([]ProjectItem, error)
	// RunGraphQLQuery executes one GraphQL query and returns the data
	// payload keyed by top-level alias.
	RunGraphQLQuery(ctx context.Context, query string) (map[string]json.RawMessage, error)
	// SetProjectItemStatus moves a project item to a new single-select
	// option.
	SetProjectItemStatus(ctx context.Context, itemID, projectID, fieldID, optionID string) error
	ApplyLabel(ctx context.Context, number int, repoWithOwner, label string) error
	RemoveLabel(ctx context.Context, number int, repoWithOwner, label string) error
	// SetDraft flips a pull request back to draft.
	SetDraft(ctx context.Context, number int, repoWithOwner string) error
	// RerunFailedRun re-runs the failed jobs of a workflow run.
	RerunFailedRun(ctx context.Context, runID, repoWithOwner string) error
	ListFailingRequiredChecks(ctx context.Context, number int, repoWithOwner string) ([]CheckRun, error)
	SearchOpenPullRequestsByAuthor(ctx context.Context, author, owner string, projectNumber, limit int) ([]SearchResult, error)
	// AuthStatus returns the gh authentication diagnostic output.
	AuthStatus(ctx context.Context) (string, error)
}

// ProjectItem is one row of `gh project item-list`.
type ProjectItem struct {
	ID      string   `json:"id"`
	Labels  []string `json:"labels"`
	Status  string   `json:"status"`
	Content struct {
		Type       string `json:"type"`
		Number     int    `json:"number"`
		Repository string `json:"repository"`
	} `json:"content"`
}

// CheckRun is one failing required check as reported by
// `gh pr checks`.
type CheckRun struct {
	Name  string `json:"name"`
	State string `json:"state"`
	Link  string `json:"link"`
}

// SearchResult is one pull request from `gh search prs`.
type SearchResult struct {
	Number     int `json:"number"`
	Repository struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"repository"`
}

var _ Client = (*CLIClient)(nil)
var _ Client = (*MockClient)(nil)
