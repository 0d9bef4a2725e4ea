package github

import (
	"context"
	"encoding/json"
	"sync"
)

// StatusChange records one SetProjectItemStatus call.
type StatusChange struct {
	ItemID    string
	ProjectID string
	FieldID   string
	OptionID  string
}

// LabelChange records one ApplyLabel or RemoveLabel call.
type LabelChange struct {
	Number int
	Repo   string
	Label  string
}

// RerunCall records one RerunFailedRun call.
type RerunCall struct {
	RunID string
	Repo  string
}

// MockClient implements Client for tests. Behavior is controlled by
// the function fields; unset functions return zero values. Calls are
// recorded and safe for concurrent use.
type MockClient struct {
	mu sync.Mutex

	ListProjectItemsFunc func(projectNumber int, owner string, limit int) ([]ProjectItem, error)
	RunGraphQLQueryFunc  func(query string) (map[string]json.RawMessage, error)
	FailingChecksFunc    func(number int, repo string) ([]CheckRun, error)
	SearchByAuthorFunc   func(author, owner string, projectNumber, limit int) ([]SearchResult, error)

	SetStatusErr   error
	ApplyLabelErr  error
	RemoveLabelErr error
	SetDraftErr    error
	RerunErr       error
	AuthStatusText string

	Queries       []string
	StatusChanges []StatusChange
	AppliedLabels []LabelChange
	RemovedLabels []LabelChange
	DraftCalls    []int
	RerunCalls    []RerunCall
}

func (m *MockClient) ListProjectItems(ctx context.Context, projectNumber int, owner string, limit int) ([]ProjectItem, error) {
	if m.ListProjectItemsFunc != nil {
		return m.ListProjectItemsFunc(projectNumber, owner, limit)
	}
	return nil, nil
}

func (m *MockClient) RunGraphQLQuery(ctx context.Context, query string) (map[string]json.RawMessage, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, query)
	m.mu.Unlock()
	if m.RunGraphQLQueryFunc != nil {
		return m.RunGraphQLQueryFunc(query)
	}
	return map[string]json.RawMessage{}, nil
}

func (m *MockClient) SetProjectItemStatus(ctx context.Context, itemID, projectID, fieldID, optionID string) error {
	m.mu.Lock()
	m.StatusChanges = append(m.StatusChanges, StatusChange{itemID, projectID, fieldID, optionID})
	m.mu.Unlock()
	return m.SetStatusErr
}

func (m *MockClient) ApplyLabel(ctx context.Context, number int, repoWithOwner, label string) error {
	m.mu.Lock()
	m.AppliedLabels = append(m.AppliedLabels, LabelChange{number, repoWithOwner, label})
	m.mu.Unlock()
	return m.ApplyLabelErr
}

func (m *MockClient) RemoveLabel(ctx context.Context, number int, repoWithOwner, label string) error {
	m.mu.Lock()
	m.RemovedLabels = append(m.RemovedLabels, LabelChange{number, repoWithOwner, label})
	m.mu.Unlock()
	return m.RemoveLabelErr
}

func (m *MockClient) SetDraft(ctx context.Context, number int, repoWithOwner string) error {
	m.mu.Lock()
	m.DraftCalls = append(m.DraftCalls, number)
	m.mu.Unlock()
	return m.SetDraftErr
}

func (m *MockClient) RerunFailedRun(ctx context.Context, runID, repoWithOwner string) error {
	m.mu.Lock()
	m.RerunCalls = append(m.RerunCalls, RerunCall{runID, repoWithOwner})
	m.mu.Unlock()
	return m.RerunErr
}

func (m *MockClient) ListFailingRequiredChecks(ctx context.Context, number int, repoWithOwner string) ([]CheckRun, error) {
	if m.FailingChecksFunc != nil {
		return m.FailingChecksFunc(number, repoWithOwner)
	}
	return nil, nil
}

func (m *MockClient) SearchOpenPullRequestsByAuthor(ctx context.Context, author, owner string, projectNumber, limit int) ([]SearchResult, error) {
	if m.SearchByAuthorFunc != nil {
		return m.SearchByAuthorFunc(author, owner, projectNumber, limit)
	}
	return nil, nil
}

func (m *MockClient) AuthStatus(ctx context.Context) (string, error) {
	return m.AuthStatusText, nil
}
