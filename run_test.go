package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"autostatus/internal/github"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func runConfig() *Config {
	return &Config{
		ProjectNumber:    4,
		Owner:            "acme",
		OwnerType:        "org",
		StatusField:      "Status",
		InProgressID:     "id-in-progress",
		NeedsReviewID:    "id-needs-review",
		FailingTestLabel: "failing-tests",
		MarkDraft:        true,
		RerunBuilds:      []string{"integration"},
		Limit:            100,
		BatchSize:        25,
	}
}

const runProjectJSON = `{
	"projectV2": {
		"id": "PVT_board",
		"title": "Team board",
		"field": {
			"id": "PVTSSF_status",
			"name": "Status",
			"options": [
				{"id": "id-in-progress", "name": "In progress"},
				{"id": "id-needs-review", "name": "Needs review"}
			]
		}
	}
}`

// runRepoJSON is a PR parked in needs-review whose required
// integration build failed: it must be pulled back to in progress.
func runRepoJSON(number int) string {
	return fmt.Sprintf(`{
		"id": "R_repo",
		"defaultBranchRef": {"name": "main"},
		"pullRequest": {
			"isDraft": false,
			"isInMergeQueue": false,
			"reviewDecision": "REVIEW_REQUIRED",
			"mergeable": "MERGEABLE",
			"baseRefName": "main",
			"commits": {"nodes": [{"commit": {
				"checkSuites": {"nodes": [{"checkRuns": {"nodes": [
					{"name": "integration-tests", "conclusion": "FAILURE", "isRequired": true}
				]}}]},
				"status": {"contexts": []}
			}}]},
			"projectItems": {"nodes": [{
				"id": "PVTI_%d",
				"project": {"id": "PVT_board", "number": 4},
				"fieldValueByName": {
					"optionId": "id-needs-review",
					"name": "Needs review",
					"field": {"id": "PVTSSF_status"}
				}
			}]}
		}
	}`, number)
}

func runMock(t *testing.T) *github.MockClient {
	t.Helper()
	mock := &github.MockClient{
		ListProjectItemsFunc: func(int, string, int) ([]github.ProjectItem, error) {
			var item github.ProjectItem
			item.ID = "PVTI_42"
			item.Content.Type = "PullRequest"
			item.Content.Number = 42
			item.Content.Repository = "acme/widgets"
			return []github.ProjectItem{item}, nil
		},
		FailingChecksFunc: func(int, string) ([]github.CheckRun, error) {
			return []github.CheckRun{{
				Name:  "integration-tests",
				State: "FAILURE",
				Link:  "https://github.com/acme/widgets/actions/runs/555/job/1",
			}}, nil
		},
	}
	mock.RunGraphQLQueryFunc = func(query string) (map[string]json.RawMessage, error) {
		return map[string]json.RawMessage{
			"projectOwner":      json.RawMessage(runProjectJSON),
			"pullAcmeWidgets42": json.RawMessage(runRepoJSON(42)),
		}, nil
	}
	return mock
}

func TestRunEndToEnd(t *testing.T) {
	mock := runMock(t)

	report, err := Run(context.Background(), runConfig(), mock, testLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.ProjectTitle != "Team board" {
		t.Errorf("title = %q", report.ProjectTitle)
	}
	if report.Processed != 1 {
		t.Errorf("processed = %d", report.Processed)
	}

	if len(mock.StatusChanges) != 1 || mock.StatusChanges[0].OptionID != "id-in-progress" {
		t.Errorf("status changes = %+v", mock.StatusChanges)
	}
	if report.Counts.Moved["In progress"] != 1 {
		t.Errorf("moved = %v", report.Counts.Moved)
	}

	// The in-progress branch re-runs the failing build and, with
	// mark-draft enabled, flips the PR back to draft.
	if len(mock.RerunCalls) != 1 || mock.RerunCalls[0].RunID != "555" {
		t.Errorf("rerun calls = %+v", mock.RerunCalls)
	}
	if len(mock.DraftCalls) != 1 {
		t.Errorf("draft calls = %v", mock.DraftCalls)
	}

	// Failing required build plus missing label: apply fires.
	if len(mock.AppliedLabels) != 1 || mock.AppliedLabels[0].Label != "failing-tests" {
		t.Errorf("applied labels = %+v", mock.AppliedLabels)
	}
	if report.Counts.Applied["failing-tests"] != 1 {
		t.Errorf("applied = %v", report.Counts.Applied)
	}
}

func TestRunSecondPassIsSteadyState(t *testing.T) {
	mock := runMock(t)

	// The same PR a few passes later: in progress, draft, label gone
	// again, build green.
	mock.RunGraphQLQueryFunc = func(query string) (map[string]json.RawMessage, error) {
		repo := `{
			"id": "R_repo",
			"defaultBranchRef": {"name": "main"},
			"pullRequest": {
				"isDraft": true,
				"isInMergeQueue": false,
				"reviewDecision": "REVIEW_REQUIRED",
				"mergeable": "MERGEABLE",
				"baseRefName": "main",
				"commits": {"nodes": [{"commit": {
					"checkSuites": {"nodes": [{"checkRuns": {"nodes": [
						{"name": "integration-tests", "conclusion": "SUCCESS", "isRequired": true}
					]}}]},
					"status": {"contexts": []}
				}}]},
				"projectItems": {"nodes": [{
					"id": "PVTI_42",
					"project": {"id": "PVT_board", "number": 4},
					"fieldValueByName": {
						"optionId": "id-in-progress",
						"name": "In progress",
						"field": {"id": "PVTSSF_status"}
					}
				}]}
			}
		}`
		return map[string]json.RawMessage{
			"projectOwner":      json.RawMessage(runProjectJSON),
			"pullAcmeWidgets42": json.RawMessage(repo),
		}, nil
	}

	report, err := Run(context.Background(), runConfig(), mock, testLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !report.Counts.Empty() {
		t.Errorf("counts = %+v", report.Counts)
	}
	if len(mock.StatusChanges)+len(mock.DraftCalls)+len(mock.AppliedLabels)+len(mock.RemovedLabels)+len(mock.RerunCalls) != 0 {
		t.Error("steady state must make no host calls")
	}
}

func TestRunRemovesLabelOnceBuildsPass(t *testing.T) {
	mock := runMock(t)

	// In progress with the failing-tests label, build green again.
	mock.ListProjectItemsFunc = func(int, string, int) ([]github.ProjectItem, error) {
		var item github.ProjectItem
		item.ID = "PVTI_42"
		item.Labels = []string{"failing-tests"}
		item.Content.Type = "PullRequest"
		item.Content.Number = 42
		item.Content.Repository = "acme/widgets"
		return []github.ProjectItem{item}, nil
	}
	mock.RunGraphQLQueryFunc = func(query string) (map[string]json.RawMessage, error) {
		repo := `{
			"id": "R_repo",
			"defaultBranchRef": {"name": "main"},
			"pullRequest": {
				"isDraft": true,
				"isInMergeQueue": false,
				"reviewDecision": "REVIEW_REQUIRED",
				"mergeable": "MERGEABLE",
				"baseRefName": "main",
				"commits": {"nodes": [{"commit": {
					"checkSuites": {"nodes": [{"checkRuns": {"nodes": [
						{"name": "integration-tests", "conclusion": "SUCCESS", "isRequired": true}
					]}}]},
					"status": {"contexts": []}
				}}]},
				"projectItems": {"nodes": [{
					"id": "PVTI_42",
					"project": {"id": "PVT_board", "number": 4},
					"fieldValueByName": {
						"optionId": "id-in-progress",
						"name": "In progress",
						"field": {"id": "PVTSSF_status"}
					}
				}]}
			}
		}`
		return map[string]json.RawMessage{
			"projectOwner":      json.RawMessage(runProjectJSON),
			"pullAcmeWidgets42": json.RawMessage(repo),
		}, nil
	}

	report, err := Run(context.Background(), runConfig(), mock, testLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(mock.RemovedLabels) != 1 || mock.RemovedLabels[0].Label != "failing-tests" {
		t.Errorf("removed labels = %+v", mock.RemovedLabels)
	}
	if len(mock.AppliedLabels) != 0 {
		t.Error("apply must not fire when the label is present")
	}
	if report.Counts.Removed["failing-tests"] != 1 {
		t.Errorf("removed = %v", report.Counts.Removed)
	}
	if len(mock.StatusChanges) != 0 {
		t.Error("already in progress, no status change expected")
	}
}

func TestRunEmptyProject(t *testing.T) {
	mock := &github.MockClient{}

	report, err := Run(context.Background(), runConfig(), mock, testLogger())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Processed != 0 || !report.Counts.Empty() {
		t.Errorf("report = %+v", report)
	}
}

func TestRunAggregatesPerPullRequestErrors(t *testing.T) {
	mock := runMock(t)
	mock.SetStatusErr = fmt.Errorf("item was archived")

	report, err := Run(context.Background(), runConfig(), mock, testLogger())
	if err == nil {
		t.Fatal("expected the run to fail")
	}
	if report == nil || report.Processed != 1 {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Counts.Moved) != 0 {
		t.Errorf("failed move must not be counted: %v", report.Counts.Moved)
	}
}

func TestRunAbortsOnListingFailure(t *testing.T) {
	mock := &github.MockClient{
		ListProjectItemsFunc: func(int, string, int) ([]github.ProjectItem, error) {
			return nil, &github.NoDataError{Operation: "gh project item-list"}
		},
	}

	if _, err := Run(context.Background(), runConfig(), mock, testLogger()); err == nil {
		t.Fatal("expected the run to abort")
	}
	if len(mock.Queries) != 0 {
		t.Error("no GraphQL queries after a listing failure")
	}
}
