// Package loader fetches everything a run needs from the host: the
// project's status field, the tracked pull requests and their live
// state, assembled into immutable snapshots.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"autostatus/internal/github"
	"autostatus/internal/status"
)

// Params configures one load.
type Params struct {
	ProjectNumber int
	Owner         string
	OwnerType     string // "user" or "org"
	StatusField   string
	Limit         int
	BatchSize     int
	Author        string
	Configured    map[status.Logical]string
	IgnoredIDs    []string
}

// Result is the assembled input for the decision loop.
type Result struct {
	Registry     *status.Registry
	Snapshots    []*status.Snapshot
	ProjectTitle string

	statusFieldID string
}

// projectPayload decodes the owner sub-query of the first batch.
type projectPayload struct {
	ProjectV2 struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Field struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Options []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"options"`
		} `json:"field"`
	} `json:"projectV2"`
}

// repositoryPayload decodes one aliased repository sub-query.
type repositoryPayload struct {
	ID               string `json:"id"`
	DefaultBranchRef struct {
		Name string `json:"name"`
	} `json:"defaultBranchRef"`
	PullRequest struct {
		IsDraft        bool   `json:"isDraft"`
		IsInMergeQueue bool   `json:"isInMergeQueue"`
		ReviewDecision string `json:"reviewDecision"`
		Mergeable      string `json:"mergeable"`
		BaseRefName    string `json:"baseRefName"`
		Commits        struct {
			Nodes []struct {
				Commit struct {
					CheckSuites struct {
						Nodes []struct {
							CheckRuns struct {
								Nodes []struct {
									Name       string `json:"name"`
									Conclusion string `json:"conclusion"`
									IsRequired bool   `json:"isRequired"`
								} `json:"nodes"`
							} `json:"checkRuns"`
						} `json:"nodes"`
					} `json:"checkSuites"`
					Status struct {
						Contexts []struct {
							Context    string `json:"context"`
							State      string `json:"state"`
							IsRequired bool   `json:"isRequired"`
						} `json:"contexts"`
					} `json:"status"`
				} `json:"commit"`
			} `json:"nodes"`
		} `json:"commits"`
		ProjectItems struct {
			Nodes []struct {
				ID      string `json:"id"`
				Project struct {
					ID     string `json:"id"`
					Number int    `json:"number"`
				} `json:"project"`
				FieldValue struct {
					OptionID string `json:"optionId"`
					Name     string `json:"name"`
					Field    struct {
						ID string `json:"id"`
					} `json:"field"`
				} `json:"fieldValueByName"`
			} `json:"nodes"`
		} `json:"projectItems"`
	} `json:"pullRequest"`
}

// Load runs the two fetch phases: the lightweight item listing, then
// the batched detail queries, and assembles the registry and the
// snapshots. Any fetch failure aborts the whole load.
func Load(ctx context.Context, client github.Client, p Params, log *logrus.Logger) (*Result, error) {
	items, err := client.ListProjectItems(ctx, p.ProjectNumber, p.Owner, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("listing project items: %w", err)
	}

	refs := pullRequestRefs(items)
	log.Debugf("project %d: %d items, %d pull requests", p.ProjectNumber, len(items), len(refs))

	if p.Author != "" {
		refs, err = filterByAuthor(ctx, client, p, refs)
		if err != nil {
			return nil, err
		}
		log.Debugf("author filter %q left %d pull requests", p.Author, len(refs))
	}

	if len(refs) == 0 {
		return &Result{}, nil
	}

	result := &Result{}
	for i, batch := range chunk(refs, p.BatchSize) {
		includeProject := i == 0
		query, err := buildBatchQuery(batch, p, includeProject)
		if err != nil {
			return nil, err
		}

		data, err := client.RunGraphQLQuery(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("fetching pull request details: %w", err)
		}

		if includeProject {
			if err := result.decodeProject(data, p); err != nil {
				return nil, err
			}
		}

		for _, ref := range batch {
			snap, err := decodeSnapshot(data, ref, p)
			if err != nil {
				return nil, err
			}
			// An item whose status is still unset carries no field id
			// of its own; the project payload supplies it.
			if snap.ItemID != "" && snap.FieldID == "" {
				snap.FieldID = result.statusFieldID
			}
			result.Snapshots = append(result.Snapshots, snap)
		}
	}

	return result, nil
}

// pullRequestRefs keeps the items whose content is a pull request with
// a resolvable owner/name identity.
func pullRequestRefs(items []github.ProjectItem) []itemRef {
	var refs []itemRef
	for _, item := range items {
		if item.Content.Type != "PullRequest" {
			continue
		}
		owner, repo, ok := strings.Cut(item.Content.Repository, "/")
		if !ok || item.Content.Number == 0 {
			continue
		}
		refs = append(refs, itemRef{
			Owner:  owner,
			Repo:   repo,
			Number: item.Content.Number,
			Labels: item.Labels,
		})
	}
	return refs
}

func filterByAuthor(ctx context.Context, client github.Client, p Params, refs []itemRef) ([]itemRef, error) {
	results, err := client.SearchOpenPullRequestsByAuthor(ctx, p.Author, p.Owner, p.ProjectNumber, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("searching pull requests by author %q: %w", p.Author, err)
	}

	allowed := make(map[string]struct{}, len(results))
	for _, r := range results {
		allowed[fmt.Sprintf("%s#%d", r.Repository.NameWithOwner, r.Number)] = struct{}{}
	}

	var kept []itemRef
	for _, ref := range refs {
		key := fmt.Sprintf("%s/%s#%d", ref.Owner, ref.Repo, ref.Number)
		if _, ok := allowed[key]; ok {
			kept = append(kept, ref)
		}
	}
	return kept, nil
}

func (r *Result) decodeProject(data map[string]json.RawMessage, p Params) error {
	raw, ok := data[projectAlias]
	if !ok {
		return &github.GraphQLAPIError{Messages: []string{"response is missing the project owner"}}
	}

	var payload projectPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decoding project payload: %w", err)
	}

	options := make([]status.Option, 0, len(payload.ProjectV2.Field.Options))
	for _, opt := range payload.ProjectV2.Field.Options {
		options = append(options, status.Option{ID: opt.ID, Name: opt.Name})
	}

	r.ProjectTitle = payload.ProjectV2.Title
	r.Registry = status.NewRegistry(p.StatusField, p.Configured, p.IgnoredIDs, options)
	r.statusFieldID = payload.ProjectV2.Field.ID
	return nil
}

func decodeSnapshot(data map[string]json.RawMessage, ref itemRef, p Params) (*status.Snapshot, error) {
	alias := aliasFor(ref.Owner, ref.Repo, ref.Number)
	raw, ok := data[alias]
	if !ok {
		return nil, fmt.Errorf("response is missing %s/%s#%d (alias %s)", ref.Owner, ref.Repo, ref.Number, alias)
	}

	var payload repositoryPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decoding %s/%s#%d: %w", ref.Owner, ref.Repo, ref.Number, err)
	}

	pr := payload.PullRequest
	snap := &status.Snapshot{
		Owner:          ref.Owner,
		Repo:           ref.Repo,
		Number:         ref.Number,
		IsDraft:        pr.IsDraft,
		InMergeQueue:   pr.IsInMergeQueue,
		ReviewDecision: status.ParseReviewDecision(pr.ReviewDecision),
		MergeState:     status.ParseMergeState(pr.Mergeable),
		BaseBranch:     pr.BaseRefName,
		DefaultBranch:  payload.DefaultBranchRef.Name,
		Labels:         ref.Labels,
	}

	// Merge check-suite runs and legacy status contexts from the last
	// commit into one result list.
	for _, commitNode := range pr.Commits.Nodes {
		for _, suite := range commitNode.Commit.CheckSuites.Nodes {
			for _, run := range suite.CheckRuns.Nodes {
				snap.Checks = append(snap.Checks, status.CheckResult{
					Name:       run.Name,
					IsRequired: run.IsRequired,
					State:      run.Conclusion,
				})
			}
		}
		for _, sctx := range commitNode.Commit.Status.Contexts {
			snap.Checks = append(snap.Checks, status.CheckResult{
				Name:       sctx.Context,
				IsRequired: sctx.IsRequired,
				State:      sctx.State,
			})
		}
	}

	for _, node := range pr.ProjectItems.Nodes {
		if node.Project.Number != p.ProjectNumber {
			continue
		}
		snap.ItemID = node.ID
		snap.ProjectID = node.Project.ID
		snap.CurrentOptionID = node.FieldValue.OptionID
		snap.CurrentOptionName = node.FieldValue.Name
		snap.FieldID = node.FieldValue.Field.ID
		break
	}

	return snap, nil
}
