package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cli/go-gh"
	"github.com/cli/go-gh/pkg/api"
	"github.com/cli/safeexec"
)

// CLIClient talks to GitHub through the gh executable for CLI-surface
// operations and through gh's GraphQL endpoint for batched queries.
// gh also supplies authentication for both paths.
type CLIClient struct {
	ghPath string
	gql    api.GQLClient
}

// NewCLIClient builds a client. ghPath overrides discovery of the gh
// executable on PATH; pass "" for the default.
func NewCLIClient(ghPath string) (*CLIClient, error) {
	if ghPath == "" {
		path, err := safeexec.LookPath("gh")
		if err != nil {
			return nil, fmt.Errorf("could not find gh executable: %w", err)
		}
		ghPath = path
	}

	gql, err := gh.GQLClient(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL client: %w", err)
	}

	return &CLIClient{ghPath: ghPath, gql: gql}, nil
}

// run executes gh with the given arguments and returns stdout.
func (c *CLIClient) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.ghPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("gh %s: %s: %w", args[0], msg, err)
		}
		return nil, fmt.Errorf("gh %s: %w", args[0], err)
	}
	return stdout.Bytes(), nil
}

// decodeJSON parses gh output, re-encoding invalid UTF-8 first. gh can
// emit raw repository content (titles, labels) in arbitrary encodings.
func decodeJSON(out []byte, operation string, v any) error {
	if len(bytes.TrimSpace(out)) == 0 {
		return &NoDataError{Operation: operation}
	}
	if !utf8.Valid(out) {
		out = bytes.ToValidUTF8(out, []byte("�"))
	}
	if err := json.Unmarshal(out, v); err != nil {
		return fmt.Errorf("parsing %s output: %w", operation, err)
	}
	return nil
}

func (c *CLIClient) ListProjectItems(ctx context.Context, projectNumber int, owner string, limit int) ([]ProjectItem, error) {
	out, err := c.run(ctx,
		"project", "item-list", strconv.Itoa(projectNumber),
		"--owner", owner,
		"--limit", strconv.Itoa(limit),
		"--format", "json")
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items []ProjectItem `json:"items"`
	}
	if err := decodeJSON(out, "gh project item-list", &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *CLIClient) RunGraphQLQuery(ctx context.Context, query string) (map[string]json.RawMessage, error) {
	var data map[string]json.RawMessage
	if err := c.gql.Do(query, nil, &data); err != nil {
		if items, ok := gqlErrorItems(err); ok {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				msgs = append(msgs, item.Message)
			}
			return nil, &GraphQLAPIError{Messages: msgs}
		}
		return nil, err
	}
	if data == nil {
		return nil, &GraphQLAPIError{Messages: []string{"response carried no data payload"}}
	}
	return data, nil
}

// gqlErrorItems unwraps the error list of a GraphQL failure.
func gqlErrorItems(err error) ([]api.GQLErrorItem, bool) {
	var ptr *api.GQLError
	if errors.As(err, &ptr) {
		return ptr.Errors, true
	}
	var val api.GQLError
	if errors.As(err, &val) {
		return val.Errors, true
	}
	return nil, false
}

func (c *CLIClient) SetProjectItemStatus(ctx context.Context, itemID, projectID, fieldID, optionID string) error {
	_, err := c.run(ctx,
		"project", "item-edit",
		"--id", itemID,
		"--project-id", projectID,
		"--field-id", fieldID,
		"--single-select-option-id", optionID)
	return err
}

func (c *CLIClient) ApplyLabel(ctx context.Context, number int, repoWithOwner, label string) error {
	_, err := c.run(ctx,
		"pr", "edit", strconv.Itoa(number),
		"--repo", repoWithOwner,
		"--add-label", label)
	return err
}

func (c *CLIClient) RemoveLabel(ctx context.Context, number int, repoWithOwner, label string) error {
	_, err := c.run(ctx,
		"pr", "edit", strconv.Itoa(number),
		"--repo", repoWithOwner,
		"--remove-label", label)
	return err
}

func (c *CLIClient) SetDraft(ctx context.Context, number int, repoWithOwner string) error {
	_, err := c.run(ctx,
		"pr", "ready", strconv.Itoa(number),
		"--repo", repoWithOwner,
		"--undo")
	return err
}

func (c *CLIClient) RerunFailedRun(ctx context.Context, runID, repoWithOwner string) error {
	_, err := c.run(ctx,
		"run", "rerun", runID,
		"--repo", repoWithOwner,
		"--failed")
	return err
}

func (c *CLIClient) ListFailingRequiredChecks(ctx context.Context, number int, repoWithOwner string) ([]CheckRun, error) {
	// gh pr checks exits non-zero when any check failed, which is
	// exactly the case we are after, so only treat a run with no
	// output as an error.
	cmd := exec.CommandContext(ctx, c.ghPath,
		"pr", "checks", strconv.Itoa(number),
		"--repo", repoWithOwner,
		"--required",
		"--json", "name,state,link")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil && len(bytes.TrimSpace(stdout.Bytes())) == 0 {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("gh pr: %s: %w", msg, err)
		}
		return nil, fmt.Errorf("gh pr: %w", err)
	}

	var all []CheckRun
	if err := decodeJSON(stdout.Bytes(), "gh pr checks", &all); err != nil {
		return nil, err
	}

	var failing []CheckRun
	for _, chk := range all {
		if strings.EqualFold(chk.State, "FAILURE") || strings.EqualFold(chk.State, "ERROR") {
			failing = append(failing, chk)
		}
	}
	return failing, nil
}

func (c *CLIClient) SearchOpenPullRequestsByAuthor(ctx context.Context, author, owner string, projectNumber, limit int) ([]SearchResult, error) {
	out, err := c.run(ctx,
		"search", "prs",
		"--author", author,
		"--state", "open",
		"--project", fmt.Sprintf("%s/%d", owner, projectNumber),
		"--limit", strconv.Itoa(limit),
		"--json", "number,repository")
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	if err := decodeJSON(out, "gh search prs", &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *CLIClient) AuthStatus(ctx context.Context) (string, error) {
	// gh auth status writes its report to stderr.
	cmd := exec.CommandContext(ctx, c.ghPath, "auth", "status")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("gh auth status: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
