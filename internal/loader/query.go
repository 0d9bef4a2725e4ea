package loader

import (
	"fmt"
	"strconv"
	"strings"
)

// itemRef identifies one pull request picked off the board, carrying
// the labels the item listing already gave us.
type itemRef struct {
	Owner  string
	Repo   string
	Number int
	Labels []string
}

// aliasFor builds the unique top-level alias for a pull request's
// repository sub-query, e.g. pullAcmeCorpWidgets42 for
// acme-corp/widgets#42.
func aliasFor(owner, repo string, number int) string {
	return "pull" + camel(owner) + camel(repo) + strconv.Itoa(number)
}

// camel strips hyphens by capitalizing each part and concatenating.
func camel(s string) string {
	parts := strings.Split(s, "-")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// projectAlias is the alias of the owner sub-query carried by the
// first batch.
const projectAlias = "projectOwner"

// pullFragment renders one repository sub-query. Owner, repo and
// number are required; their absence is a contract violation, not a
// recoverable condition.
func pullFragment(ref itemRef, statusField string) (string, error) {
	if ref.Owner == "" || ref.Repo == "" || ref.Number == 0 {
		return "", fmt.Errorf("cannot build query fragment for %q/%q#%d: owner, repo and number are all required",
			ref.Owner, ref.Repo, ref.Number)
	}

	return fmt.Sprintf(`  %s: repository(owner: %q, name: %q) {
    id
    defaultBranchRef { name }
    pullRequest(number: %d) {
      isDraft
      isInMergeQueue
      reviewDecision
      mergeable
      baseRefName
      commits(last: 1) {
        nodes {
          commit {
            checkSuites(first: 50) {
              nodes {
                checkRuns(first: 50) {
                  nodes {
                    name
                    conclusion
                    isRequired(pullRequestNumber: %d)
                  }
                }
              }
            }
            status {
              contexts {
                context
                state
                isRequired(pullRequestNumber: %d)
              }
            }
          }
        }
      }
      projectItems(first: 100) {
        nodes {
          id
          project { id number }
          fieldValueByName(name: %q) {
            ... on ProjectV2ItemFieldSingleSelectValue {
              optionId
              name
              field {
                ... on ProjectV2SingleSelectField { id }
              }
            }
          }
        }
      }
    }
  }`, aliasFor(ref.Owner, ref.Repo, ref.Number), ref.Owner, ref.Repo,
		ref.Number, ref.Number, ref.Number, statusField), nil
}

// projectFragment renders the owner's project sub-query: title plus
// the status field options, needed once per run.
func projectFragment(ownerType, owner string, projectNumber int, statusField string) string {
	ownerField := "organization"
	if ownerType == "user" {
		ownerField = "user"
	}
	return fmt.Sprintf(`  %s: %s(login: %q) {
    projectV2(number: %d) {
      id
      title
      field(name: %q) {
        ... on ProjectV2SingleSelectField {
          id
          name
          options { id name }
        }
      }
    }
  }`, projectAlias, ownerField, owner, projectNumber, statusField)
}

// buildBatchQuery assembles one query from the batch's fragments,
// optionally prefixed with the project fragment (first batch only).
func buildBatchQuery(batch []itemRef, p Params, includeProject bool) (string, error) {
	var fragments []string
	if includeProject {
		fragments = append(fragments, projectFragment(p.OwnerType, p.Owner, p.ProjectNumber, p.StatusField))
	}
	for _, ref := range batch {
		frag, err := pullFragment(ref, p.StatusField)
		if err != nil {
			return "", err
		}
		fragments = append(fragments, frag)
	}
	return "query {\n" + strings.Join(fragments, "\n") + "\n}", nil
}

// chunk splits refs into batches of at most size entries to stay
// under the host's query-complexity limits.
func chunk(refs []itemRef, size int) [][]itemRef {
	if size <= 0 {
		size = 1
	}
	var batches [][]itemRef
	for len(refs) > 0 {
		n := min(size, len(refs))
		batches = append(batches, refs[:n])
		refs = refs[n:]
	}
	return batches
}
