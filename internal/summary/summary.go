// Package summary renders the run's aggregated changes as a sentence
// and optionally forwards it as a desktop notification.
package summary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gen2brain/beeep"
	"github.com/sirupsen/logrus"

	"autostatus/internal/executor"
)

// Describe builds one clause per non-empty category, joined with
// commas, capitalizing only the first clause.
func Describe(c executor.Counts) string {
	var clauses []string

	for _, name := range sortedKeys(c.Moved) {
		clauses = append(clauses, fmt.Sprintf("moved %s to '%s'", pullRequests(c.Moved[name]), name))
	}
	for _, label := range sortedKeys(c.Applied) {
		clauses = append(clauses, fmt.Sprintf("applied '%s' to %s", label, pullRequests(c.Applied[label])))
	}
	for _, label := range sortedKeys(c.Removed) {
		clauses = append(clauses, fmt.Sprintf("removed '%s' from %s", label, pullRequests(c.Removed[label])))
	}

	if len(clauses) == 0 {
		return "Nothing to update."
	}

	s := strings.Join(clauses, ", ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}

func pullRequests(n int) string {
	if n == 1 {
		return "1 pull request"
	}
	return fmt.Sprintf("%d pull requests", n)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Notify sends a best-effort desktop notification. A missing
// notification mechanism is not an error.
func Notify(title, body string, log *logrus.Logger) {
	if title == "" {
		title = "autostatus"
	}
	if err := beeep.Notify(title, body, ""); err != nil {
		log.WithError(err).Debug("desktop notification failed")
	}
}
