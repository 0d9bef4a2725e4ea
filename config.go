package main

import (
	"fmt"

	"autostatus/internal/status"
)

// Config holds the validated run configuration. It is built once from
// the command line and immutable afterwards.
type Config struct {
	ProjectNumber int
	Owner         string
	OwnerType     string // "user" or "org"
	StatusField   string

	// Single-select option ids per column; empty disables the column.
	InProgressID     string
	NotAgainstMainID string
	NeedsReviewID    string
	ReadyToDeployID  string
	ConflictingID    string
	IgnoredIDs       []string

	Quiet            bool
	GHPath           string
	FailingTestLabel string
	Author           string
	MarkDraft        bool
	RerunBuilds      []string
	Limit            int
	BatchSize        int
	Notify           bool
	ShowVersion      bool
}

// Validate checks the configuration before any network call.
func (c *Config) Validate() error {
	if c.Owner == "" {
		return fmt.Errorf("--owner is required")
	}
	if c.ProjectNumber <= 0 {
		return fmt.Errorf("--project must be a positive project number")
	}
	if c.OwnerType != "user" && c.OwnerType != "org" {
		return fmt.Errorf("--owner-type must be %q or %q, got %q", "user", "org", c.OwnerType)
	}
	if c.StatusField == "" {
		return fmt.Errorf("--status-field must not be empty")
	}
	if len(c.ConfiguredOptions()) == 0 {
		return fmt.Errorf("at least one status option id is required " +
			"(--in-progress, --not-against-main, --needs-review, --ready-to-deploy or --conflicting)")
	}
	if c.Limit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("--batch-size must be positive")
	}
	return nil
}

// ConfiguredOptions maps each configured logical status to its option
// id, skipping disabled columns.
func (c *Config) ConfiguredOptions() map[status.Logical]string {
	configured := make(map[status.Logical]string)
	set := func(l status.Logical, id string) {
		if id != "" {
			configured[l] = id
		}
	}
	set(status.StatusInProgress, c.InProgressID)
	set(status.StatusNotAgainstMain, c.NotAgainstMainID)
	set(status.StatusNeedsReview, c.NeedsReviewID)
	set(status.StatusReadyToDeploy, c.ReadyToDeployID)
	set(status.StatusConflicting, c.ConflictingID)
	return configured
}
