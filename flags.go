package main

import (
	"github.com/spf13/pflag"
)

// ParseFlags parses command-line arguments into a Config. Validation
// happens separately so --version can short-circuit first.
func ParseFlags(name string, args []string) (*Config, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	cfg := &Config{}

	fs.IntVarP(&cfg.ProjectNumber, "project", "p", 0, "Project board number")
	fs.StringVarP(&cfg.Owner, "owner", "o", "", "Login of the project owner")
	fs.StringVar(&cfg.OwnerType, "owner-type", "org", "Project owner type (user or org)")
	fs.StringVar(&cfg.StatusField, "status-field", "Status", "Name of the single-select status field")

	fs.StringVar(&cfg.InProgressID, "in-progress", "", "Option id of the in-progress column")
	fs.StringVar(&cfg.NotAgainstMainID, "not-against-main", "", "Option id of the not-against-main column")
	fs.StringVar(&cfg.NeedsReviewID, "needs-review", "", "Option id of the needs-review column")
	fs.StringVar(&cfg.ReadyToDeployID, "ready-to-deploy", "", "Option id of the ready-to-deploy column")
	fs.StringVar(&cfg.ConflictingID, "conflicting", "", "Option id of the conflicting column")
	fs.StringSliceVar(&cfg.IgnoredIDs, "ignored", nil, "Option ids whose pull requests are never touched")

	fs.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Only log warnings and errors")
	fs.StringVar(&cfg.GHPath, "gh-path", "", "Path to the gh executable (default: discovered on PATH)")
	fs.StringVar(&cfg.FailingTestLabel, "failing-test-label", "", "Label to keep in sync with failing required builds")
	fs.StringVar(&cfg.Author, "author", "", "Only process pull requests by this author")
	fs.BoolVar(&cfg.MarkDraft, "mark-draft", false, "Flip pull requests back to draft when they move to a work column")
	fs.StringSliceVar(&cfg.RerunBuilds, "rerun", nil, "Failing required build names to re-run (case-insensitive substring match)")
	fs.IntVar(&cfg.Limit, "limit", 100, "Maximum number of project items to fetch")
	fs.IntVar(&cfg.BatchSize, "batch-size", 25, "Pull requests per GraphQL query")
	fs.BoolVar(&cfg.Notify, "notify", false, "Send a desktop notification with the run summary")
	fs.BoolVarP(&cfg.ShowVersion, "version", "v", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}
