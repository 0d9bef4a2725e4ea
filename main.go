// Command autostatus keeps the status column of pull requests tracked
// on a GitHub Project board in sync with their live state.
//
// For every pull request on the board it inspects the draft flag,
// merge-queue membership, review decision, mergeability, base branch
// and required-check results, then moves the pull request to the
// column that reflects that state. It can also flip pull requests back
// to draft when they return to a work column, re-run failing required
// builds, and keep a "failing tests" label in sync.
//
// All host access goes through the gh CLI: listing and editing project
// items, editing labels and draft state, and re-running workflow runs
// shell out to gh; pull request details are fetched in batched GraphQL
// queries using gh's authentication.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"autostatus/internal/github"
	"autostatus/internal/summary"
)

func main() {
	cfg, err := ParseFlags(os.Args[0], os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.ShowVersion {
		info := Get()
		fmt.Printf("autostatus version %s\n", info.Version)
		fmt.Printf("Built: %s\n", info.BuildTime)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		fmt.Printf("Platform: %s\n", info.Platform)
		return
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if cfg.Quiet {
		log.SetLevel(logrus.WarnLevel)
	}

	if err := cfg.Validate(); err != nil {
		log.Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}

	client, err := github.NewCLIClient(cfg.GHPath)
	if err != nil {
		log.Errorf("failed to create GitHub client: %v", err)
		os.Exit(1)
	}

	report, err := Run(context.Background(), cfg, client, log)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}

	text := summary.Describe(report.Counts)
	fmt.Println(text)
	if cfg.Notify {
		summary.Notify(report.ProjectTitle, text, log)
	}
}
