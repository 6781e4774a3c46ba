// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bonial-oss/threat-pulse/internal/feed/epss"
	"github.com/bonial-oss/threat-pulse/internal/feed/kev"
	"github.com/bonial-oss/threat-pulse/internal/feed/nvd"
	"github.com/bonial-oss/threat-pulse/internal/history"
	"github.com/bonial-oss/threat-pulse/internal/output"
	"github.com/bonial-oss/threat-pulse/internal/scorer"
	"github.com/bonial-oss/threat-pulse/internal/snapshot"
	"github.com/bonial-oss/threat-pulse/internal/store"
	"github.com/bonial-oss/threat-pulse/internal/types"
)

const (
	latestFilename  = "latest.json"
	historyFilename = "history_24h.json"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ExitError signals a non-zero exit code with an optional message.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// Options holds all CLI flag values.
type Options struct {
	OutputDir      string
	CacheDir       string
	Timeout        time.Duration
	SkipFeedUpdate bool
	NoNVD          bool
	NoKEV          bool
	NoEPSS         bool
	Format         string
	SortBy         string
	Top            int
}

// Feed is the common contract every feed adapter satisfies: one bounded
// fetch returning normalized events. A failing adapter returns an error that
// the pipeline records; it never aborts the run.
type Feed interface {
	Name() string
	Fetch(skipUpdate bool) ([]types.Event, error)
}

// NewRootCommand creates the root cobra command with all flags.
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:     "threat-pulse",
		Short:   "Collect threat-intelligence feeds and compute composite threat scores",
		Version: Version,
		Long: `threat-pulse aggregates public threat-intelligence feeds (NVD CVEs, the
CISA KEV catalog, and FIRST EPSS scores), normalizes them into a unified
event model, computes per-category and composite threat scores, and writes
latest.json plus a rolling 24-hour history_24h.json for the dashboard.

A failing feed never aborts a run: the snapshot reflects whatever sources
succeeded and records the errors in dataStatus.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.OutputDir, "output-dir", "o", ".", "Directory for latest.json and history_24h.json")
	flags.StringVar(&opts.CacheDir, "cache-dir", "", "Override feed cache directory")
	flags.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Per-feed HTTP timeout")
	flags.BoolVar(&opts.SkipFeedUpdate, "skip-feed-update", false, "Use cached feed data without freshness check")
	flags.BoolVar(&opts.NoNVD, "no-nvd", false, "Disable the NVD feed")
	flags.BoolVar(&opts.NoKEV, "no-kev", false, "Disable the KEV feed")
	flags.BoolVar(&opts.NoEPSS, "no-epss", false, "Disable the EPSS feed")
	flags.StringVar(&opts.Format, "format", "table", "Console summary format: table, json, none")
	flags.StringVar(&opts.SortBy, "sort-by", "severity", "Sort top events by: severity, category, id")
	flags.IntVar(&opts.Top, "top", snapshot.DefaultTopN, "Number of top events in the snapshot")

	return cmd
}

// run orchestrates one collection: fetch all feeds, score, build the
// snapshot, persist it, merge the history window, and print the summary.
func run(opts *Options) error {
	cacheDir, err := resolveCacheDir(opts.CacheDir)
	if err != nil {
		return err
	}

	feeds := make([]Feed, 0, 3)
	if !opts.NoNVD {
		feeds = append(feeds, nvd.NewSource(cacheDir, opts.Timeout))
	}
	if !opts.NoKEV {
		feeds = append(feeds, kev.NewSource(cacheDir, opts.Timeout))
	}
	if !opts.NoEPSS {
		feeds = append(feeds, epss.NewSource(cacheDir, opts.Timeout))
	}

	return collect(feeds, opts)
}

// collect runs the pipeline over the given feeds: fetch, score, snapshot,
// persist, history merge, summary. The format flag is validated up front:
// once latest.json is on disk the run must exit 0, so a bad flag has to
// fail before anything is fetched or written.
func collect(feeds []Feed, opts *Options) error {
	switch opts.Format {
	case "table", "json", "none":
	default:
		return &ExitError{
			Code:    2,
			Message: fmt.Sprintf("unsupported output format: %s", opts.Format),
		}
	}

	var events []types.Event
	errs := []string{}
	for _, feed := range feeds {
		fmt.Fprintf(os.Stderr, "Fetching %s data...\n", feed.Name())
		fetched, err := feed.Fetch(opts.SkipFeedUpdate)
		if err != nil {
			msg := fmt.Sprintf("%s fetch failed: %v", feed.Name(), err)
			fmt.Fprintln(os.Stderr, msg)
			errs = append(errs, msg)
			continue
		}
		fmt.Fprintf(os.Stderr, "Fetched %d events from %s\n", len(fetched), feed.Name())
		events = append(events, fetched...)
	}

	scores := scorer.Categories(events)
	composite := scorer.Composite(scores)
	snap := snapshot.Build(events, scores, composite, errs, opts.Top, time.Now())

	latestPath := filepath.Join(opts.OutputDir, latestFilename)
	if err := store.WriteJSON(latestPath, snap); err != nil {
		return fmt.Errorf("writing %s: %w", latestFilename, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (composite score %.2f)\n", latestPath, snap.ThreatScore.CompositeScore)

	// The latest snapshot is the primary artifact; once it is on disk the
	// run counts as a success, so history problems only warn.
	historyPath := filepath.Join(opts.OutputDir, historyFilename)
	window := history.Merge(history.Load(historyPath), history.EntryFromSnapshot(snap), time.Now())
	if err := store.WriteJSON(historyPath, window); err != nil {
		fmt.Fprintf(os.Stderr, "warning: writing %s: %v\n", historyFilename, err)
	} else {
		fmt.Fprintf(os.Stderr, "Updated %s with %d entries\n", historyPath, window.EntryCount)
	}

	return writeSummary(&snap, opts)
}

// writeSummary prints the snapshot to stdout in the requested format.
func writeSummary(snap *types.Snapshot, opts *Options) error {
	switch opts.Format {
	case "table":
		cfg := output.TableConfig{
			SortBy:     opts.SortBy,
			IsTerminal: output.IsOutputToTerminal(os.Stdout),
		}
		return output.WriteTable(os.Stdout, snap, cfg)
	case "json":
		return output.WriteJSON(os.Stdout, snap)
	default:
		return nil
	}
}

// resolveCacheDir returns the feed cache directory, preferring the flag,
// then XDG_DATA_HOME, then the home directory.
func resolveCacheDir(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "threat-pulse"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, ".threat-pulse"), nil
}
