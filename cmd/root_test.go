// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonial-oss/threat-pulse/internal/store"
	"github.com/bonial-oss/threat-pulse/internal/types"
)

type fakeFeed struct {
	name   string
	events []types.Event
	err    error
}

func (f *fakeFeed) Name() string { return f.name }

func (f *fakeFeed) Fetch(bool) ([]types.Event, error) { return f.events, f.err }

func testOptions(dir string) *Options {
	return &Options{
		OutputDir: dir,
		Timeout:   30 * time.Second,
		Format:    "none",
		Top:       10,
	}
}

func TestCollect_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	feeds := []Feed{
		&fakeFeed{name: "NVD", events: []types.Event{
			types.NewEvent("CVE-2024-0001", types.CategoryCVE, 7.5, "", "2024-01-01"),
		}},
		&fakeFeed{name: "KEV", err: errors.New("HTTP 503")},
		&fakeFeed{name: "EPSS", events: []types.Event{
			types.NewEvent("CVE-2024-0002", types.CategoryEPSS, 4.2, "", "2024-01-01"),
		}},
	}

	require.NoError(t, collect(feeds, testOptions(dir)), "a failing feed must not fail the run")

	var snap types.Snapshot
	require.NoError(t, store.ReadJSON(filepath.Join(dir, latestFilename), &snap))

	assert.True(t, snap.DataStatus.CVEAvailable)
	assert.False(t, snap.DataStatus.KEVAvailable)
	assert.True(t, snap.DataStatus.EPSSAvailable)
	require.Len(t, snap.DataStatus.Errors, 1)
	assert.Contains(t, snap.DataStatus.Errors[0], "KEV fetch failed")
	assert.Greater(t, snap.ThreatScore.CompositeScore, 0.0, "remaining sources still contribute")
	assert.Len(t, snap.TopEvents, 2)
}

func TestCollect_TotalFailure(t *testing.T) {
	dir := t.TempDir()
	feeds := []Feed{
		&fakeFeed{name: "NVD", err: errors.New("timeout")},
		&fakeFeed{name: "KEV", err: errors.New("timeout")},
		&fakeFeed{name: "EPSS", err: errors.New("timeout")},
	}

	require.NoError(t, collect(feeds, testOptions(dir)), "total feed failure must still write a snapshot")

	var snap types.Snapshot
	require.NoError(t, store.ReadJSON(filepath.Join(dir, latestFilename), &snap))

	assert.Zero(t, snap.ThreatScore.CompositeScore)
	assert.Empty(t, snap.TopEvents)
	assert.False(t, snap.DataStatus.CVEAvailable)
	assert.False(t, snap.DataStatus.KEVAvailable)
	assert.False(t, snap.DataStatus.EPSSAvailable)
	assert.Len(t, snap.DataStatus.Errors, 3)
}

func TestCollect_UpdatesHistory(t *testing.T) {
	dir := t.TempDir()
	feeds := []Feed{
		&fakeFeed{name: "KEV", events: []types.Event{
			types.NewEvent("CVE-2024-0001", types.CategoryKEV, 8.0, "", "2024-01-01"),
		}},
	}
	opts := testOptions(dir)

	require.NoError(t, collect(feeds, opts))
	require.NoError(t, collect(feeds, opts))

	var window types.HistoryWindow
	require.NoError(t, store.ReadJSON(filepath.Join(dir, historyFilename), &window))

	assert.Equal(t, 2, window.EntryCount, "each run appends one datapoint")
	require.Len(t, window.Entries, 2)
	assert.Equal(t, window.Entries[1].Timestamp, window.LastUpdated)
}

func TestCollect_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir)
	opts.Format = "xml"
	feeds := []Feed{
		&fakeFeed{name: "KEV", events: []types.Event{
			types.NewEvent("CVE-2024-0001", types.CategoryKEV, 8.0, "", "2024-01-01"),
		}},
	}

	err := collect(feeds, opts)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)

	// The flag is rejected before any output: otherwise the run would have
	// written latest.json successfully and still exited nonzero.
	_, statErr := os.Stat(filepath.Join(dir, latestFilename))
	assert.True(t, os.IsNotExist(statErr), "latest.json must not be written when the format flag is invalid")
}

func TestNewRootCommand_Defaults(t *testing.T) {
	cmd := NewRootCommand()

	flag := cmd.Flags().Lookup("timeout")
	require.NotNil(t, flag)
	assert.Equal(t, "30s", flag.DefValue)

	flag = cmd.Flags().Lookup("top")
	require.NotNil(t, flag)
	assert.Equal(t, "10", flag.DefValue)
}
