// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.json")
	in := doc{Name: "composite", Score: 21.9}

	require.NoError(t, WriteJSON(path, in))

	var out doc
	require.NoError(t, ReadJSON(path, &out))
	assert.Equal(t, in, out)
}

func TestWriteJSON_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "latest.json")

	require.NoError(t, WriteJSON(path, doc{}))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteJSON_OverwritesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.json")

	require.NoError(t, WriteJSON(path, doc{Name: "first", Score: 1}))
	require.NoError(t, WriteJSON(path, doc{Name: "second", Score: 2}))

	var out doc
	require.NoError(t, ReadJSON(path, &out))
	assert.Equal(t, "second", out.Name)
}

func TestWriteJSON_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "latest.json")

	require.NoError(t, WriteJSON(path, doc{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.Contains(entry.Name(), ".tmp"), "temp file %s left behind", entry.Name())
	}
}

func TestReadJSON_MissingFile(t *testing.T) {
	err := ReadJSON(filepath.Join(t.TempDir(), "absent.json"), &doc{})

	require.Error(t, err)
	assert.True(t, os.IsNotExist(err), "missing file must be distinguishable via os.IsNotExist")
}

func TestReadJSON_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	err := ReadJSON(path, &doc{})

	require.Error(t, err)
	assert.False(t, os.IsNotExist(err))
}
