// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package kev

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bonial-oss/threat-pulse/internal/cache"
	"github.com/bonial-oss/threat-pulse/internal/types"
)

const (
	cacheFilename   = "known_exploited_vulnerabilities.json"
	primaryURL      = "https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json"
	fallbackURL     = "https://raw.githubusercontent.com/cisagov/kev-data/main/known_exploited_vulnerabilities.json"
	maxEvents       = 20
	maxResponseSize = 50 * 1024 * 1024 // 50 MB
)

// KEV entries carry no numeric severity, but every catalog entry documents
// confirmed real-world exploitation, which maps to the high end of the 0-10
// scale. Known ransomware campaign use raises it further.
const (
	exploitedSeverity  = 8.0
	ransomwareSeverity = 9.5
)

// Source fetches the CISA KEV catalog and normalizes its most recent
// entries into events, with caching support.
type Source struct {
	cache  *cache.Cache
	client *http.Client
}

// NewSource creates a KEV feed source with cache stored under cacheDir/kev/.
func NewSource(cacheDir string, timeout time.Duration) *Source {
	return &Source{
		cache:  cache.New(filepath.Join(cacheDir, "kev"), cache.DefaultTTL),
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the source name used in logs and error strings.
func (s *Source) Name() string { return "KEV" }

// Fetch returns normalized events from the KEV catalog, using cache when
// appropriate. The cache/download decision logic matches the NVD source.
func (s *Source) Fetch(skipUpdate bool) ([]types.Event, error) {
	if skipUpdate && s.cache.Exists(cacheFilename) {
		return s.fetchFromCache()
	}

	if s.cache.IsFresh() {
		return s.fetchFromCache()
	}

	data, err := s.download()
	if err == nil {
		if storeErr := s.cache.Store(cacheFilename, data); storeErr != nil {
			return nil, fmt.Errorf("storing KEV data in cache: %w", storeErr)
		}
		return parse(data)
	}

	if s.cache.Exists(cacheFilename) {
		fmt.Fprintf(os.Stderr, "warning: failed to download KEV data (%v), using stale cache\n", err)
		return s.fetchFromCache()
	}

	return nil, fmt.Errorf("downloading KEV data: %w", err)
}

func (s *Source) fetchFromCache() ([]types.Event, error) {
	data, err := s.cache.Load(cacheFilename)
	if err != nil {
		return nil, fmt.Errorf("loading KEV data from cache: %w", err)
	}
	return parse(data)
}

// download fetches the KEV catalog JSON from the primary URL.
// If the primary URL fails, it falls back to the GitHub mirror.
func (s *Source) download() ([]byte, error) {
	data, err := s.downloadFrom(primaryURL)
	if err == nil {
		return data, nil
	}

	data, err2 := s.downloadFrom(fallbackURL)
	if err2 == nil {
		return data, nil
	}

	return nil, fmt.Errorf("primary (%s): %w; fallback (%s): %v", primaryURL, err, fallbackURL, err2)
}

func (s *Source) downloadFrom(url string) ([]byte, error) {
	resp, err := s.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return data, nil
}

// parse unmarshals the KEV catalog and maps its most recently added entries
// into normalized events. Entries without a CVE ID or dateAdded are skipped.
func parse(data []byte) ([]types.Event, error) {
	var catalog types.KEVCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("unmarshaling KEV catalog: %w", err)
	}

	entries := make([]types.KEVEntry, 0, len(catalog.Vulnerabilities))
	for _, entry := range catalog.Vulnerabilities {
		if entry.CVEID == "" || entry.DateAdded == "" {
			continue
		}
		entries = append(entries, entry)
	}

	// dateAdded is YYYY-MM-DD, so lexicographic order is chronological.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DateAdded > entries[j].DateAdded
	})
	if len(entries) > maxEvents {
		entries = entries[:maxEvents]
	}

	events := make([]types.Event, 0, len(entries))
	for _, entry := range entries {
		events = append(events, types.NewEvent(
			entry.CVEID,
			types.CategoryKEV,
			severity(entry),
			description(entry),
			entry.DateAdded,
		))
	}

	return events, nil
}

func severity(entry types.KEVEntry) float64 {
	if strings.EqualFold(entry.KnownRansomwareCampaignUse, "Known") {
		return ransomwareSeverity
	}
	return exploitedSeverity
}

func description(entry types.KEVEntry) string {
	if entry.ShortDescription != "" {
		return entry.ShortDescription
	}
	if entry.VulnerabilityName != "" {
		return entry.VulnerabilityName
	}
	return strings.TrimSpace(entry.VendorProject + " " + entry.Product)
}
