// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package nvd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bonial-oss/threat-pulse/internal/cache"
	"github.com/bonial-oss/threat-pulse/internal/types"
)

const (
	cacheFilename   = "nvd_recent_cves.json"
	apiURL          = "https://services.nvd.nist.gov/rest/json/cves/2.0"
	pageSize        = 100
	maxEvents       = 20
	maxResponseSize = 50 * 1024 * 1024 // 50 MB
)

// Source fetches recent CVEs from the NVD API and normalizes them into
// events, with caching support.
type Source struct {
	cache  *cache.Cache
	client *http.Client
}

// NewSource creates an NVD feed source with cache stored under cacheDir/nvd/.
func NewSource(cacheDir string, timeout time.Duration) *Source {
	return &Source{
		cache:  cache.New(filepath.Join(cacheDir, "nvd"), cache.DefaultTTL),
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the source name used in logs and error strings.
func (s *Source) Name() string { return "NVD" }

// Fetch returns normalized events from the NVD feed, using cache when
// appropriate.
//
// Logic:
//  1. If skipUpdate and cache exists -> load from cache, parse, return.
//  2. If cache is fresh -> load from cache, parse, return.
//  3. Download fresh data.
//  4. If download succeeds -> store in cache, parse, return.
//  5. If download fails and cache exists -> warn to stderr, load stale cache, parse, return.
//  6. If download fails and no cache -> return error.
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
			return nil, fmt.Errorf("storing NVD data in cache: %w", storeErr)
		}
		return parse(data)
	}

	if s.cache.Exists(cacheFilename) {
		fmt.Fprintf(os.Stderr, "warning: failed to download NVD data (%v), using stale cache\n", err)
		return s.fetchFromCache()
	}

	return nil, fmt.Errorf("downloading NVD data: %w", err)
}

func (s *Source) fetchFromCache() ([]types.Event, error) {
	data, err := s.cache.Load(cacheFilename)
	if err != nil {
		return nil, fmt.Errorf("loading NVD data from cache: %w", err)
	}
	return parse(data)
}

// download fetches one page of recent CVEs from the NVD API.
func (s *Source) download() ([]byte, error) {
	url := fmt.Sprintf("%s?resultsPerPage=%d&startIndex=0", apiURL, pageSize)

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

// parse unmarshals an NVD API response and maps at most maxEvents CVE
// records into normalized events. Records without an ID are skipped.
func parse(data []byte) ([]types.Event, error) {
	var resp types.NVDResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling NVD response: %w", err)
	}

	events := make([]types.Event, 0, maxEvents)
	for _, vuln := range resp.Vulnerabilities {
		if len(events) >= maxEvents {
			break
		}
		cve := vuln.CVE
		if cve.ID == "" {
			continue
		}
		events = append(events, types.NewEvent(
			cve.ID,
			types.CategoryCVE,
			baseScore(cve.Metrics),
			description(cve.Descriptions),
			cve.Published,
		))
	}

	return events, nil
}

// baseScore extracts the CVSS base score, preferring newer schema versions:
// v3.1 > v3.0 > v2. Records with no metrics score 0.0.
func baseScore(m types.NVDMetrics) float64 {
	for _, metrics := range [][]types.NVDCVSSMetric{m.CVSSMetricV31, m.CVSSMetricV30, m.CVSSMetricV2} {
		if len(metrics) > 0 {
			return metrics[0].CVSSData.BaseScore
		}
	}
	return 0
}

// description returns the English description, falling back to the first
// available one.
func description(descs []types.NVDDescription) string {
	for _, d := range descs {
		if d.Lang == "en" {
			return d.Value
		}
	}
	if len(descs) > 0 {
		return descs[0].Value
	}
	return ""
}
