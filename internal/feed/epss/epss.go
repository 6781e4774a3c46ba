// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package epss

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bonial-oss/threat-pulse/internal/cache"
	"github.com/bonial-oss/threat-pulse/internal/types"
)

const (
	cacheFilename   = "epss_scores.json"
	apiURL          = "https://api.first.org/data/v1/epss"
	maxEvents       = 20
	maxResponseSize = 50 * 1024 * 1024 // 50 MB
)

// Source fetches exploitation probabilities from the FIRST EPSS API and
// normalizes them into events, with caching support.
type Source struct {
	cache  *cache.Cache
	client *http.Client
}

// NewSource creates an EPSS feed source with cache stored under cacheDir/epss/.
func NewSource(cacheDir string, timeout time.Duration) *Source {
	return &Source{
		cache:  cache.New(filepath.Join(cacheDir, "epss"), cache.DefaultTTL),
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the source name used in logs and error strings.
func (s *Source) Name() string { return "EPSS" }

// Fetch returns normalized events from the EPSS feed, using cache when
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
			return nil, fmt.Errorf("storing EPSS data in cache: %w", storeErr)
		}
		return parse(data)
	}

	if s.cache.Exists(cacheFilename) {
		fmt.Fprintf(os.Stderr, "warning: failed to download EPSS data (%v), using stale cache\n", err)
		return s.fetchFromCache()
	}

	return nil, fmt.Errorf("downloading EPSS data: %w", err)
}

func (s *Source) fetchFromCache() ([]types.Event, error) {
	data, err := s.cache.Load(cacheFilename)
	if err != nil {
		return nil, fmt.Errorf("loading EPSS data from cache: %w", err)
	}
	return parse(data)
}

func (s *Source) download() ([]byte, error) {
	resp, err := s.client.Get(apiURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, apiURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return data, nil
}

// parse unmarshals an EPSS API response and maps at most maxEvents records
// into normalized events. The API returns scores in descending order, so the
// cap keeps the highest-probability entries. A record with a missing CVE or
// unparseable probability is skipped without failing the payload.
func parse(data []byte) ([]types.Event, error) {
	var resp types.EPSSResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling EPSS response: %w", err)
	}

	events := make([]types.Event, 0, maxEvents)
	for _, record := range resp.Data {
		if len(events) >= maxEvents {
			break
		}
		if record.CVE == "" {
			continue
		}
		probability, err := strconv.ParseFloat(record.EPSS, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping EPSS record %s: invalid probability %q\n", record.CVE, record.EPSS)
			continue
		}
		events = append(events, types.NewEvent(
			record.CVE,
			types.CategoryEPSS,
			probability*10,
			description(record, probability),
			record.Date,
		))
	}

	return events, nil
}

func description(record types.EPSSRecord, probability float64) string {
	if record.Percentile != "" {
		if percentile, err := strconv.ParseFloat(record.Percentile, 64); err == nil {
			return fmt.Sprintf("Exploitation probability %.4f (percentile %.1f)", probability, percentile*100)
		}
	}
	return fmt.Sprintf("Exploitation probability %.4f", probability)
}
