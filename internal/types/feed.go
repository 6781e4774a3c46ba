// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package types

// Wire types for the three upstream feeds. The schemas are third-party
// controlled, so every field is optional and decodes to a zero value when
// absent or shaped unexpectedly.

// NVDResponse is the envelope of the NVD CVE API v2.0.
type NVDResponse struct {
	ResultsPerPage  int                `json:"resultsPerPage"`
	TotalResults    int                `json:"totalResults"`
	Vulnerabilities []NVDVulnerability `json:"vulnerabilities"`
}

// NVDVulnerability wraps a single CVE record.
type NVDVulnerability struct {
	CVE NVDCVE `json:"cve"`
}

// NVDCVE is the subset of an NVD CVE record the collector reads.
type NVDCVE struct {
	ID           string           `json:"id"`
	Published    string           `json:"published"`
	Descriptions []NVDDescription `json:"descriptions"`
	Metrics      NVDMetrics       `json:"metrics"`
}

// NVDDescription is a localized CVE description.
type NVDDescription struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

// NVDMetrics holds the CVSS metric lists across schema versions. Newer
// schema versions are preferred when extracting a base score.
type NVDMetrics struct {
	CVSSMetricV31 []NVDCVSSMetric `json:"cvssMetricV31"`
	CVSSMetricV30 []NVDCVSSMetric `json:"cvssMetricV30"`
	CVSSMetricV2  []NVDCVSSMetric `json:"cvssMetricV2"`
}

// NVDCVSSMetric is one CVSS measurement entry.
type NVDCVSSMetric struct {
	CVSSData NVDCVSSData `json:"cvssData"`
}

// NVDCVSSData carries the numeric base score.
type NVDCVSSData struct {
	BaseScore float64 `json:"baseScore"`
}

// KEVCatalog represents the CISA KEV catalog JSON structure.
type KEVCatalog struct {
	CatalogVersion  string     `json:"catalogVersion"`
	DateReleased    string     `json:"dateReleased"`
	Count           int        `json:"count"`
	Vulnerabilities []KEVEntry `json:"vulnerabilities"`
}

// KEVEntry represents a single entry in the CISA KEV catalog.
type KEVEntry struct {
	CVEID                      string `json:"cveID"`
	VendorProject              string `json:"vendorProject"`
	Product                    string `json:"product"`
	VulnerabilityName          string `json:"vulnerabilityName"`
	ShortDescription           string `json:"shortDescription"`
	DateAdded                  string `json:"dateAdded"`
	DueDate                    string `json:"dueDate"`
	KnownRansomwareCampaignUse string `json:"knownRansomwareCampaignUse"`
}

// EPSSResponse is the envelope of the FIRST EPSS API.
type EPSSResponse struct {
	Status string       `json:"status"`
	Total  int          `json:"total"`
	Data   []EPSSRecord `json:"data"`
}

// EPSSRecord is one EPSS score row. The API emits the numeric fields as
// strings; parsing happens in the adapter so a malformed row can be skipped
// without failing the whole payload.
type EPSSRecord struct {
	CVE        string `json:"cve"`
	EPSS       string `json:"epss"`
	Percentile string `json:"percentile"`
	Date       string `json:"date"`
}
