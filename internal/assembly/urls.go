// Package assembly drives the catalog build: it runs the harvest,
// enrichment and extraction stages in order, persists a snapshot at
// every stage boundary, and folds the independently harvested audio
// links into the API-derived records by URL identity.
package assembly

import "strings"

// NormalizeURL reduces a page URL to its comparison form: lowercased,
// scheme and "www." prefix stripped, at most one trailing slash
// removed. Records from different stages cite the same page with
// cosmetic variations; this form is their shared key. The function is
// idempotent.
func NormalizeURL(rawURL string) string {
	u := strings.ToLower(strings.TrimSpace(rawURL))
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	u = strings.TrimSuffix(u, "/")
	return u
}
