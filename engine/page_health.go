package engine

import "strings"

// Soft-failure heuristic.
//
// A page can arrive over a perfectly good transport and still be useless:
// bot-protection interstitials are small and usually mention a "challenge".
//
// Rules (any one):
//   - len(content) < MinContentBytes (10 000 bytes)
//   - content contains a ChallengeMarkers entry (case-insensitive)
//
// The fetcher reacts by waiting and re-reading the loaded page once; the
// HTTP engine reacts by failing so the dispatcher escalates to the browser.
const MinContentBytes = 10000

// ChallengeMarkers are lower-case substrings found on challenge pages.
var ChallengeMarkers = []string{"challenge"}

// IsSoftFailure reports whether content looks like a bot-challenge page
// rather than real content.
func IsSoftFailure(content string) bool {
	if len(content) < MinContentBytes {
		return true
	}
	lower := strings.ToLower(content)
	for _, marker := range ChallengeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
