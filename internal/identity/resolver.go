// Package identity derives stable, source-namespaced ids used as dedup keys.
//
// The discriminator preference order is: an explicit source-native id, then a
// solicitation number recoverable from the title, then a hash of the
// canonicalized URL, and as a last resort a hash of the normalized title.
// Hash-of-title is a known weak point: a source that reformats titles between
// crawls can mint a second id for the same logical notice. That limitation is
// carried deliberately instead of papering over it with fuzzy matching.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"

	"RfpFinder/internal/domain"
)

// hashWidth fixes the hex width of hash-based discriminators.
const hashWidth = 10

// solicitationExpr picks up patterns like "RFP-2024" or "BPM001234-25" that
// state portals embed directly in notice titles.
var solicitationExpr = regexp.MustCompile(`\b(\w+-\d+)\b`)

var whitespaceExpr = regexp.MustCompile(`\s+`)

// Resolve produces the {NAMESPACE}-{DISCRIMINATOR} id for a candidate.
// The same logical notice must resolve to the same id on every re-scrape.
func Resolve(namespace string, c domain.Candidate) string {
	return namespace + "-" + discriminator(c)
}

func discriminator(c domain.Candidate) string {
	if native := strings.TrimSpace(c.NativeID); native != "" {
		return strings.ToUpper(whitespaceExpr.ReplaceAllString(native, ""))
	}

	if m := solicitationExpr.FindString(c.Title); m != "" {
		return strings.ToUpper(m)
	}

	if canonical := canonicalURL(c.URL); canonical != "" {
		return digest(canonical)
	}

	return digest(normalizeTitle(c.Title))
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:hashWidth]
}

// canonicalURL strips the parts of a URL that vary between crawls of the same
// notice: scheme/host casing, fragments, and trailing slashes.
func canonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return raw
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")

	return parsed.String()
}

func normalizeTitle(title string) string {
	return whitespaceExpr.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), " ")
}
