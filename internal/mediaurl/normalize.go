package mediaurl

import (
	"net/url"
	"strings"

	"github.com/rohmanhakim/board-scraper/pkg/urlutil"
)

/*
Responsibilities
- Resolve a preference-ordered list of candidate source attributes
  to one canonical absolute URL
- Produce the de-duplication key used by the content walker

Resolution Rules
- First candidate that resolves non-empty wins
- Protocol-relative (//host/path) strings are given the https scheme
- Root-relative (/path) strings are joined against the page URL
- Absolute strings pass through unchanged
- Unresolvable or empty candidates yield an empty string

Properties
- Pure: no state, no I/O
- Idempotent: Normalize([x], base) == Normalize([Normalize([x], base)], base)
*/

// Normalize resolves the first usable candidate against the page URL.
// Candidates must be ordered by preference; deferred lazy-load attributes
// belong before the default src, since the default frequently carries only
// a placeholder.
func Normalize(candidates []string, pageUrl url.URL) string {
	for _, candidate := range candidates {
		if resolved := resolveOne(candidate, pageUrl); resolved != "" {
			return resolved
		}
	}
	return ""
}

// CanonicalKey reduces an already-normalized URL string to the canonical
// spelling used as de-duplication key. Returns the input unchanged when it
// cannot be parsed; a stable wrong key still de-duplicates consistently.
func CanonicalKey(normalized string) string {
	if normalized == "" {
		return ""
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return normalized
	}
	canonical := urlutil.Canonicalize(*parsed)
	return canonical.String()
}

func resolveOne(candidate string, pageUrl url.URL) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}

	// Protocol-relative: //cdn.example.com/a.png
	if strings.HasPrefix(candidate, "//") {
		return "https:" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return ""
	}

	// Already absolute
	if parsed.Scheme != "" {
		return candidate
	}

	// Relative: join against the page URL. A page without a usable host
	// cannot anchor a relative reference.
	if pageUrl.Scheme == "" || pageUrl.Host == "" {
		return ""
	}
	resolved := urlutil.Resolve(*parsed, pageUrl)
	return resolved.String()
}
