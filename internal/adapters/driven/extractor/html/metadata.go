package html

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	yearPattern = regexp.MustCompile(`\b(19[9]\d|20\d\d)\b`)

	// lawReferencePattern matches official gazette citations such as
	// "Sl. glasnik RS", br. 24/2001, 80/2002".
	lawReferencePattern = regexp.MustCompile(
		`(?i)(?:"|„|“)?(?:sl\.|službeni)\s*glasnik\s+(?:rs|republike srbije)(?:"|”|“)?,?\s*br\.?\s*\d+/\d{2,4}(?:\s*(?:,|i)\s*\d+/\d{2,4})*`)
)

// firstYear returns the first year between 1990 and 2099 in s, or 0.
func firstYear(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

// lawReference returns the first official gazette citation in s.
func lawReference(s string) string {
	return strings.TrimSpace(lawReferencePattern.FindString(s))
}

// titleFromURL derives a title from the last path segment.
func titleFromURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "." || name == "/" || name == "" {
		return u.Host
	}
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return strings.TrimSpace(name)
}
