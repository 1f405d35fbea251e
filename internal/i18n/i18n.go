// Package i18n holds the locales the service renders text in.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

const (
	English    = "en"
	Indonesian = "id"
)

var (
	supported = []language.Tag{language.English, language.Indonesian}
	codes     = []string{English, Indonesian}
	matcher   = language.NewMatcher(supported)
)

// Match returns the supported locale closest to the given BCP 47 tags or
// Accept-Language values, falling back to English.
func Match(preferences ...string) string {
	var tags []language.Tag
	for _, p := range preferences {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(p)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return English
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return English
	}
	return codes[index]
}

// Supported reports whether code is one of the service locales.
func Supported(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// Region returns the explicit region of the most preferred tag in an
// Accept-Language value, or "" when the tag names none.
func Region(accept string) string {
	tags, _, err := language.ParseAcceptLanguage(strings.TrimSpace(accept))
	if err != nil || len(tags) == 0 {
		return ""
	}
	region, confidence := tags[0].Region()
	if confidence != language.Exact {
		return ""
	}
	return region.String()
}
