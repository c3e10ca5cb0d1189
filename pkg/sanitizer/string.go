package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeSubject(subject string) string {
	return TrimAndNormalize(subject)
}

// NormalizeLabName upper-cases after collapsing whitespace. Lab names are
// compared and stored upper-cased, the way the roster source writes them.
func NormalizeLabName(name string) string {
	return strings.ToUpper(TrimAndNormalize(name))
}

// NormalizeSchoolCode upper-cases the short code.
func NormalizeSchoolCode(code string) string {
	return strings.ToUpper(TrimAndNormalize(code))
}

// NormalizeSoftwareName lower-cases so that software filters match
// case-insensitively.
func NormalizeSoftwareName(name string) string {
	return strings.ToLower(TrimAndNormalize(name))
}
