package contact

import (
	"regexp"
	"strings"

	"sjsage522/contactmerge/internal/dataset"
)

var (
	// looseEmail accepts anything address-shaped; it is what the curator
	// listings are validated against.
	looseEmail = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)

	strictEmail     = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	strictEmailFull = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// youtubeWindow is how far around a candidate a youtube mention disqualifies it
const youtubeWindow = 30

// HasAddress reports whether s contains an address-shaped substring
func HasAddress(s string) bool {
	return looseEmail.MatchString(s)
}

// IsValid reports whether s is exactly one well-formed address
func IsValid(s string) bool {
	return s != "" && strictEmailFull.MatchString(s)
}

// FindAll returns the unique addresses found in text, in order of appearance
func FindAll(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range strictEmail.FindAllString(text, -1) {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

func looksLikeYouTube(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "youtube") || strings.Contains(s, "youtu.be")
}

// FindInText returns the first address in free text that is not part of a
// YouTube link, or "" when none qualifies
func FindInText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "%40", "@")
	lower := strings.ToLower(text)
	mentionsYouTube := strings.Contains(lower, "youtube")

	for _, m := range strictEmail.FindAllString(text, -1) {
		if looksLikeYouTube(m) {
			continue
		}
		if mentionsYouTube {
			idx := strings.Index(lower, strings.ToLower(m))
			if idx != -1 {
				start := max(0, idx-youtubeWindow)
				end := min(len(lower), idx+len(m)+youtubeWindow)
				if looksLikeYouTube(lower[start:end]) {
					continue
				}
			}
		}
		return m
	}
	return ""
}

// Canonicalize strips a mailto: prefix and wrapping characters and lowercases
func Canonicalize(e string) string {
	s := strings.TrimSpace(e)
	if s == "" {
		return s
	}
	if strings.HasPrefix(strings.ToLower(s), "mailto:") {
		s = s[len("mailto:"):]
	}
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "<>")
	return strings.ToLower(strings.TrimSpace(s))
}

// fillSources are the free-text columns searched for an address, in order
var fillSources = []string{"about_me", "external_site", "sample_review"}

// FillFromAbout fills the email column from free-text columns for rows that
// lack a valid address. It returns the number of rows changed.
func FillFromAbout(t *dataset.Table) int {
	t.EnsureColumn("email")
	t.EnsureColumn("has_email")

	changed := 0
	for _, row := range t.Rows {
		existing := strings.TrimSpace(row["email"])
		if IsValid(existing) {
			row["has_email"] = "1"
			continue
		}
		for _, col := range fillSources {
			found := FindInText(row[col])
			if found != "" && IsValid(found) {
				row["email"] = found
				row["has_email"] = "1"
				changed++
				break
			}
		}
	}
	return changed
}
