package curator

import (
	"regexp"
	"strings"
)

// AboutErrorMarker is written in place of an about text that could not be
// extracted, so later passes can find the row again
const AboutErrorMarker = "[ERROR: Unable to extract 'about me' section]"

const maxAboutRunes = 800

var (
	followersTail = regexp.MustCompile(`(?i)\n?\s*[\d,]+\s*(?:CURATOR|CREATOR)?\s*FOLLOWERS\b.*`)
	reviewsTail   = regexp.MustCompile(`(?i)\n?\s*[\d,]+\s*(?:REVIEWS|REVIEWS POSTED|POSTED)\b.*`)
	postedWord    = regexp.MustCompile(`(?i)\bPOSTED\b`)
	wideSpace     = regexp.MustCompile(`\s{2,}`)
	anySpace      = regexp.MustCompile(`\s+`)
)

// stripCounters removes the follower/review counters that bleed into about
// text scraped from a profile header, then collapses whitespace
func stripCounters(s string) string {
	s = followersTail.ReplaceAllString(s, "")
	s = reviewsTail.ReplaceAllString(s, "")
	s = postedWord.ReplaceAllString(s, "")
	return strings.TrimSpace(anySpace.ReplaceAllString(s, " "))
}

// CleanAbout normalizes a freshly extracted about text: surrounding quotes
// and whitespace are trimmed, counters removed and the result truncated
func CleanAbout(s string) string {
	s = strings.Trim(s, " \t\n\r\"'“”")
	if s == "" {
		return ""
	}
	s = wideSpace.ReplaceAllString(s, " ")
	s = stripCounters(s)
	if r := []rune(s); len(r) > maxAboutRunes {
		s = string(r[:maxAboutRunes])
	}
	return s
}

// finalAbout is the about text as written to the aggregated CSV
func finalAbout(s string) string {
	if s = stripCounters(s); s == "" {
		return AboutErrorMarker
	}
	return s
}
