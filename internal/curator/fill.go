package curator

import (
	"strings"

	"sjsage522/contactmerge/internal/contact"
	"sjsage522/contactmerge/internal/dataset"
)

// ProfileResult is what one about-page visit extracted for a profile
type ProfileResult struct {
	Profile string
	About   string
	Email   string
}

// ResultsFromTable indexes an about-page pass by profile URL. Later rows for
// the same profile win.
func ResultsFromTable(t *dataset.Table) map[string]ProfileResult {
	out := make(map[string]ProfileResult, t.Len())
	for _, r := range t.Rows {
		profile := r.Get("steam_profile", "profile")
		if profile == "" {
			continue
		}
		out[profile] = ProfileResult{
			Profile: profile,
			About:   r.Get("about_me", "about"),
			Email:   r.Get("email"),
		}
	}
	return out
}

// NeedsAbout reports whether a row has a profile but no usable about text
func NeedsAbout(r dataset.Row) bool {
	about := strings.TrimSpace(r["about_me"])
	if about != "" && about != AboutErrorMarker {
		return false
	}
	return strings.TrimSpace(r["steam_profile"]) != ""
}

// ApplyProfileFill writes an about-page result into a row. An extracted
// about text replaces the old one, otherwise the row is marked as failed. A
// found email only replaces an empty or invalid one.
func ApplyProfileFill(r dataset.Row, about, email string) {
	if about = CleanAbout(about); about != "" {
		r["about_me"] = about
	} else {
		r["about_me"] = AboutErrorMarker
	}

	existing := strings.TrimSpace(r["email"])
	existingValid := existing != "" && contact.HasAddress(existing)
	email = strings.TrimSpace(email)

	switch {
	case email != "":
		if !existingValid {
			r["email"] = email
		}
		r["has_email"] = "1"
	case existingValid:
		r["has_email"] = "1"
	default:
		r["email"] = ""
		r["has_email"] = "0"
	}
}

// FillMissingAbout applies results to every row that needs an about text and
// has one. It returns the profiles that were filled and those still pending.
func FillMissingAbout(t *dataset.Table, results map[string]ProfileResult) (filled, pending []string) {
	t.EnsureColumn("about_me")
	t.EnsureColumn("email")
	t.EnsureColumn("has_email")

	for _, r := range t.Rows {
		if !NeedsAbout(r) {
			continue
		}
		profile := strings.TrimSpace(r["steam_profile"])
		res, ok := results[profile]
		if !ok {
			pending = append(pending, profile)
			continue
		}
		ApplyProfileFill(r, res.About, res.Email)
		filled = append(filled, profile)
	}
	return filled, pending
}
