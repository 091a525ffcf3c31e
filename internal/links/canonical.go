package links

import (
	"net/url"
	"sort"
	"strings"

	"sjsage522/contactmerge/internal/contact"
)

// Service names used by Canonical
const (
	ServiceYouTube   = "youtube"
	ServiceTwitch    = "twitch"
	ServiceTwitter   = "twitter"
	ServiceBluesky   = "bluesky"
	ServiceEmail     = "email"
	ServiceDiscord   = "discord"
	ServiceInstagram = "instagram"
	ServicePatreon   = "patreon"
	ServiceLinkedIn  = "linkedin"
	ServiceWebsite   = "website"
)

// identityTracking are query parameters that never change what a link points to
var identityTracking = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"fbclid":       true,
}

// hostIs reports whether host is one of domains or a subdomain of one
func hostIs(host string, domains ...string) bool {
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// bareHost strips the port and a leading www. from a lowercased host
func bareHost(u *url.URL) string {
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// parseLoose parses raw, treating a scheme-less host[/path] token as https
func parseLoose(raw string) (*url.URL, error) {
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" && u.Host == "" && u.Path != "" && !strings.HasPrefix(u.Path, "/") {
		return url.Parse("https://" + raw)
	}
	return u, nil
}

// youtubeIdentity returns youtube:@handle, youtube:channel:<id> or
// youtube:custom:<name> for a channel link. Google sign-in continuations
// are followed first.
func youtubeIdentity(raw string) string {
	u, err := parseLoose(raw)
	if err != nil {
		return ""
	}
	if hostIs(bareHost(u), "accounts.google.com") {
		q := u.Query()
		for _, key := range []string{"continue", "next", "q"} {
			if target := q.Get(key); target != "" {
				if u, err = parseLoose(target); err != nil {
					return ""
				}
				break
			}
		}
	}
	if !hostIs(bareHost(u), "youtube.com") {
		return ""
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case strings.HasPrefix(segments[0], "@") && len(segments[0]) > 1:
		return "youtube:" + segments[0]
	case len(segments) < 2 || segments[1] == "":
		return ""
	case segments[0] == "channel":
		return "youtube:channel:" + segments[1]
	case segments[0] == "c", segments[0] == "user":
		return "youtube:custom:" + segments[1]
	}
	return ""
}

// Canonical maps a raw link to an identity string and the service it
// belongs to. Two links with the same canonical form point at the same
// account or page. An empty link yields empty results.
func Canonical(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	if strings.HasPrefix(raw, "http://") {
		raw = "https://" + strings.TrimPrefix(raw, "http://")
	}

	if strings.HasPrefix(strings.ToLower(raw), "mailto:") {
		return "email:" + contact.Canonicalize(raw), ServiceEmail
	}
	if id := youtubeIdentity(raw); id != "" {
		return id, ServiceYouTube
	}

	u, err := parseLoose(raw)
	if err != nil {
		return raw, ServiceWebsite
	}
	host := bareHost(u)
	path := strings.TrimRight(u.Path, "/")

	switch {
	case hostIs(host, "twitch.tv"):
		return "twitch:" + strings.TrimLeft(path, "/"), ServiceTwitch
	case hostIs(host, "twitter.com", "x.com"):
		return "twitter:" + strings.TrimLeft(path, "/"), ServiceTwitter
	case hostIs(host, "bsky.app", "bsky.social"):
		return "bluesky:" + path, ServiceBluesky
	}

	base := strings.TrimRight(u.Scheme+"://"+u.Host+u.Path, "/")
	if query := keptQuery(u.Query()); query != "" {
		base += "?" + query
	}

	switch {
	case hostIs(host, "discord.gg", "discord.com"):
		return "discord:" + base, ServiceDiscord
	case hostIs(host, "instagram.com"):
		return "instagram:" + path, ServiceInstagram
	case hostIs(host, "patreon.com"):
		return "patreon:" + path, ServicePatreon
	case hostIs(host, "linkedin.com"):
		return "linkedin:" + path, ServiceLinkedIn
	}
	return base, ServiceWebsite
}

// keptQuery renders the non-tracking parameters sorted by key with their
// decoded values
func keptQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		if !identityTracking[strings.ToLower(k)] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		for _, v := range q[k] {
			if v == "" {
				continue
			}
			parts = append(parts, k+"="+v)
		}
	}
	return strings.Join(parts, "&")
}
