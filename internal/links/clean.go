package links

import (
	"net/url"
	"strings"

	"sjsage522/contactmerge/internal/contact"
	"sjsage522/contactmerge/internal/dataset"
)

// channelColumns name the cell holding the row's own channel
var channelColumns = []string{"channel_url", "channel"}

// wrapperParams carry the real target of a redirect or sign-in link
var wrapperParams = []string{"continue", "q", "u", "url"}

var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"fbclid":       true,
	"gclid":        true,
	"mc_cid":       true,
	"mc_eid":       true,
	"ref":          true,
	"ref_src":      true,
	"igshid":       true,
}

// youtubeParams are the only query parameters kept on YouTube links
var youtubeParams = map[string]bool{"v": true, "list": true, "t": true, "index": true}

// identities returns the set of ways raw may refer to a YouTube channel:
// @handle, channel:<id>, user:<name>, plus the link itself without its
// fragment. Wrapped targets are inspected too.
func identities(raw string) map[string]struct{} {
	ids := make(map[string]struct{})
	collectIdentities(raw, ids, 0)
	return ids
}

func collectIdentities(raw string, ids map[string]struct{}, depth int) {
	if raw == "" || depth > 3 {
		return
	}
	u, err := parseLoose(raw)
	if err != nil {
		return
	}
	q := u.Query()
	for _, key := range wrapperParams {
		for _, target := range q[key] {
			collectIdentities(target, ids, depth+1)
		}
	}

	if hostIs(bareHost(u), "youtube.com") {
		path := strings.ToLower(u.Path)
		if h := segmentAfter(path, "/@"); h != "" {
			ids["@"+h] = struct{}{}
		}
		if id := segmentAfter(path, "/channel/"); id != "" {
			ids["channel:"+id] = struct{}{}
		}
		if name := segmentAfter(path, "/user/"); name != "" {
			ids["user:"+name] = struct{}{}
		}
	}

	if u.Scheme != "" && u.Host != "" {
		u.Fragment = ""
		ids[strings.TrimRight(u.String(), "/")] = struct{}{}
	}
}

func segmentAfter(path, marker string) string {
	i := strings.Index(path, marker)
	if i < 0 {
		return ""
	}
	rest := path[i+len(marker):]
	if j := strings.Index(rest, "/"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

func intersects(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

// Unwrap resolves Google sign-in and YouTube redirect wrappers to the link
// they carry and drops the fragment of any other absolute URL
func Unwrap(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	host := bareHost(u)
	q := u.Query()
	if hostIs(host, "accounts.google.com") {
		for _, key := range []string{"continue", "q", "url"} {
			if target := q.Get(key); target != "" {
				return target
			}
		}
	}
	if hostIs(host, "youtube.com") && strings.HasPrefix(u.Path, "/redirect") {
		if target := q.Get("q"); target != "" {
			return target
		}
	}
	u.Fragment = ""
	return u.String()
}

// signinTarget returns the absolute destination of a YouTube sign-in link
func signinTarget(u *url.URL) string {
	if !hostIs(bareHost(u), "youtube.com") || !strings.HasPrefix(u.Path, "/signin") {
		return ""
	}
	q := u.Query()
	for _, key := range []string{"next", "continue", "q", "url"} {
		target := q.Get(key)
		if target == "" {
			continue
		}
		if strings.HasPrefix(target, "/") {
			return "https://www.youtube.com" + target
		}
		return target
	}
	return ""
}

// CanonicalURL normalizes a link for comparison: https by default,
// lowercase host without www., tracking parameters removed, only v, list,
// t and index kept on YouTube, no fragment and no trailing slash
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := parseLoose(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	youtube := hostIs(u.Hostname(), "youtube.com", "youtu.be")

	q := u.Query()
	for k := range q {
		if trackingParams[k] || (youtube && !youtubeParams[k]) {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""
	u.RawFragment = ""
	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = ""
	}
	return u.String()
}

func looksLinky(v string) bool {
	return strings.Contains(v, "http") || strings.Contains(v, "mailto") || strings.Contains(v, "www.")
}

// cleanCell rewrites one '|' separated list of links
func cleanCell(val string, channel map[string]struct{}) string {
	seen := make(map[string]struct{})
	var kept []string
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		kept = append(kept, v)
	}

	for _, part := range strings.Split(val, listSep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		link := Unwrap(part)
		if link == "" {
			continue
		}

		if len(channel) > 0 {
			if u, err := url.Parse(link); err == nil {
				if target := signinTarget(u); target != "" && intersects(identities(target), channel) {
					continue
				}
			}
			if intersects(identities(link), channel) {
				continue
			}
		}

		if strings.HasPrefix(strings.ToLower(link), "mailto:") {
			add(contact.Canonicalize(link))
			continue
		}
		add(CanonicalURL(link))
	}
	return strings.Join(kept, listSep)
}

// CleanRow returns a copy of r with every link-bearing cell unwrapped,
// canonicalized and deduplicated. Links that point back at the row's own
// channel are dropped from every cell except the channel cell itself.
func CleanRow(r dataset.Row) dataset.Row {
	channelCol := ""
	for _, c := range channelColumns {
		if strings.TrimSpace(r[c]) != "" {
			channelCol = c
			break
		}
	}
	var channel map[string]struct{}
	if channelCol != "" {
		channel = identities(strings.TrimSpace(r[channelCol]))
	}

	out := r.Clone()
	for col, val := range r {
		if val == "" || !looksLinky(val) {
			continue
		}
		if col == channelCol {
			out[col] = cleanCell(val, nil)
			continue
		}
		out[col] = cleanCell(val, channel)
	}
	return out
}

// Clean applies CleanRow to every row and then drops columns left empty.
// It returns the dropped column names.
func Clean(t *dataset.Table) []string {
	for i, r := range t.Rows {
		t.Rows[i] = CleanRow(r)
	}
	return t.DropEmptyColumns()
}
