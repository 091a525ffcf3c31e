package links

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"sjsage522/contactmerge/internal/contact"
	"sjsage522/contactmerge/internal/dataset"

	"github.com/PuerkitoBio/goquery"
	"github.com/titanous/json5"
)

// ExtractedColumns is the header of an Extract result
var ExtractedColumns = []string{"row_index", "video_url", "channel_url", "extracted_link"}

// urlPattern matches absolute http(s) URLs and bare host[/path] tokens
var urlPattern = regexp.MustCompile(`https?://[A-Za-z0-9._~:/?#@!$&'()*+,;=%-]+|[A-Za-z0-9.-]+\.[A-Za-z]{2,}(/[^\s,]*)?`)

// trailingPunct is sentence punctuation stripped from the end of a match
const trailingPunct = ".,;:)"

// FindURLs returns every URL-like token in s in order of appearance. Hosts
// that are part of an email address or of a longer word are not links.
func FindURLs(s string) []string {
	var out []string
	for _, loc := range urlPattern.FindAllStringIndex(s, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && wordByte(s[start-1]) {
			continue
		}
		if end < len(s) && s[end] == '@' {
			continue
		}
		if m := strings.TrimRight(s[start:end], trailingPunct); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func wordByte(b byte) bool {
	switch {
	case b == '@', b == '_':
		return true
	case '0' <= b && b <= '9', 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z':
		return true
	}
	return false
}

// textLinks returns the URL tokens of s followed by its plain email
// addresses as mailto links
func textLinks(s string) []string {
	found := FindURLs(s)
	for _, e := range contact.FindAll(s) {
		found = append(found, "mailto:"+e)
	}
	return found
}

// fromValue collects links from a single cell. Cells holding a JSON or
// Python-style literal are walked value by value, HTML cells contribute
// their anchors.
func fromValue(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}

	if strings.HasPrefix(v, "{") || strings.HasPrefix(v, "[") {
		var decoded interface{}
		if err := json5.Unmarshal([]byte(v), &decoded); err == nil {
			return fromDecoded(decoded)
		}
	}

	var found []string
	if strings.Contains(v, "<a") {
		found = append(found, anchors(v)...)
	}
	return append(found, textLinks(v)...)
}

func fromDecoded(v interface{}) []string {
	switch val := v.(type) {
	case []interface{}:
		var out []string
		for _, item := range val {
			out = append(out, fromDecoded(item)...)
		}
		return out
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, fromDecoded(val[k])...)
		}
		return out
	case string:
		return fromValue(val)
	default:
		return nil
	}
}

// anchors returns the href of every anchor in an HTML fragment
func anchors(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			if href = strings.TrimSpace(href); href != "" && !strings.HasPrefix(href, "#") {
				out = append(out, href)
			}
		}
	})
	return out
}

// RowLinks returns the distinct links found anywhere in a row, cell by cell
// in header order and then in the joined row text
func RowLinks(header []string, r dataset.Row) []string {
	var found []string
	values := make([]string, 0, len(header))
	for _, col := range header {
		v := r[col]
		found = append(found, fromValue(v)...)
		if v != "" {
			values = append(values, v)
		}
	}
	found = append(found, textLinks(strings.Join(values, " "))...)
	return unique(found)
}

// Extract writes one row per link found in t, keeping the source row index
// and its video and channel context
func Extract(t *dataset.Table) *dataset.Table {
	out := dataset.NewTable(ExtractedColumns...)
	for idx, r := range t.Rows {
		video := r.Get("video_url", "video")
		channel := r.Get("channel_url", "channel")
		for _, link := range RowLinks(t.Header, r) {
			out.Rows = append(out.Rows, dataset.Row{
				"row_index":      strconv.Itoa(idx),
				"video_url":      video,
				"channel_url":    channel,
				"extracted_link": link,
			})
		}
	}
	return out
}

func unique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
