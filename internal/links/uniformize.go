package links

import (
	"strconv"
	"strings"

	"sjsage522/contactmerge/internal/dataset"
)

// UniformColumns is the header of a Uniformize result
var UniformColumns = []string{"service", "canonical", "examples", "sources"}

// listSep joins multi-valued cells
const listSep = "|"

type uniformEntry struct {
	service   string
	canonical string
	examples  []string
	sources   []string
}

// Uniformize collapses extracted links that share a canonical identity.
// Each output row keeps the distinct raw spellings seen and the source row
// indices, in first-seen order.
func Uniformize(extracted *dataset.Table) *dataset.Table {
	var order []*uniformEntry
	byKey := make(map[string]*uniformEntry)

	for _, r := range extracted.Rows {
		raw := r.Get("extracted_link", "link")
		canon, service := Canonical(raw)
		if canon == "" {
			continue
		}
		key := service + "\x00" + canon
		e, ok := byKey[key]
		if !ok {
			e = &uniformEntry{service: service, canonical: canon}
			byKey[key] = e
			order = append(order, e)
		}
		e.examples = appendUnique(e.examples, raw)
		e.sources = appendUnique(e.sources, strings.TrimSpace(r["row_index"]))
	}

	out := dataset.NewTable(UniformColumns...)
	for _, e := range order {
		out.Rows = append(out.Rows, dataset.Row{
			"service":   e.service,
			"canonical": e.canonical,
			"examples":  strings.Join(e.examples, listSep),
			"sources":   strings.Join(e.sources, listSep),
		})
	}
	return out
}

// Sources parses the row indices of a uniform row, skipping malformed ones
func Sources(r dataset.Row) []int {
	var out []int
	for _, s := range strings.Split(r["sources"], listSep) {
		idx, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			continue
		}
		out = append(out, idx)
	}
	return out
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}
