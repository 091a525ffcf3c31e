package merge

import (
	"strings"

	"sjsage522/contactmerge/internal/contact"
	"sjsage522/contactmerge/internal/dataset"

	"dario.cat/mergo"
)

// DefaultKey identifies a channel across discovery runs
const DefaultKey = "channel_id"

// emailColumns hold a single address that a later run may correct
var emailColumns = []string{"email", "emails"}

// Result is a merged table plus what the merge did
type Result struct {
	Table      *dataset.Table
	Duplicates int
	Filled     int
	Dropped    int
}

// Runs merges tables that describe the same entities. The first row seen for
// a key keeps its position and values; later rows only fill blank cells, and
// replace an email cell that does not hold a valid address. Rows without a
// key are dropped.
func Runs(key string, tables ...*dataset.Table) Result {
	if key == "" {
		key = DefaultKey
	}

	res := Result{Table: dataset.NewTable()}
	byKey := make(map[string]dataset.Row)

	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, col := range t.Header {
			res.Table.EnsureColumn(col)
		}
		for _, r := range t.Rows {
			id := strings.TrimSpace(r[key])
			if id == "" {
				res.Dropped++
				continue
			}
			kept, ok := byKey[id]
			if !ok {
				row := r.Clone()
				byKey[id] = row
				res.Table.Rows = append(res.Table.Rows, row)
				continue
			}
			res.Duplicates++
			if fillRow(kept, r) {
				res.Filled++
			}
		}
	}

	for _, r := range res.Table.Rows {
		for _, col := range res.Table.Header {
			if _, ok := r[col]; !ok {
				r[col] = ""
			}
		}
	}
	return res
}

// fillRow copies later facts into kept and reports whether anything changed
func fillRow(kept, later dataset.Row) bool {
	changed := false
	for _, col := range emailColumns {
		have := strings.TrimSpace(kept[col])
		offered := strings.TrimSpace(later[col])
		if offered != "" && !validList(have) && validList(offered) {
			kept[col] = later[col]
			changed = true
		}
	}

	for col, v := range kept {
		if strings.TrimSpace(v) == "" {
			kept[col] = ""
		}
	}
	offered := make(dataset.Row, len(later))
	for col, v := range later {
		if strings.TrimSpace(v) != "" {
			offered[col] = v
		}
	}

	before := filledCells(kept)
	// without WithOverride mergo only writes keys that are missing or empty
	_ = mergo.Merge(&kept, offered)
	return changed || filledCells(kept) > before
}

func filledCells(r dataset.Row) int {
	n := 0
	for _, v := range r {
		if v != "" {
			n++
		}
	}
	return n
}

// validList reports whether every ';' separated entry is a valid address
func validList(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ";") {
		if !contact.IsValid(strings.TrimSpace(part)) {
			return false
		}
	}
	return true
}
