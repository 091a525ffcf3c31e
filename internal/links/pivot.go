package links

import (
	"fmt"
	"sort"
	"strings"

	"sjsage522/contactmerge/internal/dataset"
)

// Pivot attaches uniformized links back to the rows they were extracted
// from. Every service gets a column holding its canonical links joined by
// '|'; websites and emails are also spread over website_N and email_N
// columns sized to the row with the most of them. A service column whose
// name is already taken by an input column is written as <service>_links.
func Pivot(rows, uniform *dataset.Table) *dataset.Table {
	perRow := make([]map[string][]string, rows.Len())
	for i := range perRow {
		perRow[i] = make(map[string][]string)
	}

	services := make(map[string]struct{})
	for _, u := range uniform.Rows {
		service := strings.TrimSpace(u["service"])
		canon := strings.TrimSpace(u["canonical"])
		if service == "" || canon == "" {
			continue
		}
		for _, idx := range Sources(u) {
			if idx < 0 || idx >= len(perRow) {
				continue
			}
			perRow[idx][service] = appendUnique(perRow[idx][service], canon)
			services[service] = struct{}{}
		}
	}

	serviceNames := make([]string, 0, len(services))
	for s := range services {
		serviceNames = append(serviceNames, s)
	}
	sort.Strings(serviceNames)

	maxWeb, maxEmail := 0, 0
	for _, links := range perRow {
		maxWeb = max(maxWeb, len(links[ServiceWebsite]))
		maxEmail = max(maxEmail, len(links[ServiceEmail]))
	}

	out := dataset.NewTable(rows.Header...)
	columnFor := make(map[string]string, len(serviceNames))
	for _, s := range serviceNames {
		col := s
		if out.HasColumn(col) {
			col = s + "_links"
		}
		columnFor[s] = col
		out.EnsureColumn(col)
	}
	for i := 1; i <= maxWeb; i++ {
		out.EnsureColumn(fmt.Sprintf("website_%d", i))
	}
	for i := 1; i <= maxEmail; i++ {
		out.EnsureColumn(fmt.Sprintf("email_%d", i))
	}

	for i, base := range rows.Rows {
		r := make(dataset.Row, len(out.Header))
		for _, col := range rows.Header {
			r[col] = base[col]
		}
		links := perRow[i]
		for _, s := range serviceNames {
			r[columnFor[s]] = strings.Join(links[s], listSep)
		}
		spread(r, "website", links[ServiceWebsite], maxWeb)
		spread(r, "email", links[ServiceEmail], maxEmail)
		out.Rows = append(out.Rows, r)
	}
	return out
}

func spread(r dataset.Row, prefix string, values []string, n int) {
	for i := 0; i < n; i++ {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		r[fmt.Sprintf("%s_%d", prefix, i+1)] = v
	}
}
