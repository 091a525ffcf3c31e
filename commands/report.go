package commands

import (
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// createdBy is the author note written at the top of generated CSV files
func createdBy(command string) string {
	return "contactmerge " + command
}

// renderReport prints metric/value pairs as a table
func renderReport(w io.Writer, title string, rows ...table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"Metric", "Value"})
	for _, r := range rows {
		t.AppendRow(r)
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// withSuffix returns path with suffix inserted before its extension
func withSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ".csv"
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
