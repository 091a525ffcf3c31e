package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sjsage522/contactmerge/pkg/errors"
)

const stage = "dataset"

// now is swapped in tests
var now = time.Now

// AuthorNote formats the provenance line written above a CSV header
func AuthorNote(createdBy string) string {
	ts := now().UTC().Format("2006-01-02T15:04:05.000000") + "Z"
	return fmt.Sprintf("# created_by: %s | %s", createdBy, ts)
}

// ReadFile reads a header-first CSV, skipping leading blank and '#' lines
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewInput(stage, fmt.Sprintf("cannot open %s", path), err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read parses CSV content from r, skipping leading blank and '#' lines
func Read(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	var body bytes.Buffer
	skipping := true
	for {
		line, err := br.ReadString('\n')
		if skipping {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") {
				if err != nil {
					break
				}
				continue
			}
			skipping = false
		}
		body.WriteString(line)
		if err != nil {
			break
		}
	}
	if body.Len() == 0 {
		return nil, errors.NewParsing(stage, "no CSV content after skipping comments", nil)
	}

	cr := csv.NewReader(&body)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.NewParsing(stage, "cannot read header", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParsing(stage, "cannot read record", err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				row[col] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Write encodes the table as CSV, preceded by an author note when createdBy
// is not empty
func Write(w io.Writer, t *Table, createdBy string) error {
	if createdBy != "" {
		if _, err := io.WriteString(w, AuthorNote(createdBy)+"\n"); err != nil {
			return err
		}
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	rec := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i, col := range t.Header {
			rec[i] = row[col]
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path, creating parent directories
func WriteFile(path string, t *Table, createdBy string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewInput(stage, fmt.Sprintf("cannot create %s", dir), err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.NewInput(stage, fmt.Sprintf("cannot create %s", path), err)
	}
	if err := Write(f, t, createdBy); err != nil {
		f.Close()
		return errors.NewInput(stage, fmt.Sprintf("cannot write %s", path), err)
	}
	return f.Close()
}

// PrependAuthorNote inserts an author note at the top of an existing file.
// It returns false without error when the file is already annotated.
func PrependAuthorNote(path, createdBy string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, errors.NewInput(stage, fmt.Sprintf("cannot read %s", path), err)
	}
	if bytes.HasPrefix(content, []byte("#")) {
		return false, nil
	}
	if createdBy == "" {
		createdBy = filepath.Base(os.Args[0])
	}
	out := append([]byte(AuthorNote(createdBy)+"\n"), content...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return false, errors.NewInput(stage, fmt.Sprintf("cannot write %s", path), err)
	}
	return true, nil
}
