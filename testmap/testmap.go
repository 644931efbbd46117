// Package testmap loads the table that maps test names to the design
// verification and validation pull requests they exercise.
//
// The table is a CSV file with a "test,targets" header. Targets are artifact
// references separated by semicolons:
//
//	test,targets
//	TestDoseLimit,#15;#16
//	TestAlarmVolume,#18
//
// Lines starting with '#' are comments. Rows that cannot be read are kept as
// table-level issues so the rest of the table stays usable; a test name that
// appears twice makes the whole table untrustworthy and fails the load.
package testmap

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/errors"
)

// DefaultFile is the table location inside the store directory.
const DefaultFile = "test_mapping.csv"

var targetPattern = regexp.MustCompile(`^([#!]?\d+)$`)

// Row maps one test to its targets.
type Row struct {
	Line    int
	Test    string
	Targets []artifact.ID
}

// Issue is a row that could not be read.
type Issue struct {
	Line   int
	Reason string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Reason)
}

// Table is a loaded test mapping.
type Table struct {
	Source string
	Rows   []Row
	Issues []Issue
}

// Tests returns the names of the tests that target id, in table order.
func (t *Table) Tests(id artifact.ID) []string {
	if t == nil {
		return nil
	}
	var out []string
	for _, row := range t.Rows {
		for _, target := range row.Targets {
			if target == id {
				out = append(out, row.Test)
				break
			}
		}
	}
	return out
}

// Covers reports whether at least one test targets id.
func (t *Table) Covers(id artifact.ID) bool {
	return len(t.Tests(id)) > 0
}

// Load reads a table. source names the table in errors.
func Load(r io.Reader, source string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	table := &Table{Source: source}
	seen := make(map[string]int)
	header := true

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if stderrors.As(err, &perr) {
				return nil, errors.NewConfigurationError(source, perr.Line, "%v", perr.Err)
			}
			return nil, errors.NewConfigurationError(source, 0, "%v", err)
		}
		line, _ := cr.FieldPos(0)

		if header {
			header = false
			if len(rec) != 2 || !strings.EqualFold(strings.TrimSpace(rec[0]), "test") ||
				!strings.EqualFold(strings.TrimSpace(rec[1]), "targets") {
				return nil, errors.NewConfigurationError(source, line, "expected header \"test,targets\", got %q", strings.Join(rec, ","))
			}
			continue
		}

		if len(rec) != 2 {
			table.Issues = append(table.Issues, Issue{Line: line, Reason: fmt.Sprintf("expected 2 columns, got %d", len(rec))})
			continue
		}

		test := strings.TrimSpace(rec[0])
		if test == "" {
			table.Issues = append(table.Issues, Issue{Line: line, Reason: "missing test name"})
			continue
		}
		if first, dup := seen[test]; dup {
			return nil, errors.NewConfigurationError(source, line, "test %q is already mapped on line %d", test, first)
		}
		seen[test] = line

		targets, reason := parseTargets(rec[1])
		if reason != "" {
			table.Issues = append(table.Issues, Issue{Line: line, Reason: fmt.Sprintf("%s: %s", test, reason)})
			continue
		}
		table.Rows = append(table.Rows, Row{Line: line, Test: test, Targets: targets})
	}

	if header {
		return nil, errors.NewConfigurationError(source, 0, "missing header \"test,targets\"")
	}
	return table, nil
}

func parseTargets(field string) ([]artifact.ID, string) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, "no targets"
	}

	var ids []artifact.ID
	for _, part := range strings.Split(field, ";") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
			return nil, fmt.Sprintf("empty target in %q", field)
		case strings.ContainsAny(part, ", \t"):
			return nil, fmt.Sprintf("targets must be separated by ';' in %q", field)
		}
		m := targetPattern.FindStringSubmatch(part)
		if m == nil {
			return nil, fmt.Sprintf("%q is not an artifact reference", part)
		}
		id, err := artifact.ParseID(m[1])
		if err != nil {
			return nil, err.Error()
		}
		ids = append(ids, id)
	}
	return ids, ""
}

// LoadFile reads the table at path. A missing file yields an empty table.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return &Table{Source: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open test mapping: %w", err)
	}
	defer f.Close()
	return Load(f, path)
}
