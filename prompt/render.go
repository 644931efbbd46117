package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/check"
	"github.com/randalmurphal/qw/freeze"
)

// embeddedTemplates holds the default report templates.
//
//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// Template names.
const (
	CheckReportTemplate  = "check_report"
	ChangeReportTemplate = "change_report"
	BumpTemplate         = "bump"
)

// ANSI colors used when Color is set.
const (
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiReset  = "\033[0m"
)

// Renderer loads and renders report templates.
type Renderer struct {
	// Color wraps status words in ANSI colors.
	Color bool

	dirs    []string                      // Directories to search
	cache   map[string]*template.Template // Cached templates
	funcMap template.FuncMap              // Template functions
}

// NewRenderer creates a renderer. Templates are looked up as <name>.tmpl in
// dirs, in order, before falling back to the embedded defaults.
func NewRenderer(dirs ...string) *Renderer {
	r := &Renderer{
		dirs:  dirs,
		cache: make(map[string]*template.Template),
	}
	r.funcMap = r.defaultFuncMap()
	return r
}

// Render renders a template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.Execute(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Execute renders a template to w.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	tmpl, err := r.getTemplate(name)
	if err != nil {
		return err
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render template %s: %w", name, err)
	}
	return nil
}

// CheckReport renders a check report.
func (r *Renderer) CheckReport(w io.Writer, report *check.Report) error {
	return r.Execute(w, CheckReportTemplate, report)
}

// ChangeReport renders a freeze change report.
func (r *Renderer) ChangeReport(w io.Writer, report *freeze.ChangeReport) error {
	return r.Execute(w, ChangeReportTemplate, report)
}

// Exists checks if a template exists.
func (r *Renderer) Exists(name string) bool {
	_, err := r.loadRaw(name)
	return err == nil
}

// List returns all available template names, sorted.
func (r *Renderer) List() []string {
	names := make(map[string]bool)
	add := func(entries []os.DirEntry) {
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".tmpl") {
				names[strings.TrimSuffix(entry.Name(), ".tmpl")] = true
			}
		}
	}
	for _, dir := range r.dirs {
		if entries, err := os.ReadDir(dir); err == nil {
			add(entries)
		}
	}
	if entries, err := embeddedTemplates.ReadDir("templates"); err == nil {
		add(entries)
	}

	result := make([]string, 0, len(names))
	for name := range names {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// getTemplate loads and caches a template.
func (r *Renderer) getTemplate(name string) (*template.Template, error) {
	if tmpl, ok := r.cache[name]; ok {
		return tmpl, nil
	}

	content, err := r.loadRaw(name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Funcs(r.funcMap).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	r.cache[name] = tmpl
	return tmpl, nil
}

// loadRaw loads raw template content without parsing.
func (r *Renderer) loadRaw(name string) (string, error) {
	filename := name + ".tmpl"

	for _, dir := range r.dirs {
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err == nil {
			return string(data), nil
		}
	}

	data, err := embeddedTemplates.ReadFile("templates/" + filename)
	if err != nil {
		return "", fmt.Errorf("template not found: %s", name)
	}
	return string(data), nil
}

func (r *Renderer) defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"title":    cases.Title(language.English).String,
		"indent":   indentString,
		"table":    fieldTable,
		"ids":      joinIDs,
		"severity": r.severity,
		"red":      func(s string) string { return r.paint(ansiRed, s) },
		"green":    func(s string) string { return r.paint(ansiGreen, s) },
		"yellow":   func(s string) string { return r.paint(ansiYellow, s) },
	}
}

func (r *Renderer) paint(color, s string) string {
	if !r.Color {
		return s
	}
	return color + s + ansiReset
}

func (r *Renderer) severity(s check.Severity) string {
	switch s {
	case check.SeverityError:
		return r.paint(ansiRed, "ERROR")
	case check.SeverityWarning:
		return r.paint(ansiYellow, "WARN ")
	default:
		return strings.ToUpper(string(s))
	}
}

// fieldTable renders diffs as a Field / Local / Remote table. Multi-line
// fields get a line diff below the table instead of a cell.
func fieldTable(diffs []freeze.FieldDiff) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Field\tLocal\tRemote")
	var multiline []freeze.FieldDiff
	for _, d := range diffs {
		if d.Multiline() {
			fmt.Fprintf(tw, "%s\t(see below)\t(see below)\n", d.Field)
			multiline = append(multiline, d)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Field, orDash(d.Previous), orDash(d.Current))
	}
	tw.Flush()

	for _, d := range multiline {
		fmt.Fprintf(&b, "%s:\n%s", d.Field, indentString(2, d.Unified()))
		if !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinIDs(ids []artifact.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}

// indentString indents all non-empty lines of a string.
func indentString(indent int, s string) string {
	if s == "" {
		return s
	}
	prefix := strings.Repeat(" ", indent)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
