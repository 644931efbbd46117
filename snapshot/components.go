package snapshot

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/randalmurphal/qw/artifact"
	"github.com/randalmurphal/qw/errors"
)

var componentHeader = []string{"name", "short_code", "description"}

// LoadComponents reads a component registry:
//
//	name,short_code,description
//	System,X,Whole system requirements
//
// A bad header, a row with the wrong number of columns, an empty short code
// or a repeated short code is a configuration error.
func LoadComponents(r io.Reader, source string) ([]artifact.Component, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if stderrors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewConfigurationError(source, 1, "%v", err)
	}
	if !equalFold(header, componentHeader) {
		return nil, errors.NewConfigurationError(source, 1, "header must be %q", strings.Join(componentHeader, ","))
	}

	var out []artifact.Component
	seen := make(map[string]int)
	for {
		row, err := cr.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if stderrors.As(err, &pe) {
				return nil, errors.NewConfigurationError(source, pe.Line, "%v", pe.Err)
			}
			return nil, errors.NewConfigurationError(source, 0, "%v", err)
		}
		line, _ := cr.FieldPos(0)
		if len(row) != len(componentHeader) {
			return nil, errors.NewConfigurationError(source, line, "want %d columns, got %d", len(componentHeader), len(row))
		}
		c := artifact.Component{
			Name:        strings.TrimSpace(row[0]),
			ShortCode:   strings.TrimSpace(row[1]),
			Description: strings.TrimSpace(row[2]),
		}
		if err := ValidateComponent(c); err != nil {
			return nil, errors.NewConfigurationError(source, line, "%v", err)
		}
		if prev, dup := seen[c.ShortCode]; dup {
			return nil, errors.NewConfigurationError(source, line, "short code %q already used on line %d", c.ShortCode, prev)
		}
		seen[c.ShortCode] = line
		out = append(out, c)
	}
	return out, nil
}

// WriteComponents writes the registry with its header.
func WriteComponents(w io.Writer, components []artifact.Component) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(componentHeader); err != nil {
		return err
	}
	for _, c := range components {
		if err := cw.Write([]string{c.Name, c.ShortCode, c.Description}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ValidateComponent checks the fields of a single component.
func ValidateComponent(c artifact.Component) error {
	if c.Name == "" {
		return fmt.Errorf("component name is empty")
	}
	if c.ShortCode == "" {
		return fmt.Errorf("component %q has no short code", c.Name)
	}
	if strings.ContainsAny(c.ShortCode, " \t,()") {
		return fmt.Errorf("short code %q must be a single word", c.ShortCode)
	}
	return nil
}

// AddComponent returns components with c appended. The short code must not
// already be registered.
func AddComponent(components []artifact.Component, c artifact.Component) ([]artifact.Component, error) {
	if err := ValidateComponent(c); err != nil {
		return nil, err
	}
	if existing, ok := artifact.FindComponent(components, c.ShortCode); ok {
		return nil, fmt.Errorf("short code %q is already used by %q", c.ShortCode, existing.Name)
	}
	out := make([]artifact.Component, 0, len(components)+1)
	out = append(out, components...)
	return append(out, c), nil
}

func equalFold(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(strings.TrimSpace(a[i]), b[i]) {
			return false
		}
	}
	return true
}
