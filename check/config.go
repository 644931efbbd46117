package check

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/qw/errors"
)

// DefaultConfigFile is the check configuration inside the store directory.
const DefaultConfigFile = "checks.yaml"

// Severity is the impact of a failed check.
type Severity string

// Severities.
const (
	// SeverityError fails the run.
	SeverityError Severity = "error"

	// SeverityWarning is reported but never fails the run.
	SeverityWarning Severity = "warning"

	// SeverityOff skips the check entirely.
	SeverityOff Severity = "off"
)

// ParseSeverity accepts "error", "warning" or "off" in any case.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToLower(strings.TrimSpace(s))); sev {
	case SeverityError, SeverityWarning, SeverityOff:
		return sev, nil
	default:
		return "", fmt.Errorf("unknown severity %q (want error, warning or off)", s)
	}
}

// Config maps check names to severities. Checks that are not listed use
// their default severity.
type Config struct {
	Source     string
	Severities map[string]Severity
}

// Severity returns the configured severity of c.
func (cfg Config) Severity(c Check) Severity {
	if sev, ok := cfg.Severities[c.Name]; ok {
		return sev
	}
	if c.DefaultSeverity != "" {
		return c.DefaultSeverity
	}
	return SeverityError
}

// Unknown returns the configured names that match no check, sorted.
func (cfg Config) Unknown(checks []Check) []string {
	known := make(map[string]bool, len(checks))
	for _, c := range checks {
		known[c.Name] = true
	}
	var out []string
	for name := range cfg.Severities {
		if !known[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

type configFile struct {
	Checks map[string]string `yaml:"checks"`
}

// ParseConfig reads a YAML check configuration:
//
//	checks:
//	  Verification has test mapping: warning
//	  Component must be registered: off
//
// An invalid severity is a configuration error.
func ParseConfig(r io.Reader, source string) (Config, error) {
	cfg := Config{Source: source, Severities: make(map[string]Severity)}

	var file configFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !stderrors.Is(err, io.EOF) {
		return Config{}, errors.NewConfigurationError(source, 0, "%v", err)
	}

	for name, value := range file.Checks {
		sev, err := ParseSeverity(value)
		if err != nil {
			return Config{}, errors.NewConfigurationError(source, 0, "check %q: %v", name, err)
		}
		cfg.Severities[name] = sev
	}
	return cfg, nil
}

// LoadConfig reads the configuration at path. A missing file yields a
// configuration where every check runs at its default severity.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return Config{Source: path, Severities: map[string]Severity{}}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("open check config: %w", err)
	}
	defer f.Close()
	return ParseConfig(f, path)
}

// WriteDefaultConfig writes a configuration listing every check at its
// default severity.
func WriteDefaultConfig(w io.Writer, checks []Check) error {
	file := configFile{Checks: make(map[string]string, len(checks))}
	for _, c := range checks {
		file.Checks[c.Name] = string(Config{}.Severity(c))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(file); err != nil {
		return err
	}
	return enc.Close()
}
