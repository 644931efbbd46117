package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SaveConfig provides methods to save configuration values.
type SaveConfig struct {
	// GlobalConfigDir is the directory under ~/.config/ for global config.
	GlobalConfigDir string

	// GlobalConfigFile is the filename. Defaults to "config.yaml".
	GlobalConfigFile string

	// LocalConfigName is the local config path relative to the git root.
	LocalConfigName string

	// ValidKeys lists keys that can be saved. If nil, all keys are valid.
	ValidKeys []string
}

func (c SaveConfig) globalConfigFile() string {
	if c.GlobalConfigFile != "" {
		return c.GlobalConfigFile
	}
	return "config.yaml"
}

// GlobalPath returns the global config file path.
func (c SaveConfig) GlobalPath() (string, error) {
	if c.GlobalConfigDir == "" {
		return "", fmt.Errorf("global config directory not configured")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", c.GlobalConfigDir, c.globalConfigFile()), nil
}

// SaveGlobal saves a key-value pair to the global config file.
func (c SaveConfig) SaveGlobal(key, value string) error {
	if err := c.validate(key); err != nil {
		return err
	}
	path, err := c.GlobalPath()
	if err != nil {
		return err
	}
	// Global config may hold webhook URLs, keep it private.
	return saveKey(path, key, value, 0o700, 0o600)
}

// SaveLocal saves a key-value pair to the local config file in the git root.
func (c SaveConfig) SaveLocal(gitRoot, key, value string) error {
	if gitRoot == "" {
		return fmt.Errorf("git root not found")
	}
	if c.LocalConfigName == "" {
		return fmt.Errorf("local config name not configured")
	}
	if err := c.validate(key); err != nil {
		return err
	}
	// Local config is committed with the repository.
	return saveKey(filepath.Join(gitRoot, c.LocalConfigName), key, value, 0o755, 0o644)
}

// DeleteGlobalKey removes a key from the global config.
func (c SaveConfig) DeleteGlobalKey(key string) error {
	path, err := c.GlobalPath()
	if err != nil {
		return err
	}

	existing, err := readTree(path)
	if err != nil || existing == nil {
		return nil // Nothing to delete
	}
	if !deleteKey(existing, strings.Split(key, ".")) {
		return nil
	}
	return writeTree(path, existing, 0o600)
}

func (c SaveConfig) validate(key string) error {
	if len(c.ValidKeys) > 0 && !contains(c.ValidKeys, key) {
		return fmt.Errorf("unknown config key: %s\n\nValid keys: %s",
			key, strings.Join(c.ValidKeys, ", "))
	}
	return nil
}

func saveKey(path, key, value string, dirPerm, filePerm os.FileMode) error {
	existing, err := readTree(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if existing == nil {
		existing = make(map[string]any)
	}
	setKey(existing, strings.Split(key, "."), parseValue(value))

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return err
	}
	return writeTree(path, existing, filePerm)
}

// readTree returns nil without error when the file does not exist.
func readTree(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}

func writeTree(path string, tree map[string]any, perm os.FileMode) error {
	data, err := yaml.Marshal(tree)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

// setKey stores value under a dotted path, creating nested maps.
func setKey(tree map[string]any, path []string, value any) {
	for _, part := range path[:len(path)-1] {
		next, ok := tree[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			tree[part] = next
		}
		tree = next
	}
	tree[path[len(path)-1]] = value
}

// deleteKey removes a dotted path and prunes maps left empty.
func deleteKey(tree map[string]any, path []string) bool {
	if len(path) == 1 {
		_, ok := tree[path[0]]
		delete(tree, path[0])
		return ok
	}
	next, ok := tree[path[0]].(map[string]any)
	if !ok {
		return false
	}
	removed := deleteKey(next, path[1:])
	if len(next) == 0 {
		delete(tree, path[0])
	}
	return removed
}

// parseValue converts string values to appropriate types for YAML.
func parseValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}
