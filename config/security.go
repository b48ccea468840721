package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Limits applied to anything read from outside the process
const (
	maxConfigSize = 1 << 20 // bytes
	maxDocDepth   = 32      // nesting of decoded documents
	maxEnvVarLen  = 4096
	maxPathLen    = 4096
)

// checkConfigPath accepts .json, .yaml and .yml files. Relative paths must
// stay inside the working directory.
func checkConfigPath(path string) error {
	switch {
	case path == "":
		return fmt.Errorf("empty config path")
	case len(path) > maxPathLen:
		return fmt.Errorf("path too long: %d > %d", len(path), maxPathLen)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
	default:
		return fmt.Errorf("unsupported config file type %q", filepath.Ext(path))
	}

	if filepath.IsAbs(path) {
		return nil
	}
	rel := filepath.Clean(path)
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal not allowed: %s resolves outside working directory", path)
	}
	return nil
}

// readConfigFile reads a regular file no larger than maxConfigSize
func readConfigFile(path string) ([]byte, error) {
	if err := checkConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes > %d", info.Size(), maxConfigSize)
	}
	return os.ReadFile(path)
}

func checkEnvValue(key, value string) error {
	if len(value) > maxEnvVarLen {
		return fmt.Errorf("environment variable %s too long: %d > %d", key, len(value), maxEnvVarLen)
	}
	if strings.ContainsRune(value, 0) {
		return fmt.Errorf("null byte in environment variable %s", key)
	}
	return nil
}

// checkDepth rejects decoded documents nested deeper than maxDocDepth
func checkDepth(v any, depth int) error {
	if depth > maxDocDepth {
		return fmt.Errorf("document nesting too deep: > %d", maxDocDepth)
	}

	var children []any
	switch val := v.(type) {
	case map[string]any:
		for _, item := range val {
			children = append(children, item)
		}
	case map[any]any:
		for _, item := range val {
			children = append(children, item)
		}
	case []any:
		children = val
	}
	for _, item := range children {
		if err := checkDepth(item, depth+1); err != nil {
			return err
		}
	}
	return nil
}
