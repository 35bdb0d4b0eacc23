package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// LocalPath is the override file read next to path: a.json -> a.local.json.
func LocalPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// ReadConfig reads a JSON5 file and merges its .local sibling over it. It
// returns os.ErrNotExist only when neither file exists.
func ReadConfig[T any](path string) (T, error) {
	var out T
	found := false

	base, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(base) > 0 {
		if err := json5.Unmarshal(base, &out); err != nil {
			return out, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
		}
		found = true
	}

	local, err := os.ReadFile(LocalPath(path))
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(local) > 0 {
		var override T
		if err := json5.Unmarshal(local, &override); err != nil {
			return out, fmt.Errorf("parse %s: %w", filepath.Base(LocalPath(path)), err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, fmt.Errorf("merge %s: %w", filepath.Base(LocalPath(path)), err)
		}
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}
