package policy

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadRegoFiles reads the .rego files directly under dir, keyed by file name.
// Subdirectories and hidden files, such as editor lock files, are skipped.
func LoadRegoFiles(dir string) (map[string]string, error) {
	fsys := os.DirFS(dir)
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read policy dir %s: %w", dir, err)
	}

	modules := make(map[string]string, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".rego" {
			continue
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read policy %s: %w", filepath.Join(dir, name), err)
		}
		modules[name] = string(data)
	}
	return modules, nil
}
