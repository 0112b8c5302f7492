package fs_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTree creates files below root. Keys are slash separated paths.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

// readTree returns the content of every file below root keyed by slash path.
func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path) //nolint:gosec // Test fixture
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

// overlongTree creates a chain of directories below root whose full path
// exceeds the platform path limit, so reading its deepest levels fails.
func overlongTree(t *testing.T, root string) {
	t.Helper()
	t.Chdir(root)
	name := strings.Repeat("a", 200)
	for range 25 {
		require.NoError(t, os.Mkdir(name, 0o750))
		require.NoError(t, os.Chdir(name))
	}
	require.NoError(t, os.WriteFile("deep.so", []byte("deep"), 0o600))
}
