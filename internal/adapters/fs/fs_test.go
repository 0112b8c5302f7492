package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/fs"
)

func TestWalker_WalkFiles(t *testing.T) { //nolint:cyclop // Test complexity is acceptable
	// Create temp directory structure
	// tmp/
	//   .git/
	//     config
	//   ignored/
	//     file
	//   src/
	//     main.go
	//   README.md

	tmpDir, err := os.MkdirTemp("", "walker_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir) //nolint:errcheck // Best effort cleanup in test

	// Create .git directory
	if err := os.MkdirAll(filepath.Join(tmpDir, ".git"), 0o750); err != nil { //nolint:gosec // Test directory permissions
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ".git", "config"), []byte("git config"), 0o600); err != nil { //nolint:gosec // Test file permissions
		t.Fatal(err)
	}

	// Create ignored directory
	if err := os.MkdirAll(filepath.Join(tmpDir, "ignored"), 0o750); err != nil { //nolint:gosec // Test directory permissions
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "ignored", "file"), []byte("ignored content"), 0o600); err != nil { //nolint:gosec // Test file permissions
		t.Fatal(err)
	}

	// Create src directory
	if err := os.MkdirAll(filepath.Join(tmpDir, "src"), 0o750); err != nil { //nolint:gosec // Test directory permissions
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "src", "main.go"), []byte("package main"), 0o600); err != nil { //nolint:gosec // Test file permissions
		t.Fatal(err)
	}

	// Create README.md
	if err := os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte("# Readme"), 0o600); err != nil { //nolint:gosec // Test file permissions
		t.Fatal(err)
	}

	walker := fs.NewWalker()
	ignores := []string{"ignored"}

	files := make(map[string]bool)
	for path, err := range walker.WalkFiles(tmpDir, ignores) {
		if err != nil {
			t.Fatal(err)
		}
		rel, err := filepath.Rel(tmpDir, path)
		if err != nil {
			t.Fatal(err)
		}
		files[rel] = true
	}

	// Assertions
	if files[".git/config"] {
		t.Error("expected .git/config to be skipped")
	}
	if files["ignored/file"] {
		t.Error("expected ignored/file to be skipped")
	}
	if !files["src/main.go"] {
		t.Error("expected src/main.go to be found")
	}
	if !files["README.md"] {
		t.Error("expected README.md to be found")
	}
}

func TestHasher_ComputeFileHash(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "hasher_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name()) //nolint:errcheck // Best effort cleanup in test

	content := []byte("hello world")
	n, writeErr := tmpFile.Write(content)
	if writeErr != nil {
		t.Fatal(writeErr)
	}
	_ = n
	_ = tmpFile.Close()

	walker := fs.NewWalker()
	hasher := fs.NewHasher(walker)

	hash1, err := hasher.ComputeFileHash(tmpFile.Name())
	if err != nil {
		t.Fatalf("ComputeFileHash failed: %v", err)
	}

	if hash1 == 0 {
		t.Error("expected non-zero hash")
	}

	// Verify determinism
	hash2, err := hasher.ComputeFileHash(tmpFile.Name())
	if err != nil {
		t.Fatal(err)
	}

	if hash1 != hash2 {
		t.Error("expected deterministic hash")
	}
}

func TestWalker_WalkFiles_ReportsUnreadableSubtree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"z/libfoo.so": "lib"})
	overlongTree(t, root)

	var walkErr error
	for _, err := range fs.NewWalker().WalkFiles(root, nil) {
		if err != nil {
			walkErr = err
			break
		}
	}
	require.Error(t, walkErr)
	assert.ErrorContains(t, walkErr, "failed to walk directory")
}

func TestWalker_WalkFiles_MissingRoot(t *testing.T) {
	for path, err := range fs.NewWalker().WalkFiles(filepath.Join(t.TempDir(), "absent"), nil) {
		t.Fatalf("unexpected entry %q (%v)", path, err)
	}
}

func TestWalker_WalkFiles_FollowsDirectoryLinks(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/real/SOIL.c": "code"})
	require.NoError(t, os.Symlink("real", filepath.Join(root, "src", "linked")))
	// A link back to the root must not loop.
	require.NoError(t, os.Symlink("..", filepath.Join(root, "src", "up")))

	var files []string
	for path, err := range fs.NewWalker().WalkFiles(root, nil) {
		require.NoError(t, err)
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		files = append(files, filepath.ToSlash(rel))
	}

	assert.ElementsMatch(t, []string{"src/linked/SOIL.c", "src/real/SOIL.c"}, files)
}

func TestResolver_Resolve_UnreadableSubtree(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"z/libfoo.so": "lib"})
	overlongTree(t, root)

	walker := fs.NewWalker()
	matches, err := fs.NewResolver(walker).Resolve(root, "*.so")
	require.Error(t, err)
	assert.Nil(t, matches)

	_, err = fs.NewHasher(walker).ComputeManifest(t.Context(), root)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to walk directory")
}
