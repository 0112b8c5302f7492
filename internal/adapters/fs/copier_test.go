package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/core/domain"
)

func newCopier() *fs.Copier {
	walker := fs.NewWalker()
	return fs.NewCopier(fs.NewResolver(walker), fs.NewHasher(walker))
}

func soilRules() []domain.CopyRule {
	return []domain.CopyRule{
		{Pattern: "*SOIL.hpp", Src: "src", Dst: "include/SOIL"},
		{Pattern: "*soilcpp.lib", Dst: "lib"},
		{Pattern: "*.dll", Dst: "bin"},
		{Pattern: "*.so", Dst: "lib"},
		{Pattern: "*.dylib", Dst: "lib"},
		{Pattern: "*.a", Dst: "lib"},
		{Pattern: "FindSOILCPP.cmake", Dst: "."},
	}
}

func TestCopier_Stage_Collision(t *testing.T) {
	source := t.TempDir()
	build := t.TempDir()
	dest := t.TempDir()

	writeTree(t, source, map[string]string{"src/SOIL/SOIL.hpp": "header"})
	writeTree(t, build, map[string]string{
		"Debug/libsoilcpp.a":   "debug",
		"Release/libsoilcpp.a": "release",
	})

	_, err := newCopier().Stage([]string{source, build}, dest, soilRules())
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrDestinationCollision.Error())
}

func TestCopier_Stage_Flatten(t *testing.T) {
	source := t.TempDir()
	build := t.TempDir()
	dest := t.TempDir()

	writeTree(t, source, map[string]string{
		"src/SOIL/SOIL.hpp":  "header",
		"src/SOIL/image.cpp": "impl",
		"FindSOILCPP.cmake":  "find",
	})
	writeTree(t, build, map[string]string{
		"Release/libsoilcpp.a": "archive",
		"bin/soilcpp.dll":      "dll",
	})

	staged, err := newCopier().Stage([]string{source, build}, dest, soilRules())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"FindSOILCPP.cmake",
		"bin/soilcpp.dll",
		"include/SOIL/SOIL.hpp",
		"lib/libsoilcpp.a",
	}, staged)
	assert.Equal(t, map[string]string{
		"FindSOILCPP.cmake":     "find",
		"bin/soilcpp.dll":       "dll",
		"include/SOIL/SOIL.hpp": "header",
		"lib/libsoilcpp.a":      "archive",
	}, readTree(t, dest))
}

func TestCopier_Stage_KeepPath(t *testing.T) {
	root := t.TempDir()
	dest := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/SOIL/SOIL.hpp": "header",
		"src/stb/stb.h":     "stb",
		"docs/readme.md":    "docs",
	})

	staged, err := newCopier().Stage([]string{root}, dest, []domain.CopyRule{
		{Pattern: "src/*", Dst: ".", KeepPath: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/SOIL/SOIL.hpp", "src/stb/stb.h"}, staged)
}

func TestCopier_Stage_IdenticalDuplicatesAreMerged(t *testing.T) {
	source := t.TempDir()
	build := t.TempDir()
	dest := t.TempDir()
	writeTree(t, source, map[string]string{"FindSOILCPP.cmake": "find"})
	writeTree(t, build, map[string]string{"FindSOILCPP.cmake": "find"})

	staged, err := newCopier().Stage([]string{source, build}, dest, []domain.CopyRule{
		{Pattern: "FindSOILCPP.cmake", Dst: "."},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"FindSOILCPP.cmake"}, staged)
}

func TestCopier_Stage_RequiredRule(t *testing.T) {
	root := t.TempDir()
	dest := t.TempDir()
	writeTree(t, root, map[string]string{"src/SOIL/SOIL.hpp": "header"})

	rules := []domain.CopyRule{
		{Pattern: "*.dll", Dst: "bin"},
		{Pattern: "*soilcpp.a", Dst: "lib", Required: true},
	}
	_, err := newCopier().Stage([]string{root, filepath.Join(root, "missing")}, dest, rules)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrRequiredArtifactMissing.Error())
	assert.Empty(t, readTree(t, dest))
}

func TestCopier_Stage_Idempotent(t *testing.T) {
	source := t.TempDir()
	writeTree(t, source, map[string]string{
		"src/SOIL/SOIL.hpp": "header",
		"libsoilcpp.a":      "archive",
	})

	destA := t.TempDir()
	destB := t.TempDir()
	c := newCopier()
	_, err := c.Stage([]string{source}, destA, soilRules())
	require.NoError(t, err)
	_, err = c.Stage([]string{source}, destB, soilRules())
	require.NoError(t, err)

	assert.Equal(t, readTree(t, destA), readTree(t, destB))
}

func TestCopier_Stage_UnreadableSubtreeFails(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"z/libfoo.so": "lib"})
	overlongTree(t, root)
	dest := t.TempDir()

	staged, err := newCopier().Stage([]string{root}, dest, []domain.CopyRule{{Pattern: "*.so", Dst: "lib"}})
	require.Error(t, err)
	assert.Nil(t, staged)
}

func TestCopier_Stage_SymlinkedDirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/real/SOIL.c": "code"})
	require.NoError(t, os.Symlink("real", filepath.Join(root, "src", "linked")))
	dest := t.TempDir()

	staged, err := newCopier().Stage([]string{root}, dest, []domain.CopyRule{{Pattern: "src/*", Dst: ".", KeepPath: true}})
	require.NoError(t, err)

	assert.Equal(t, []string{"src/linked/SOIL.c", "src/real/SOIL.c"}, staged)
	assert.Equal(t, map[string]string{
		"src/linked/SOIL.c": "code",
		"src/real/SOIL.c":   "code",
	}, readTree(t, dest))
}

func TestCopier_Stage_RuntimeImportCollisionAcrossPackages(t *testing.T) {
	glew := t.TempDir()
	soil := t.TempDir()
	writeTree(t, glew, map[string]string{"lib/libz.so.1": "zlib 1.2"})
	writeTree(t, soil, map[string]string{"lib/libz.so.1": "zlib 1.3"})
	imports := []domain.CopyRule{{Pattern: "*.so*", Src: "lib", Dst: "bin"}}

	_, err := newCopier().Stage([]string{glew, soil}, t.TempDir(), imports)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrDestinationCollision.Error())

	writeTree(t, soil, map[string]string{"lib/libz.so.1": "zlib 1.2"})
	dest := t.TempDir()
	staged, err := newCopier().Stage([]string{glew, soil}, dest, imports)
	require.NoError(t, err)
	assert.Equal(t, []string{"bin/libz.so.1"}, staged)
	assert.Equal(t, map[string]string{"bin/libz.so.1": "zlib 1.2"}, readTree(t, dest))
}
