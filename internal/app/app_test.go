package app_test

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cas"
	"go.trai.ch/kiln/internal/adapters/config"
	kilnfs "go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/adapters/profile"
	"go.trai.ch/kiln/internal/adapters/telemetry/progrock"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

const glewRecipe = `name: glew
version: 2.1.0
user: bincrafters
channel: stable
settings: [os, arch]
package:
  - {pattern: "*.h", src: include, dst: include/GL}
  - {pattern: "*.so*", src: lib, dst: lib, keep_path: false}
  - {pattern: "*.dll", dst: bin, keep_path: false}
package_info:
  libs: [GLEW]
`

const soilRecipe = `name: soilcpp
version: 0.1.0
settings: [os, compiler, build_type, arch]
options:
  shared: [True, False]
default_options:
  shared: False
build_requires:
  - glew/2.1.0@bincrafters/stable
exports_sources:
  - "src/*"
  - FindSOILCPP.cmake
  - CMakeLists.txt
package:
  - {pattern: "*SOIL.hpp", src: src, dst: include/SOIL, keep_path: false}
  - {pattern: "*.a", dst: lib, keep_path: false}
  - {pattern: FindSOILCPP.cmake, dst: .}
package_info:
  libs: [soilcpp]
`

const testRecipe = `settings: [os, arch, compiler, build_type]
build_requires:
  - glew/2.1.0@bincrafters/stable
imports:
  - {pattern: "*.dll", src: bin, dst: bin}
  - {pattern: "*.dylib*", src: lib, dst: bin}
  - {pattern: "*.so*", src: lib, dst: bin}
executable: soilcppTest
`

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	slices.Sort(out)
	return out
}

type harness struct {
	app       *app.App
	store     *cas.Store
	toolchain *mocks.MockToolchain
	executor  *mocks.MockExecutor

	glewDir  string
	prebuilt string
	soilDir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	log := logger.NewWithWriter(io.Discard)
	store := cas.NewStore(t.TempDir())
	walker := kilnfs.NewWalker()
	hasher := kilnfs.NewHasher(walker)
	stager := kilnfs.NewCopier(kilnfs.NewResolver(walker), hasher)
	toolchain := mocks.NewMockToolchain(ctrl)
	executor := mocks.NewMockExecutor(ctrl)

	builder := pipeline.NewBuilder(store, toolchain, stager, hasher, kilnfs.NewVerifier(), log)
	verifier := pipeline.NewVerifier(store, toolchain, stager, executor, log)

	h := &harness{
		app: app.New(
			config.NewLoader(log),
			profile.NewLoader(t.TempDir()),
			builder,
			verifier,
			store,
			progrock.New(io.Discard),
			log,
		),
		store:     store,
		toolchain: toolchain,
		executor:  executor,
		glewDir:   t.TempDir(),
		prebuilt:  t.TempDir(),
		soilDir:   t.TempDir(),
	}

	writeTree(t, h.glewDir, map[string]string{config.RecipeFileName: glewRecipe})
	writeTree(t, h.prebuilt, map[string]string{
		"include/glew.h":   "/* glew */",
		"lib/libGLEW.so":   "ELF glew",
		"lib/libGLEW.so.2": "ELF glew 2",
	})
	writeTree(t, h.soilDir, map[string]string{
		config.RecipeFileName:         soilRecipe,
		"CMakeLists.txt":              "project(soilcpp)",
		"FindSOILCPP.cmake":           "# find module",
		"src/SOIL.hpp":                "#pragma once",
		"src/SOIL.cpp":                "int soil;",
		"test_package/kiln.yaml":      testRecipe,
		"test_package/CMakeLists.txt": "project(test)",
	})
	return h
}

// expectNativeBuilds makes the mocked toolchain produce the library and
// the consumer program.
func (h *harness) expectNativeBuilds() {
	h.toolchain.EXPECT().Detect(gomock.Any()).Return(nil).AnyTimes()
	h.toolchain.EXPECT().Configure(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	h.toolchain.EXPECT().Build(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, spec domain.BuildSpec) error {
		if filepath.Base(spec.SourceDir) == app.DefaultTestFolder {
			exe := filepath.Join(spec.BuildDir, "bin", "soilcppTest"+spec.Settings.ExecutableSuffix())
			if err := os.MkdirAll(filepath.Dir(exe), 0o750); err != nil {
				return err
			}
			return os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o700)
		}
		return os.WriteFile(filepath.Join(spec.BuildDir, "libsoilcpp.a"), []byte("!<arch>"), 0o600)
	}).AnyTimes()
}

func (h *harness) exportGlew(t *testing.T, settings ...string) {
	t.Helper()
	_, err := h.app.ExportPkg(context.Background(), app.Options{
		RecipeDir:    h.glewDir,
		Settings:     settings,
		SourceFolder: h.prebuilt,
	})
	require.NoError(t, err)
}

func TestApp_Create(t *testing.T) {
	h := newHarness(t)
	h.expectNativeBuilds()
	h.exportGlew(t)

	h.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, cmd domain.Command) (domain.ExecResult, error) {
		assert.True(t, filepath.IsAbs(cmd.Name))
		assert.True(t, strings.HasPrefix(filepath.Base(cmd.Name), "soilcppTest"))
		assert.Equal(t, filepath.Dir(cmd.Name), cmd.Dir)
		assert.FileExists(t, filepath.Join(cmd.Dir, "libGLEW.so"))
		return domain.ExecResult{}, nil
	}).Times(2)

	report, err := h.app.Create(context.Background(), app.Options{RecipeDir: h.soilDir})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, report.Outcome)
	assert.Equal(t, "soilcpp/0.1.0", report.Reference.String())

	pkg, err := h.store.Get(report.Reference, report.PackageID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"FindSOILCPP.cmake",
		"include/SOIL/SOIL.hpp",
		domain.InfoFile,
		domain.ManifestFile,
		"lib/libsoilcpp.a",
	}, listFiles(t, pkg.Root))

	first, err := os.ReadFile(filepath.Join(pkg.Root, domain.ManifestFile))
	require.NoError(t, err)

	_, err = h.app.Create(context.Background(), app.Options{RecipeDir: h.soilDir})
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(pkg.Root, domain.ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	record, ok, err := h.store.Record(report.Reference, report.PackageID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, record.ManifestHash)
}

func TestApp_Create_MissingBuildRequirement(t *testing.T) {
	h := newHarness(t)
	h.toolchain.EXPECT().Configure(gomock.Any(), gomock.Any()).Times(0)
	h.toolchain.EXPECT().Build(gomock.Any(), gomock.Any()).Times(0)

	_, err := h.app.Create(context.Background(), app.Options{RecipeDir: h.soilDir})
	require.Error(t, err)
	assert.Equal(t, domain.ErrConfiguration, domain.Categorize(err))
	assert.ErrorContains(t, err, domain.ErrPackageNotFound.Error())
}

func TestApp_Create_WrongBuildRequirementVersion(t *testing.T) {
	h := newHarness(t)
	h.toolchain.EXPECT().Configure(gomock.Any(), gomock.Any()).Times(0)
	writeTree(t, h.glewDir, map[string]string{
		config.RecipeFileName: strings.Replace(glewRecipe, "2.1.0", "2.0.0", 1),
	})
	h.exportGlew(t)

	_, err := h.app.Create(context.Background(), app.Options{RecipeDir: h.soilDir})
	require.Error(t, err)
	assert.Equal(t, domain.ErrConfiguration, domain.Categorize(err))
	assert.ErrorContains(t, err, domain.ErrVersionMismatch.Error())
}

func TestApp_Create_CrossBuildingSkipsRun(t *testing.T) {
	h := newHarness(t)
	h.expectNativeBuilds()

	target := domain.OSWindows
	if domain.HostOS() == domain.OSWindows {
		target = domain.OSLinux
	}
	h.exportGlew(t, "os="+target)
	// The executor mock has no expectations: running the consumer fails the test.

	report, err := h.app.Create(context.Background(), app.Options{
		RecipeDir: h.soilDir,
		Settings:  []string{"os=" + target},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkipped, report.Outcome)
	assert.Contains(t, report.Reason, target)
}

func TestApp_Create_NoTestFolder(t *testing.T) {
	h := newHarness(t)
	h.expectNativeBuilds()
	h.exportGlew(t)

	report, err := h.app.Create(context.Background(), app.Options{
		RecipeDir:  h.soilDir,
		TestFolder: "missing",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSkipped, report.Outcome)
}

func TestApp_Create_MissingPrimaryLibrary(t *testing.T) {
	h := newHarness(t)
	h.exportGlew(t)
	h.toolchain.EXPECT().Detect(gomock.Any()).Return(nil)
	h.toolchain.EXPECT().Configure(gomock.Any(), gomock.Any()).Return(nil)
	h.toolchain.EXPECT().Build(gomock.Any(), gomock.Any()).Return(nil)

	_, err := h.app.Create(context.Background(), app.Options{RecipeDir: h.soilDir})
	require.Error(t, err)
	assert.Equal(t, domain.ErrStaging, domain.Categorize(err))
	assert.ErrorContains(t, err, domain.ErrRequiredArtifactMissing.Error())

	_, err = h.store.Resolve(domain.MustParseReference("soilcpp/0.1.0"), domain.HostSettings())
	assert.ErrorContains(t, err, domain.ErrPackageNotFound.Error())
}

func TestApp_Package_BeforeBuild(t *testing.T) {
	h := newHarness(t)
	h.exportGlew(t)

	_, err := h.app.Package(context.Background(), app.Options{RecipeDir: h.soilDir})
	require.Error(t, err)
	assert.Equal(t, domain.ErrStaging, domain.Categorize(err))
}

func TestApp_BuildPackageTest(t *testing.T) {
	h := newHarness(t)
	h.expectNativeBuilds()
	h.exportGlew(t)
	h.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(domain.ExecResult{}, nil)

	opts := app.Options{RecipeDir: h.soilDir}
	require.NoError(t, h.app.Build(context.Background(), opts))

	pkg, err := h.app.Package(context.Background(), opts)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(pkg.Root, "lib", "libsoilcpp.a"))

	imported, err := h.app.Imports(context.Background(), opts)
	require.NoError(t, err)
	assert.Contains(t, imported, "bin/libGLEW.so")
	assert.Contains(t, imported, "bin/libGLEW.so.2")

	report, err := h.app.Test(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, report.Outcome)
}

func TestApp_Test_NotPackaged(t *testing.T) {
	h := newHarness(t)
	h.exportGlew(t)

	_, err := h.app.Test(context.Background(), app.Options{RecipeDir: h.soilDir})
	require.Error(t, err)
	assert.Equal(t, domain.ErrConfiguration, domain.Categorize(err))
	assert.ErrorContains(t, err, domain.ErrPackageNotFound.Error())
}

func TestApp_UserChannelOverride(t *testing.T) {
	h := newHarness(t)
	h.exportGlew(t)

	pkg, err := h.app.ExportPkg(context.Background(), app.Options{
		RecipeDir:    h.glewDir,
		User:         "lemiort",
		Channel:      "testing",
		SourceFolder: h.prebuilt,
	})
	require.NoError(t, err)
	assert.Equal(t, "glew/2.1.0@lemiort/testing", pkg.Reference().String())
}
