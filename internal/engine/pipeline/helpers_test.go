package pipeline_test

import (
	"path/filepath"
	"testing"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	store     *mocks.MockPackageStore
	toolchain *mocks.MockToolchain
	stager    *mocks.MockStager
	hasher    *mocks.MockHasher
	artifacts *mocks.MockArtifactVerifier
	executor  *mocks.MockExecutor
	logger    *mocks.MockLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		store:     mocks.NewMockPackageStore(ctrl),
		toolchain: mocks.NewMockToolchain(ctrl),
		stager:    mocks.NewMockStager(ctrl),
		hasher:    mocks.NewMockHasher(ctrl),
		artifacts: mocks.NewMockArtifactVerifier(ctrl),
		executor:  mocks.NewMockExecutor(ctrl),
		logger:    mocks.NewMockLogger(ctrl),
	}
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	f.logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return f
}

func (f *fixture) builder() *pipeline.Builder {
	return pipeline.NewBuilder(f.store, f.toolchain, f.stager, f.hasher, f.artifacts, f.logger)
}

func (f *fixture) verifier() *pipeline.Verifier {
	return pipeline.NewVerifier(f.store, f.toolchain, f.stager, f.executor, f.logger)
}

func soilRecipe(root string) *domain.Recipe {
	return &domain.Recipe{
		Reference:      domain.MustParseReference("soilcpp/0.1.0"),
		Settings:       []string{"os", "compiler", "build_type", "arch"},
		Options:        map[string][]string{"shared": {"True", "False"}},
		DefaultOptions: domain.Options{"shared": "False"},
		ExportsSources: []string{"src/*", "CMakeLists.txt"},
		Package: []domain.CopyRule{
			{Pattern: "*.h", Src: "src", Dst: "include/SOIL", KeepPath: false},
			{Pattern: "*.a", Src: ".", Dst: "lib", KeepPath: false},
		},
		PackageInfo: domain.CppInfo{Libs: []string{"soilcpp"}},
		Root:        root,
	}
}

func cacheFolders(home string, ref domain.Reference, id string) domain.Folders {
	base := filepath.Join(home, "data", ref.Name, ref.Version, ref.User, ref.Channel)
	return domain.Folders{
		Source:  filepath.Join(base, "source"),
		Build:   filepath.Join(base, "build", id),
		Package: filepath.Join(base, "package", id),
	}
}

func installed(ref string, requires ...string) domain.InstalledPackage {
	info := domain.PackageInfo{Reference: domain.MustParseReference(ref), PackageID: "id-" + ref}
	for _, r := range requires {
		info.Requires = append(info.Requires, domain.MustParseReference(r))
	}
	return domain.InstalledPackage{Info: info, Root: "/cache/" + ref}
}

func hostProfile() domain.Profile {
	return domain.Profile{Settings: domain.HostSettings()}
}
