// Package pipeline implements the package build and verification lifecycle.
package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const dirPerm = 0o750

// BuildPlan is a recipe bound to a profile, with everything resolved that
// the build and staging steps need.
type BuildPlan struct {
	Recipe       *domain.Recipe
	Settings     domain.Settings
	Options      domain.Options
	PackageID    string
	Folders      domain.Folders
	Dependencies []domain.InstalledPackage

	// Package is set once the plan has been staged into the cache.
	Package *domain.InstalledPackage

	configured bool
	built      bool
}

// Reference returns the reference of the package being built.
func (p *BuildPlan) Reference() domain.Reference {
	return p.Recipe.Reference
}

func (p *BuildPlan) spec() domain.BuildSpec {
	return domain.BuildSpec{
		SourceDir:    p.Folders.Source,
		BuildDir:     p.Folders.Build,
		Settings:     p.Settings,
		Options:      p.Options,
		Dependencies: p.Dependencies,
	}
}

// Builder produces binary packages from recipes.
type Builder struct {
	store     ports.PackageStore
	toolchain ports.Toolchain
	stager    ports.Stager
	hasher    ports.Hasher
	verifier  ports.ArtifactVerifier
	logger    ports.Logger
}

// NewBuilder creates a new Builder.
func NewBuilder(
	store ports.PackageStore,
	toolchain ports.Toolchain,
	stager ports.Stager,
	hasher ports.Hasher,
	verifier ports.ArtifactVerifier,
	logger ports.Logger,
) *Builder {
	return &Builder{
		store:     store,
		toolchain: toolchain,
		stager:    stager,
		hasher:    hasher,
		verifier:  verifier,
		logger:    logger,
	}
}

// Resolve binds recipe to profile without touching the file system: it
// validates settings and options, resolves the dependency closure from the
// cache and derives the package id.
func (b *Builder) Resolve(recipe *domain.Recipe, profile domain.Profile) (*BuildPlan, error) {
	plan, err := b.resolve(recipe, profile)
	if err != nil {
		return nil, domain.NewStepError(domain.ErrConfiguration, "resolve", err)
	}
	return plan, nil
}

func (b *Builder) resolve(recipe *domain.Recipe, profile domain.Profile) (*BuildPlan, error) {
	if err := domain.ValidateSettings(recipe.Settings, profile.Settings); err != nil {
		return nil, zerr.With(err, "package", recipe.Reference.String())
	}

	options, err := recipe.ResolveOptions(profile.OptionsFor(recipe.Reference.Name))
	if err != nil {
		return nil, err
	}

	refs := make([]domain.Reference, 0, len(recipe.Requires)+len(recipe.BuildRequires))
	refs = append(refs, recipe.Requires...)
	refs = append(refs, recipe.BuildRequires...)
	deps, err := resolveClosure(b.store, nil, refs, profile.Settings)
	if err != nil {
		return nil, zerr.With(err, "package", recipe.Reference.String())
	}

	id := b.hasher.ComputePackageID(recipe, profile.Settings, options)
	return &BuildPlan{
		Recipe:       recipe,
		Settings:     profile.Settings,
		Options:      options,
		PackageID:    id,
		Folders:      b.store.Folders(recipe.Reference, id),
		Dependencies: deps,
	}, nil
}

// Configure resolves the plan, exports the recipe sources into the cache
// source folder and checks that they hold a build description.
func (b *Builder) Configure(ctx context.Context, recipe *domain.Recipe, profile domain.Profile) (*BuildPlan, error) {
	plan, err := b.Resolve(recipe, profile)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.NewStepError(domain.ErrConfiguration, "configure", err)
	}

	if err := b.exportSources(plan); err != nil {
		return nil, domain.NewStepError(domain.ErrConfiguration, "configure", err)
	}
	if err := b.toolchain.Detect(plan.Folders.Source); err != nil {
		return nil, domain.NewStepError(domain.ErrConfiguration, "configure", err)
	}

	plan.configured = true
	b.logger.Info("configured " + plan.Reference().String() + ":" + plan.PackageID)
	return plan, nil
}

func (b *Builder) exportSources(plan *BuildPlan) error {
	if err := os.RemoveAll(plan.Folders.Source); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to clean source folder"), "path", plan.Folders.Source)
	}
	if err := os.MkdirAll(plan.Folders.Source, dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create source folder"), "path", plan.Folders.Source)
	}

	patterns := plan.Recipe.ExportsSources
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}
	rules := make([]domain.CopyRule, 0, len(patterns))
	for _, p := range patterns {
		rules = append(rules, domain.CopyRule{Pattern: p, Src: ".", Dst: ".", KeepPath: true})
	}

	_, err := b.stager.Stage([]string{plan.Recipe.Root}, plan.Folders.Source, rules)
	return err
}

// Build runs the native toolchain in a clean build folder.
func (b *Builder) Build(ctx context.Context, plan *BuildPlan) error {
	if !plan.configured {
		return domain.NewStepError(domain.ErrConfiguration, "build", zerr.With(domain.ErrStepOrder, "requires", "configure"))
	}

	if err := os.RemoveAll(plan.Folders.Build); err != nil {
		return domain.NewStepError(domain.ErrBuild, "build", zerr.Wrap(err, "failed to clean build folder"))
	}
	if err := os.MkdirAll(plan.Folders.Build, dirPerm); err != nil {
		return domain.NewStepError(domain.ErrBuild, "build", zerr.Wrap(err, "failed to create build folder"))
	}

	spec := plan.spec()
	if err := b.toolchain.Configure(ctx, spec); err != nil {
		return domain.NewStepError(domain.ErrBuild, "build", err)
	}
	if err := b.toolchain.Build(ctx, spec); err != nil {
		return domain.NewStepError(domain.ErrBuild, "build", err)
	}

	plan.built = true
	return nil
}

// Stage collects the build outputs of plan into the cache package folder.
func (b *Builder) Stage(ctx context.Context, plan *BuildPlan) (domain.InstalledPackage, error) {
	if !plan.built {
		return domain.InstalledPackage{}, domain.NewStepError(domain.ErrStaging, "stage", zerr.With(domain.ErrStepOrder, "requires", "build"))
	}
	return b.StageFrom(ctx, plan, plan.Folders.Source, plan.Folders.Build)
}

// StageFrom applies the package copy rules of plan against roots, in order,
// and installs the result as the package folder. The previous package
// folder is left untouched on failure.
func (b *Builder) StageFrom(ctx context.Context, plan *BuildPlan, roots ...string) (domain.InstalledPackage, error) {
	pkg, err := b.stage(ctx, plan, roots)
	if err != nil {
		return domain.InstalledPackage{}, domain.NewStepError(domain.ErrStaging, "stage", err)
	}
	plan.Package = &pkg
	b.logger.Info("packaged " + plan.Reference().String() + ":" + plan.PackageID + " in " + pkg.Root)
	return pkg, nil
}

func (b *Builder) stage(ctx context.Context, plan *BuildPlan, roots []string) (domain.InstalledPackage, error) {
	parent := filepath.Dir(plan.Folders.Package)
	if err := os.MkdirAll(parent, dirPerm); err != nil {
		return domain.InstalledPackage{}, zerr.With(zerr.Wrap(err, "failed to create package directory"), "path", parent)
	}
	tmp, err := os.MkdirTemp(parent, ".staging-*")
	if err != nil {
		return domain.InstalledPackage{}, zerr.Wrap(err, "failed to create staging directory")
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(tmp)
		}
	}()

	if _, err := b.stager.Stage(roots, tmp, plan.Recipe.Package); err != nil {
		return domain.InstalledPackage{}, err
	}

	cppInfo := plan.Recipe.PackageInfo.WithDefaults()
	if err := b.verifier.VerifyLibraries(tmp, cppInfo); err != nil {
		return domain.InstalledPackage{}, err
	}

	manifest, err := b.hasher.ComputeManifest(ctx, tmp)
	if err != nil {
		return domain.InstalledPackage{}, err
	}

	info := domain.PackageInfo{
		Reference: plan.Recipe.Reference,
		PackageID: plan.PackageID,
		Settings:  domain.SettingsMap(plan.Recipe.Settings, plan.Settings),
		Options:   plan.Options,
		Requires:  plan.Recipe.Requires,
		CppInfo:   cppInfo,
	}
	pkg, err := b.store.Commit(info, tmp, manifest)
	if err != nil {
		return domain.InstalledPackage{}, err
	}
	committed = true
	return pkg, nil
}
