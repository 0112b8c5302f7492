// Package app implements the application layer for kiln.
package app

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.trai.ch/zerr"
)

// DefaultTestFolder is the test recipe folder relative to the recipe root.
const DefaultTestFolder = "test_package"

// Options selects the recipe and the configuration of one kiln invocation.
type Options struct {
	// RecipeDir holds the recipe file.
	RecipeDir string
	// Profile is a profile file path or a name below the profiles folder.
	Profile  string
	Settings []string
	Options  []string
	User     string
	Channel  string
	// TestFolder holds the test recipe, relative to RecipeDir unless absolute.
	TestFolder string
	// SourceFolder and BuildFolder are the roots export-pkg stages from.
	SourceFolder string
	BuildFolder  string
}

// App represents the main application logic.
type App struct {
	recipes   ports.RecipeLoader
	profiles  ports.ProfileLoader
	builder   *pipeline.Builder
	verifier  *pipeline.Verifier
	store     ports.PackageStore
	telemetry ports.Telemetry
	logger    ports.Logger
}

// New creates a new App instance.
func New(
	recipes ports.RecipeLoader,
	profiles ports.ProfileLoader,
	builder *pipeline.Builder,
	verifier *pipeline.Verifier,
	store ports.PackageStore,
	telemetry ports.Telemetry,
	log ports.Logger,
) *App {
	return &App{
		recipes:   recipes,
		profiles:  profiles,
		builder:   builder,
		verifier:  verifier,
		store:     store,
		telemetry: telemetry,
		logger:    log,
	}
}

// load reads the recipe and the profile selected by opts.
func (a *App) load(opts Options) (*domain.Recipe, domain.Profile, error) {
	recipe, err := a.recipes.LoadRecipe(opts.RecipeDir)
	if err != nil {
		return nil, domain.Profile{}, domain.NewStepError(domain.ErrConfiguration, "load", err)
	}
	if opts.User != "" {
		recipe.Reference.User = opts.User
	}
	if opts.Channel != "" {
		recipe.Reference.Channel = opts.Channel
	}
	if err := recipe.Reference.Validate(); err != nil {
		return nil, domain.Profile{}, domain.NewStepError(domain.ErrConfiguration, "load", err)
	}

	profile, err := a.profiles.Load(opts.Profile, opts.Settings, opts.Options)
	if err != nil {
		return nil, domain.Profile{}, domain.NewStepError(domain.ErrConfiguration, "load", err)
	}
	return recipe, profile, nil
}

func (a *App) testFolder(recipe *domain.Recipe, opts Options) string {
	folder := opts.TestFolder
	if folder == "" {
		folder = DefaultTestFolder
	}
	if filepath.IsAbs(folder) {
		return folder
	}
	return filepath.Join(recipe.Root, folder)
}

// Create builds, packages and tests the recipe. A missing test folder
// skips the test.
func (a *App) Create(ctx context.Context, opts Options) (domain.Report, error) {
	recipe, profile, err := a.load(opts)
	if err != nil {
		return domain.Report{}, err
	}

	var (
		plan   *pipeline.BuildPlan
		report domain.Report
	)
	steps := []pipeline.Step{
		{Name: "configure", Run: func(ctx context.Context) error {
			plan, err = a.builder.Configure(ctx, recipe, profile)
			return err
		}},
		{Name: "build", Run: func(ctx context.Context) error {
			return a.builder.Build(ctx, plan)
		}},
		{Name: "package", Run: func(ctx context.Context) error {
			_, err := a.builder.Stage(ctx, plan)
			return err
		}},
		{Name: "test", Run: func(ctx context.Context) error {
			report, err = a.test(ctx, recipe, *plan.Package, profile, opts)
			return err
		}},
	}

	err = a.run(ctx, steps)
	return report, err
}

// Build configures the recipe and runs the native build in the cache.
func (a *App) Build(ctx context.Context, opts Options) error {
	recipe, profile, err := a.load(opts)
	if err != nil {
		return err
	}

	var plan *pipeline.BuildPlan
	return a.run(ctx, []pipeline.Step{
		{Name: "configure", Run: func(ctx context.Context) error {
			plan, err = a.builder.Configure(ctx, recipe, profile)
			return err
		}},
		{Name: "build", Run: func(ctx context.Context) error {
			return a.builder.Build(ctx, plan)
		}},
	})
}

// Package stages the outputs of a previous Build into the cache.
func (a *App) Package(ctx context.Context, opts Options) (domain.InstalledPackage, error) {
	recipe, profile, err := a.load(opts)
	if err != nil {
		return domain.InstalledPackage{}, err
	}

	var pkg domain.InstalledPackage
	err = a.run(ctx, []pipeline.Step{
		{Name: "package", Run: func(ctx context.Context) error {
			plan, err := a.builder.Resolve(recipe, profile)
			if err != nil {
				return err
			}
			if _, statErr := os.Stat(plan.Folders.Build); statErr != nil {
				cause := zerr.With(zerr.With(domain.ErrStepOrder, "requires", "build"), "path", plan.Folders.Build)
				return domain.NewStepError(domain.ErrStaging, "package", cause)
			}
			pkg, err = a.builder.StageFrom(ctx, plan, plan.Folders.Source, plan.Folders.Build)
			return err
		}},
	})
	return pkg, err
}

// ExportPkg packages prebuilt files from the source and build folders of
// opts without running the native build.
func (a *App) ExportPkg(ctx context.Context, opts Options) (domain.InstalledPackage, error) {
	recipe, profile, err := a.load(opts)
	if err != nil {
		return domain.InstalledPackage{}, err
	}

	roots := make([]string, 0, 2)
	for _, dir := range []string{opts.SourceFolder, opts.BuildFolder} {
		if dir != "" {
			roots = append(roots, dir)
		}
	}
	if len(roots) == 0 {
		roots = append(roots, recipe.Root)
	}

	var pkg domain.InstalledPackage
	err = a.run(ctx, []pipeline.Step{
		{Name: "export-pkg", Run: func(ctx context.Context) error {
			plan, err := a.builder.Resolve(recipe, profile)
			if err != nil {
				return err
			}
			pkg, err = a.builder.StageFrom(ctx, plan, roots...)
			return err
		}},
	})
	return pkg, err
}

// Test verifies the cached package of the recipe with its test recipe.
func (a *App) Test(ctx context.Context, opts Options) (domain.Report, error) {
	recipe, profile, err := a.load(opts)
	if err != nil {
		return domain.Report{}, err
	}

	var report domain.Report
	err = a.run(ctx, []pipeline.Step{
		{Name: "test", Run: func(ctx context.Context) error {
			target, err := a.target(recipe, profile)
			if err != nil {
				return err
			}
			report, err = a.test(ctx, recipe, target, profile, opts)
			return err
		}},
	})
	return report, err
}

// Imports copies the runtime libraries of the test closure into the
// consumer bin folder and returns the imported paths.
func (a *App) Imports(ctx context.Context, opts Options) ([]string, error) {
	recipe, profile, err := a.load(opts)
	if err != nil {
		return nil, err
	}

	var imported []string
	err = a.run(ctx, []pipeline.Step{
		{Name: "imports", Run: func(ctx context.Context) error {
			target, err := a.target(recipe, profile)
			if err != nil {
				return err
			}
			plan, err := a.prepare(ctx, recipe, target, profile, opts)
			if err != nil {
				return err
			}
			imported, err = a.verifier.ResolveImports(ctx, plan)
			return err
		}},
	})
	return imported, err
}

// target returns the cached binary package of recipe for profile.
func (a *App) target(recipe *domain.Recipe, profile domain.Profile) (domain.InstalledPackage, error) {
	plan, err := a.builder.Resolve(recipe, profile)
	if err != nil {
		return domain.InstalledPackage{}, err
	}
	pkg, err := a.store.Get(plan.Reference(), plan.PackageID)
	if err != nil {
		return domain.InstalledPackage{}, domain.NewStepError(domain.ErrConfiguration, "resolve", err)
	}
	return pkg, nil
}

func (a *App) prepare(
	ctx context.Context,
	recipe *domain.Recipe,
	target domain.InstalledPackage,
	profile domain.Profile,
	opts Options,
) (*pipeline.TestPlan, error) {
	folder := a.testFolder(recipe, opts)
	testRecipe, err := a.recipes.LoadTestRecipe(folder)
	if err != nil {
		return nil, domain.NewStepError(domain.ErrConfiguration, "prepare", err)
	}
	buildDir := filepath.Join(folder, "build", target.Info.PackageID)
	return a.verifier.Prepare(ctx, testRecipe, target, profile, buildDir)
}

// test runs the verifier lifecycle. A missing test folder and a consumer
// that cannot run on this host both skip.
func (a *App) test(
	ctx context.Context,
	recipe *domain.Recipe,
	target domain.InstalledPackage,
	profile domain.Profile,
	opts Options,
) (domain.Report, error) {
	folder := a.testFolder(recipe, opts)
	if _, err := os.Stat(folder); err != nil {
		report := domain.Report{
			Reference: target.Reference(),
			PackageID: target.Info.PackageID,
			Outcome:   domain.OutcomeSkipped,
			Reason:    "no test folder at " + folder,
		}
		return report, zerr.Wrap(domain.ErrStepSkipped, report.Reason)
	}

	plan, err := a.prepare(ctx, recipe, target, profile, opts)
	if err != nil {
		return domain.Report{}, err
	}
	if _, err := a.verifier.ResolveImports(ctx, plan); err != nil {
		return domain.Report{}, err
	}
	if err := a.verifier.Build(ctx, plan); err != nil {
		return domain.Report{}, err
	}

	report, err := a.verifier.Run(ctx, plan)
	if err != nil {
		return report, err
	}
	if report.Outcome == domain.OutcomeSkipped {
		return report, zerr.Wrap(domain.ErrStepSkipped, report.Reason)
	}
	return report, nil
}

func (a *App) run(ctx context.Context, steps []pipeline.Step) error {
	p := pipeline.NewPipeline(a.telemetry, a.logger, steps...)
	return p.Run(ctx)
}
