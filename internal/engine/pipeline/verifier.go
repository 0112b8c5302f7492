package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// TestPlan is a test recipe bound to the package under test.
type TestPlan struct {
	Recipe   *domain.TestRecipe
	Target   domain.InstalledPackage
	Settings domain.Settings
	// Closure holds the target, the build requirements of the test recipe
	// and everything they require, dependencies first.
	Closure  []domain.InstalledPackage
	BuildDir string

	prepared bool
	built    bool
}

// Executable returns the absolute path of the consumer program.
func (p *TestPlan) Executable() string {
	return filepath.Join(p.BinDir(), p.Recipe.Executable+p.Settings.ExecutableSuffix())
}

// BinDir returns the folder receiving the consumer program and its runtime
// libraries.
func (p *TestPlan) BinDir() string {
	return filepath.Join(p.BuildDir, "bin")
}

// Verifier builds and runs the consumer program of a test recipe.
type Verifier struct {
	store     ports.PackageStore
	toolchain ports.Toolchain
	stager    ports.Stager
	executor  ports.Executor
	logger    ports.Logger
}

// NewVerifier creates a new Verifier.
func NewVerifier(
	store ports.PackageStore,
	toolchain ports.Toolchain,
	stager ports.Stager,
	executor ports.Executor,
	logger ports.Logger,
) *Verifier {
	return &Verifier{
		store:     store,
		toolchain: toolchain,
		stager:    stager,
		executor:  executor,
		logger:    logger,
	}
}

// Prepare resolves the dependency closure of the consumer program.
func (v *Verifier) Prepare(
	_ context.Context,
	recipe *domain.TestRecipe,
	target domain.InstalledPackage,
	profile domain.Profile,
	buildDir string,
) (*TestPlan, error) {
	if err := domain.ValidateSettings(recipe.Settings, profile.Settings); err != nil {
		return nil, domain.NewStepError(domain.ErrConfiguration, "prepare", err)
	}

	closure, err := resolveClosure(v.store, []domain.InstalledPackage{target}, recipe.BuildRequires, profile.Settings)
	if err != nil {
		return nil, domain.NewStepError(domain.ErrConfiguration, "prepare", zerr.With(err, "target", target.Reference().String()))
	}

	if err := v.toolchain.Detect(recipe.Root); err != nil {
		return nil, domain.NewStepError(domain.ErrConfiguration, "prepare", err)
	}

	return &TestPlan{
		Recipe:   recipe,
		Target:   target,
		Settings: profile.Settings,
		Closure:  closure,
		BuildDir: buildDir,
		prepared: true,
	}, nil
}

// ResolveImports copies the runtime artifacts of every package in the
// closure next to the consumer program. Matching nothing is not an error.
// Two packages shipping the same file name with different content collide.
func (v *Verifier) ResolveImports(_ context.Context, plan *TestPlan) ([]string, error) {
	if !plan.prepared {
		return nil, domain.NewStepError(domain.ErrConfiguration, "imports", zerr.With(domain.ErrStepOrder, "requires", "prepare"))
	}

	roots := make([]string, 0, len(plan.Closure))
	for _, pkg := range plan.Closure {
		roots = append(roots, pkg.Root)
	}
	imported, err := v.stager.Stage(roots, plan.BuildDir, plan.Recipe.Imports)
	if err != nil {
		return nil, domain.NewStepError(domain.ErrVerification, "imports", zerr.With(err, "target", plan.Target.Reference().String()))
	}
	return imported, nil
}

// Build compiles the consumer program against the closure.
func (v *Verifier) Build(ctx context.Context, plan *TestPlan) error {
	if !plan.prepared {
		return domain.NewStepError(domain.ErrConfiguration, "build", zerr.With(domain.ErrStepOrder, "requires", "prepare"))
	}
	if err := os.MkdirAll(plan.BuildDir, dirPerm); err != nil {
		return domain.NewStepError(domain.ErrVerification, "build", zerr.Wrap(err, "failed to create build folder"))
	}

	spec := domain.BuildSpec{
		SourceDir:    plan.Recipe.Root,
		BuildDir:     plan.BuildDir,
		Settings:     plan.Settings,
		Dependencies: plan.Closure,
	}
	if err := v.toolchain.Configure(ctx, spec); err != nil {
		return domain.NewStepError(domain.ErrVerification, "build", err)
	}
	if err := v.toolchain.Build(ctx, spec); err != nil {
		return domain.NewStepError(domain.ErrVerification, "build", err)
	}

	plan.built = true
	return nil
}

// Run executes the consumer program. Binaries built for another platform
// are not executed and the report is Skipped.
func (v *Verifier) Run(ctx context.Context, plan *TestPlan) (domain.Report, error) {
	report := domain.Report{
		Reference:  plan.Target.Reference(),
		PackageID:  plan.Target.Info.PackageID,
		Executable: plan.Executable(),
	}

	if plan.Settings.CrossBuilding() {
		report.Outcome = domain.OutcomeSkipped
		report.Reason = "cross building for " + plan.Settings.OS + "/" + plan.Settings.Arch
		v.logger.Info("not running " + plan.Recipe.Executable + ": " + report.Reason)
		return report, nil
	}

	if !plan.built {
		return report, domain.NewStepError(domain.ErrVerification, "run", zerr.With(domain.ErrStepOrder, "requires", "build"))
	}
	if _, err := os.Stat(report.Executable); err != nil {
		report.Outcome = domain.OutcomeFailure
		return report, domain.NewStepError(domain.ErrVerification, "run", zerr.With(domain.ErrRequiredArtifactMissing, "path", report.Executable))
	}

	bin := plan.BinDir()
	res, err := v.executor.Execute(ctx, domain.Command{
		Name: report.Executable,
		Dir:  bin,
		PrependPath: map[string][]string{
			"PATH":              {bin},
			"LD_LIBRARY_PATH":   {bin},
			"DYLD_LIBRARY_PATH": {bin},
		},
	})
	report.ExitCode = res.ExitCode
	if err != nil {
		report.Outcome = domain.OutcomeFailure
		return report, domain.NewStepError(domain.ErrRuntimeFailure, "run", err)
	}

	report.Outcome = domain.OutcomeSuccess
	return report, nil
}
