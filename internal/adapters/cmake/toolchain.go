// Package cmake drives CMake builds through the process executor.
package cmake

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	program = "cmake"

	// BuildDescription is the file that marks a CMake source tree.
	BuildDescription = "CMakeLists.txt"
)

var _ ports.Toolchain = (*Toolchain)(nil)

// Toolchain implements ports.Toolchain for CMake.
type Toolchain struct {
	executor  ports.Executor
	generator func() string
}

// NewToolchain creates a new Toolchain.
func NewToolchain(executor ports.Executor) *Toolchain {
	return &Toolchain{
		executor:  executor,
		generator: func() string { return os.Getenv("CMAKE_GENERATOR") },
	}
}

// Name returns the build system name.
func (t *Toolchain) Name() string {
	return program
}

// Detect checks for CMakeLists.txt at the root of sourceDir.
func (t *Toolchain) Detect(sourceDir string) error {
	path := filepath.Join(sourceDir, BuildDescription)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return zerr.With(domain.ErrMissingBuildDescription, "path", path)
	}
	return nil
}

// Configure writes the dependency integration file and generates the build
// system in spec.BuildDir.
func (t *Toolchain) Configure(ctx context.Context, spec domain.BuildSpec) error {
	buildInfo, err := WriteBuildInfo(spec.BuildDir, spec.Dependencies)
	if err != nil {
		return err
	}

	args := []string{
		"-S", spec.SourceDir,
		"-B", spec.BuildDir,
		"-DCMAKE_PROJECT_INCLUDE=" + filepath.ToSlash(buildInfo),
		"-DBUILD_SHARED_LIBS=" + onOff(spec.Options.Shared()),
	}
	if spec.Settings.BuildType != "" {
		args = append(args, "-DCMAKE_BUILD_TYPE="+spec.Settings.BuildType)
	}
	args = append(args, t.platformArgs(spec.Settings)...)

	return t.run(ctx, spec.BuildDir, args)
}

// Build compiles spec.BuildDir for the configured build type.
func (t *Toolchain) Build(ctx context.Context, spec domain.BuildSpec) error {
	args := []string{"--build", spec.BuildDir}
	if spec.Settings.BuildType != "" {
		args = append(args, "--config", spec.Settings.BuildType)
	}
	args = append(args, "--parallel")

	return t.run(ctx, spec.BuildDir, args)
}

// platformArgs maps the target settings onto generator and compiler flags.
func (t *Toolchain) platformArgs(s domain.Settings) []string {
	var args []string
	if gen := t.generator(); strings.HasPrefix(gen, "Visual Studio") {
		switch s.Arch {
		case "x86":
			args = append(args, "-A", "Win32")
		case "x86_64":
			args = append(args, "-A", "x64")
		case "armv8":
			args = append(args, "-A", "ARM64")
		}
		return args
	}

	if s.Arch == "x86" && s.ArchBuild == "x86_64" && s.Compiler != "Visual Studio" {
		args = append(args, "-DCMAKE_C_FLAGS=-m32", "-DCMAKE_CXX_FLAGS=-m32")
	}
	if s.OS == domain.OSMacos && s.Arch == "armv8" {
		args = append(args, "-DCMAKE_OSX_ARCHITECTURES=arm64")
	}
	return args
}

func (t *Toolchain) run(ctx context.Context, dir string, args []string) error {
	res, err := t.executor.Execute(ctx, domain.Command{
		Name: program,
		Args: args,
		Dir:  dir,
	})
	if err != nil {
		return &domain.ToolchainError{
			Tool:     program,
			Args:     args,
			ExitCode: res.ExitCode,
			Output:   res.Output,
			Err:      err,
		}
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
