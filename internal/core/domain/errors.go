package domain

import (
	"errors"
	"strings"

	"go.trai.ch/zerr"
)

// Failure categories. Every error surfaced by the pipeline is tagged with
// exactly one of these through a StepError.
var (
	// ErrConfiguration is returned when the recipe, profile, source root or a
	// declared dependency cannot be resolved.
	ErrConfiguration = zerr.New("configuration error")

	// ErrBuild is returned when the native toolchain fails to configure,
	// compile or link the package.
	ErrBuild = zerr.New("build error")

	// ErrStaging is returned when build outputs cannot be collected into a
	// valid package.
	ErrStaging = zerr.New("staging error")

	// ErrVerification is returned when the consumer program of a test recipe
	// fails to build or link against the package.
	ErrVerification = zerr.New("verification error")

	// ErrRuntimeFailure is returned when the consumer program ran but exited
	// with a non-zero status.
	ErrRuntimeFailure = zerr.New("runtime failure")
)

var (
	// ErrStepSkipped is returned by a pipeline step that decided not to run.
	// It is an outcome, not a failure.
	ErrStepSkipped = zerr.New("step skipped")

	// ErrInvalidReference is returned when a package reference cannot be parsed.
	ErrInvalidReference = zerr.New("invalid package reference")

	// ErrPackageNotFound is returned when a reference is not present in the cache.
	ErrPackageNotFound = zerr.New("package not found")

	// ErrVersionMismatch is returned when a reference is only present in the
	// cache under other versions.
	ErrVersionMismatch = zerr.New("no exact version match")

	// ErrNoCompatiblePackage is returned when a reference exists but no binary
	// package matches the requested settings.
	ErrNoCompatiblePackage = zerr.New("no compatible binary package")

	// ErrMissingBuildDescription is returned when the source root has no
	// recognised build description file.
	ErrMissingBuildDescription = zerr.New("missing build description")

	// ErrRequiredArtifactMissing is returned when a mandatory copy rule matched nothing.
	ErrRequiredArtifactMissing = zerr.New("required artifact missing")

	// ErrDestinationCollision is returned when two different files are staged to the same path.
	ErrDestinationCollision = zerr.New("destination collision")

	// ErrCycleDetected is returned when a cycle is detected in the dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrMissingDependency is returned when a graph node references an unknown package.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrPackageAlreadyExists is returned when the same reference is added twice to a graph.
	ErrPackageAlreadyExists = zerr.New("package already exists")

	// ErrStepOrder is returned when a lifecycle step runs before its prerequisite.
	ErrStepOrder = zerr.New("lifecycle step out of order")
)

// StepError attaches a failure category and the name of the failing step to
// an underlying cause.
type StepError struct {
	Category error
	Step     string
	Err      error
}

// NewStepError tags err with category. A nil err yields nil.
func NewStepError(category error, step string, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Category: category, Step: step, Err: err}
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Category.Error() + ": " + e.Err.Error()
}

// Unwrap exposes both the category and the cause to errors.Is and errors.As.
func (e *StepError) Unwrap() []error {
	return []error{e.Category, e.Err}
}

// ToolchainError describes a native tool invocation that exited unsuccessfully.
type ToolchainError struct {
	Tool     string
	Args     []string
	ExitCode int
	Output   []string
	Err      error
}

func (e *ToolchainError) Error() string {
	var b strings.Builder
	b.WriteString(e.Tool)
	b.WriteString(" failed")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Output) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(e.Output, "\n"))
	}
	return b.String()
}

func (e *ToolchainError) Unwrap() error {
	return e.Err
}

// Categorize returns the failure category of err, or nil when err carries none.
// Runtime and verification failures take precedence because they wrap
// lower-level causes.
func Categorize(err error) error {
	for _, c := range []error{ErrRuntimeFailure, ErrVerification, ErrStaging, ErrBuild, ErrConfiguration} {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}
