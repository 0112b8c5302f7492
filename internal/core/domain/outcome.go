package domain

// Outcome is the result of verifying a package.
type Outcome string

const (
	// OutcomeSuccess indicates the consumer program built and exited with 0.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure indicates the consumer program failed to build or run.
	OutcomeFailure Outcome = "failure"
	// OutcomeSkipped indicates the consumer program was not executed because
	// it targets another platform.
	OutcomeSkipped Outcome = "skipped"
)

// Report summarises a verification run.
type Report struct {
	Reference  Reference
	PackageID  string
	Outcome    Outcome
	Executable string
	ExitCode   int
	// Reason explains a skipped outcome.
	Reason string
}

// StepStatus represents the lifecycle state of a pipeline step.
type StepStatus string

const (
	// StepPending indicates the step has not started.
	StepPending StepStatus = "pending"
	// StepRunning indicates the step is executing.
	StepRunning StepStatus = "running"
	// StepCompleted indicates the step finished successfully.
	StepCompleted StepStatus = "completed"
	// StepFailed indicates the step returned an error.
	StepFailed StepStatus = "failed"
	// StepSkipped indicates the step decided not to run.
	StepSkipped StepStatus = "skipped"
	// StepAborted indicates the step never ran because an earlier step failed.
	StepAborted StepStatus = "aborted"
)

// IsTerminal reports whether no further transition can happen.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepCompleted, StepFailed, StepSkipped, StepAborted:
		return true
	default:
		return false
	}
}

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}
