package domain

// Command is a single native process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory of the child process. It never changes
	// the working directory of the calling process.
	Dir string
	// Env overrides entries of the inherited environment.
	Env map[string]string
	// PrependPath lists directories prepended to PATH-like variables, keyed
	// by variable name (PATH, LD_LIBRARY_PATH, DYLD_LIBRARY_PATH).
	PrependPath map[string][]string
}

// ExecResult is the observable outcome of a Command.
type ExecResult struct {
	ExitCode int
	// Output holds the last lines of combined stdout and stderr.
	Output []string
}

// BuildSpec parameterizes one native build.
type BuildSpec struct {
	SourceDir string
	BuildDir  string
	Settings  Settings
	Options   Options
	// Dependencies are made visible to the compiler and linker.
	Dependencies []InstalledPackage
}
