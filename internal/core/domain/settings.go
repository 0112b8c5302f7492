package domain

import (
	"runtime"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Setting axis names as they appear in recipes and profiles.
const (
	SettingOS              = "os"
	SettingArch            = "arch"
	SettingCompiler        = "compiler"
	SettingCompilerVersion = "compiler_version"
	SettingBuildType       = "build_type"
	SettingOSBuild         = "os_build"
	SettingArchBuild       = "arch_build"
)

// Operating system names.
const (
	OSLinux   = "Linux"
	OSWindows = "Windows"
	OSMacos   = "Macos"
	OSFreeBSD = "FreeBSD"
)

// Settings is the resolved build configuration. OSBuild and ArchBuild
// describe the host running the build; the other axes describe the target.
type Settings struct {
	OS              string
	Arch            string
	Compiler        string
	CompilerVersion string
	BuildType       string
	OSBuild         string
	ArchBuild       string
}

// HostSettings returns settings describing the running machine with a
// Release build type.
func HostSettings() Settings {
	osName := HostOS()
	arch := HostArch()
	return Settings{
		OS:        osName,
		Arch:      arch,
		Compiler:  defaultCompiler(osName),
		BuildType: "Release",
		OSBuild:   osName,
		ArchBuild: arch,
	}
}

// HostOS maps runtime.GOOS to a settings os value.
func HostOS() string {
	switch runtime.GOOS {
	case "windows":
		return OSWindows
	case "darwin":
		return OSMacos
	case "freebsd":
		return OSFreeBSD
	default:
		return OSLinux
	}
}

// HostArch maps runtime.GOARCH to a settings arch value.
func HostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "x86"
	case "arm64":
		return "armv8"
	case "arm":
		return "armv7"
	default:
		return runtime.GOARCH
	}
}

func defaultCompiler(osName string) string {
	switch osName {
	case OSWindows:
		return "Visual Studio"
	case OSMacos:
		return "apple-clang"
	case OSFreeBSD:
		return "clang"
	default:
		return "gcc"
	}
}

// Get returns the value of a named axis.
func (s Settings) Get(key string) (string, bool) {
	switch key {
	case SettingOS:
		return s.OS, true
	case SettingArch:
		return s.Arch, true
	case SettingCompiler:
		return s.Compiler, true
	case SettingCompilerVersion:
		return s.CompilerVersion, true
	case SettingBuildType:
		return s.BuildType, true
	case SettingOSBuild:
		return s.OSBuild, true
	case SettingArchBuild:
		return s.ArchBuild, true
	default:
		return "", false
	}
}

// Set assigns a named axis. Unknown axes are a configuration error.
func (s *Settings) Set(key, value string) error {
	switch key {
	case SettingOS:
		s.OS = value
	case SettingArch:
		s.Arch = value
	case SettingCompiler:
		s.Compiler = value
	case SettingCompilerVersion:
		s.CompilerVersion = value
	case SettingBuildType:
		s.BuildType = value
	case SettingOSBuild:
		s.OSBuild = value
	case SettingArchBuild:
		s.ArchBuild = value
	default:
		return zerr.With(zerr.New("unknown setting"), "setting", key)
	}
	return nil
}

// CrossBuilding reports whether binaries produced for these settings cannot
// run on the build host. Unset host axes default to the running machine.
func (s Settings) CrossBuilding() bool {
	osBuild := s.OSBuild
	if osBuild == "" {
		osBuild = HostOS()
	}
	archBuild := s.ArchBuild
	if archBuild == "" {
		archBuild = HostArch()
	}
	if s.OS != "" && s.OS != osBuild {
		return true
	}
	// A 32-bit x86 target still runs on an x86_64 host.
	if s.Arch != "" && s.Arch != archBuild && !(s.Arch == "x86" && archBuild == "x86_64") {
		return true
	}
	return false
}

// ExecutableSuffix returns the file suffix of executables for the target os.
func (s Settings) ExecutableSuffix() string {
	if s.OS == OSWindows {
		return ".exe"
	}
	return ""
}

// Options maps option names to their string values ("True", "False", ...).
type Options map[string]string

// Clone returns a copy of o.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// Bool interprets an option value as a boolean.
func (o Options) Bool(name string) bool {
	switch strings.ToLower(o[name]) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// Shared reports whether shared libraries were requested.
func (o Options) Shared() bool {
	return o.Bool("shared")
}

// Keys returns the option names in sorted order.
func (o Options) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Profile bundles settings with option overrides coming from a profile file
// or the command line.
type Profile struct {
	Settings Settings
	Options  Options
}

// OptionsFor returns the options that apply to the package named pkg.
// Entries scoped as "pkg:key" override unscoped ones.
func (p Profile) OptionsFor(pkg string) Options {
	out := make(Options)
	for k, v := range p.Options {
		if !strings.Contains(k, ":") {
			out[k] = v
		}
	}
	prefix := pkg + ":"
	for k, v := range p.Options {
		if name, ok := strings.CutPrefix(k, prefix); ok {
			out[name] = v
		}
	}
	return out
}

// ParseAssignment splits "key=value". Option overrides may be scoped to a
// package as "pkg:key=value"; the scope is returned separately.
func ParseAssignment(s string) (scope, key, value string, err error) {
	lhs, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(lhs) == "" {
		return "", "", "", zerr.With(zerr.New("expected key=value"), "assignment", s)
	}
	if pkg, k, scoped := strings.Cut(lhs, ":"); scoped {
		return strings.TrimSpace(pkg), strings.TrimSpace(k), strings.TrimSpace(value), nil
	}
	return "", strings.TrimSpace(lhs), strings.TrimSpace(value), nil
}
