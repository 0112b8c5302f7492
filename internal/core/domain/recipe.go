package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// CopyRule selects files by pattern below Src and copies them into Dst.
// Patterns use fnmatch semantics where "*" also crosses directory separators.
type CopyRule struct {
	Pattern string
	Src     string
	Dst     string
	// KeepPath preserves the path of a match relative to Src. When false the
	// match is flattened to its base name.
	KeepPath bool
	// Required makes a rule that matches nothing a staging failure.
	Required bool
}

// CppInfo describes how consumers compile and link against a package.
type CppInfo struct {
	Libs        []string `toml:"libs"`
	IncludeDirs []string `toml:"includedirs"`
	LibDirs     []string `toml:"libdirs"`
	BinDirs     []string `toml:"bindirs"`
	Defines     []string `toml:"defines,omitempty"`
}

// WithDefaults fills unset directories with the conventional layout.
func (c CppInfo) WithDefaults() CppInfo {
	if len(c.IncludeDirs) == 0 {
		c.IncludeDirs = []string{"include"}
	}
	if len(c.LibDirs) == 0 {
		c.LibDirs = []string{"lib"}
	}
	if len(c.BinDirs) == 0 {
		c.BinDirs = []string{"bin"}
	}
	return c
}

// Recipe is the declarative description of a package and how to build it.
type Recipe struct {
	Reference   Reference
	License     string
	Author      string
	Description string
	URL         string
	Topics      []string

	// Settings lists the axes that affect the binary package.
	Settings []string
	// Options maps each option to its allowed values.
	Options        map[string][]string
	DefaultOptions Options

	Requires       []Reference
	BuildRequires  []Reference
	ExportsSources []string
	Package        []CopyRule
	PackageInfo    CppInfo

	// Root is the directory holding the recipe file.
	Root string
}

// TestRecipe describes the consumer program used to verify a package.
type TestRecipe struct {
	Settings      []string
	BuildRequires []Reference
	Imports       []CopyRule
	// Executable is the consumer binary name without platform suffix.
	Executable string

	Root string
}

// ResolveOptions merges the recipe defaults with overrides and validates
// every value against the declared domain.
func (r *Recipe) ResolveOptions(overrides Options) (Options, error) {
	resolved := r.DefaultOptions.Clone()
	for k, v := range overrides {
		resolved[r.optionName(k)] = v
	}

	for _, name := range resolved.Keys() {
		allowed, declared := r.Options[name]
		if !declared {
			err := zerr.With(zerr.New("unknown option"), "option", name)
			return nil, zerr.With(err, "package", r.Reference.String())
		}
		if len(allowed) == 0 {
			continue
		}
		// Values are matched case-insensitively and take the declared spelling.
		idx := slices.IndexFunc(allowed, func(a string) bool { return strings.EqualFold(a, resolved[name]) })
		if idx < 0 {
			err := zerr.With(zerr.New("invalid option value"), "option", name)
			err = zerr.With(err, "value", resolved[name])
			return nil, zerr.With(err, "allowed", allowed)
		}
		resolved[name] = allowed[idx]
	}

	for name, allowed := range r.Options {
		if _, ok := resolved[name]; !ok {
			if len(allowed) == 0 {
				return nil, zerr.With(zerr.New("option has no value"), "option", name)
			}
			resolved[name] = allowed[0]
		}
	}
	return resolved, nil
}

// optionName returns the declared spelling of an option name matched
// case-insensitively, or name itself when nothing matches.
func (r *Recipe) optionName(name string) string {
	if _, ok := r.Options[name]; ok {
		return name
	}
	for declared := range r.Options {
		if strings.EqualFold(declared, name) {
			return declared
		}
	}
	return name
}

// ValidateSettings checks that every declared axis has a value.
func ValidateSettings(declared []string, s Settings) error {
	for _, key := range declared {
		v, known := s.Get(key)
		if !known {
			return zerr.With(zerr.New("unknown setting"), "setting", key)
		}
		if v == "" {
			return zerr.With(zerr.New("setting has no value"), "setting", key)
		}
	}
	return nil
}
