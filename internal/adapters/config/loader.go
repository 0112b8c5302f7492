// Package config provides the recipe loader for kiln.
package config

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// RecipeFileName is the name of a recipe file inside its directory.
const RecipeFileName = "kiln.yaml"

var _ ports.RecipeLoader = (*Loader)(nil)

// runtimeImports copy loader-visible libraries next to the consumer binary.
var runtimeImports = []domain.CopyRule{
	{Pattern: "*.dll", Src: "bin", Dst: "bin", KeepPath: true},
	{Pattern: "*.dylib*", Src: "lib", Dst: "bin", KeepPath: true},
	{Pattern: "*.so*", Src: "lib", Dst: "bin", KeepPath: true},
}

// Loader implements ports.RecipeLoader using YAML files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// LoadRecipe reads dir/kiln.yaml.
func (l *Loader) LoadRecipe(dir string) (*domain.Recipe, error) {
	var file Recipefile
	path, err := read(dir, &file)
	if err != nil {
		return nil, err
	}

	recipe, err := l.mapRecipe(&file)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	recipe.Root = filepath.Dir(path)
	return recipe, nil
}

// LoadTestRecipe reads dir/kiln.yaml as a test recipe.
func (l *Loader) LoadTestRecipe(dir string) (*domain.TestRecipe, error) {
	var file TestRecipefile
	path, err := read(dir, &file)
	if err != nil {
		return nil, err
	}

	if file.Executable == "" {
		return nil, zerr.With(zerr.New("test recipe has no executable"), "path", path)
	}

	buildRequires, err := parseReferences(file.BuildRequires)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	imports, err := mapRules(file.Imports)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	if len(imports) == 0 {
		imports = slices.Clone(runtimeImports)
	}

	return &domain.TestRecipe{
		Settings:      canonicalizeStrings(file.Settings),
		BuildRequires: buildRequires,
		Imports:       imports,
		Executable:    file.Executable,
		Root:          filepath.Dir(path),
	}, nil
}

func read(dir string, out any) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to resolve recipe directory"), "path", dir)
	}
	path := filepath.Join(abs, RecipeFileName)

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to read recipe file"), "path", path)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to parse recipe file"), "path", path)
	}
	return path, nil
}

func (l *Loader) mapRecipe(file *Recipefile) (*domain.Recipe, error) {
	ref := domain.Reference{
		Name:    file.Name,
		Version: file.Version,
		User:    orUnset(file.User),
		Channel: orUnset(file.Channel),
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	requires, err := parseReferences(file.Requires)
	if err != nil {
		return nil, err
	}
	buildRequires, err := parseReferences(file.BuildRequires)
	if err != nil {
		return nil, err
	}

	rules, err := mapRules(file.Package)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		l.Logger.Warn("recipe " + ref.String() + " declares no package rules")
	}

	options := make(map[string][]string, len(file.Options))
	for name, values := range file.Options {
		options[name] = slices.Clone(values)
	}

	return &domain.Recipe{
		Reference:      ref,
		License:        file.License,
		Author:         file.Author,
		Description:    file.Description,
		URL:            file.URL,
		Topics:         file.Topics,
		Settings:       canonicalizeStrings(file.Settings),
		Options:        options,
		DefaultOptions: domain.Options(file.DefaultOptions).Clone(),
		Requires:       requires,
		BuildRequires:  buildRequires,
		ExportsSources: file.ExportsSources,
		Package:        rules,
		PackageInfo: domain.CppInfo{
			Libs:        file.PackageInfo.Libs,
			IncludeDirs: file.PackageInfo.IncludeDirs,
			LibDirs:     file.PackageInfo.LibDirs,
			BinDirs:     file.PackageInfo.BinDirs,
			Defines:     file.PackageInfo.Defines,
		}.WithDefaults(),
	}, nil
}

func mapRules(dtos []CopyRuleDTO) ([]domain.CopyRule, error) {
	rules := make([]domain.CopyRule, 0, len(dtos))
	for i, dto := range dtos {
		if dto.Pattern == "" {
			return nil, zerr.With(zerr.New("copy rule has no pattern"), "index", i)
		}
		rule := domain.CopyRule{
			Pattern:  dto.Pattern,
			Src:      defaultDir(dto.Src),
			Dst:      defaultDir(dto.Dst),
			KeepPath: true,
			Required: dto.Required,
		}
		if dto.KeepPath != nil {
			rule.KeepPath = *dto.KeepPath
		}
		if filepath.IsAbs(rule.Src) || filepath.IsAbs(rule.Dst) {
			return nil, zerr.With(zerr.New("copy rule paths must be relative"), "pattern", dto.Pattern)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseReferences(refs []string) ([]domain.Reference, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	out := make([]domain.Reference, 0, len(refs))
	for _, s := range refs {
		ref, err := domain.ParseReference(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

func defaultDir(s string) string {
	if s == "" {
		return "."
	}
	return filepath.ToSlash(s)
}

func orUnset(s string) string {
	if s == "" {
		return domain.UnsetField
	}
	return s
}

func canonicalizeStrings(strs []string) []string {
	if len(strs) == 0 {
		return nil
	}

	sorted := slices.Clone(strs)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}
