package config

// Recipefile represents the structure of the kiln.yaml package recipe.
type Recipefile struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	User        string   `yaml:"user"`
	Channel     string   `yaml:"channel"`
	License     string   `yaml:"license"`
	Author      string   `yaml:"author"`
	Description string   `yaml:"description"`
	URL         string   `yaml:"url"`
	Topics      []string `yaml:"topics"`

	Settings       []string            `yaml:"settings"`
	Options        map[string][]string `yaml:"options"`
	DefaultOptions map[string]string   `yaml:"default_options"`

	Requires       []string `yaml:"requires"`
	BuildRequires  []string `yaml:"build_requires"`
	ExportsSources []string `yaml:"exports_sources"`

	Package     []CopyRuleDTO  `yaml:"package"`
	PackageInfo PackageInfoDTO `yaml:"package_info"`
}

// TestRecipefile represents the structure of test_package/kiln.yaml.
type TestRecipefile struct {
	Settings      []string      `yaml:"settings"`
	BuildRequires []string      `yaml:"build_requires"`
	Imports       []CopyRuleDTO `yaml:"imports"`
	Executable    string        `yaml:"executable"`
}

// CopyRuleDTO represents a copy rule in the configuration.
// KeepPath defaults to true when omitted.
type CopyRuleDTO struct {
	Pattern  string `yaml:"pattern"`
	Src      string `yaml:"src"`
	Dst      string `yaml:"dst"`
	KeepPath *bool  `yaml:"keep_path"`
	Required bool   `yaml:"required"`
}

// PackageInfoDTO represents the consumer information of a package.
type PackageInfoDTO struct {
	Libs        []string `yaml:"libs"`
	IncludeDirs []string `yaml:"includedirs"`
	LibDirs     []string `yaml:"libdirs"`
	BinDirs     []string `yaml:"bindirs"`
	Defines     []string `yaml:"defines"`
}
