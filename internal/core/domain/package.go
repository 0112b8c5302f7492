package domain

import (
	"strings"
	"time"
)

// Files written by kiln inside every package folder.
const (
	ManifestFile = "kilnmanifest.txt"
	InfoFile     = "kilninfo.toml"
)

// PackageInfo is the metadata stored inside every package folder.
type PackageInfo struct {
	Reference Reference         `toml:"reference"`
	PackageID string            `toml:"package_id"`
	Settings  map[string]string `toml:"settings"`
	Options   map[string]string `toml:"options"`
	Requires  []Reference       `toml:"requires"`
	CppInfo   CppInfo           `toml:"cpp_info"`
}

// InstalledPackage is a binary package available in the local cache.
type InstalledPackage struct {
	Info PackageInfo
	// Root is the absolute package folder.
	Root string
}

// Reference returns the package reference.
func (p InstalledPackage) Reference() Reference {
	return p.Info.Reference
}

// Folders are the cache locations used while producing one binary package.
type Folders struct {
	// Source receives the exported sources of the recipe.
	Source string
	// Build is the out-of-tree native build folder.
	Build string
	// Package is the final package folder.
	Package string
}

// BuildRecord is the cache metadata for one binary package.
type BuildRecord struct {
	PackageID    string            `json:"package_id"`
	ManifestHash string            `json:"manifest_hash"`
	Settings     map[string]string `json:"settings"`
	Timestamp    time.Time         `json:"timestamp,omitzero"`
}

// ManifestEntry is the digest of one file in a package folder.
type ManifestEntry struct {
	Path   string
	Digest string
}

// Manifest lists every file of a package folder in path order.
type Manifest struct {
	Entries []ManifestEntry
	// Hash digests all entries.
	Hash string
}

// Render returns the manifest file content: one "path: digest" line per entry.
func (m Manifest) Render() []byte {
	var b strings.Builder
	for _, e := range m.Entries {
		b.WriteString(e.Path)
		b.WriteString(": ")
		b.WriteString(e.Digest)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// SettingsMap renders the declared axes of s as a map.
func SettingsMap(declared []string, s Settings) map[string]string {
	out := make(map[string]string, len(declared))
	for _, key := range declared {
		if v, ok := s.Get(key); ok && v != "" {
			out[key] = v
		}
	}
	return out
}
