// Package cas implements the local package cache.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644

	metadataFile = "metadata.json"
)

var _ ports.PackageStore = (*Store)(nil)

// metadata is the per-reference record kept next to the package folders.
type metadata struct {
	Reference string                        `json:"reference"`
	Packages  map[string]domain.BuildRecord `json:"packages"`
}

// Store implements ports.PackageStore on a directory tree rooted at the kiln home.
type Store struct {
	root string
	mu   sync.RWMutex
	now  func() time.Time
}

// NewStore creates a Store rooted at home.
func NewStore(home string) *Store {
	return &Store{
		root: filepath.Clean(home),
		now:  time.Now,
	}
}

// DefaultHome returns $KILN_HOME, or ~/.kiln when it is unset.
func DefaultHome() (string, error) {
	if home := os.Getenv("KILN_HOME"); home != "" {
		return home, nil
	}
	user, err := os.UserHomeDir()
	if err != nil {
		return "", zerr.Wrap(err, "failed to determine home directory")
	}
	return filepath.Join(user, ".kiln"), nil
}

// Root returns the cache root.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) refDir(ref domain.Reference) string {
	return filepath.Join(s.root, "data", ref.Name, ref.Version, ref.User, ref.Channel)
}

// Folders returns the cache folders of a binary package.
func (s *Store) Folders(ref domain.Reference, packageID string) domain.Folders {
	dir := s.refDir(ref)
	return domain.Folders{
		Source:  filepath.Join(dir, "source"),
		Build:   filepath.Join(dir, "build", packageID),
		Package: filepath.Join(dir, "package", packageID),
	}
}

// Get reads the package info of an installed binary package.
func (s *Store) Get(ref domain.Reference, packageID string) (domain.InstalledPackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pkg, err := s.read(s.Folders(ref, packageID).Package)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = zerr.With(domain.ErrPackageNotFound, "ref", ref.String())
			return domain.InstalledPackage{}, zerr.With(err, "package_id", packageID)
		}
		return domain.InstalledPackage{}, err
	}
	return pkg, nil
}

func (s *Store) read(dir string) (domain.InstalledPackage, error) {
	path := filepath.Join(dir, domain.InfoFile)
	//nolint:gosec // Path is built from the cache root
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.InstalledPackage{}, err
	}

	var info domain.PackageInfo
	if err := toml.Unmarshal(data, &info); err != nil {
		return domain.InstalledPackage{}, zerr.With(zerr.Wrap(err, "failed to parse package info"), "path", path)
	}
	return domain.InstalledPackage{Info: info, Root: dir}, nil
}

// Resolve returns the binary package of exactly ref built for the os and
// arch of settings, preferring one with the same build_type.
func (s *Store) Resolve(ref domain.Reference, settings domain.Settings) (domain.InstalledPackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	packagesDir := filepath.Join(s.refDir(ref), "package")
	entries, err := os.ReadDir(packagesDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.InstalledPackage{}, zerr.With(zerr.Wrap(err, "failed to list packages"), "path", packagesDir)
	}

	var candidates []domain.InstalledPackage
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pkg, err := s.read(filepath.Join(packagesDir, e.Name()))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return domain.InstalledPackage{}, err
		}
		candidates = append(candidates, pkg)
	}

	if len(candidates) == 0 {
		return domain.InstalledPackage{}, s.missing(ref)
	}

	var fallback *domain.InstalledPackage
	for i := range candidates {
		pkg := &candidates[i]
		if !matches(pkg.Info.Settings, domain.SettingOS, settings.OS) ||
			!matches(pkg.Info.Settings, domain.SettingArch, settings.Arch) {
			continue
		}
		if matches(pkg.Info.Settings, domain.SettingBuildType, settings.BuildType) {
			return *pkg, nil
		}
		if fallback == nil {
			fallback = pkg
		}
	}
	if fallback != nil {
		return *fallback, nil
	}

	err = zerr.With(domain.ErrNoCompatiblePackage, "ref", ref.String())
	err = zerr.With(err, "os", settings.OS)
	return domain.InstalledPackage{}, zerr.With(err, "arch", settings.Arch)
}

// matches reports whether a package built without the axis, or with the
// same value, serves a consumer with want.
func matches(settings map[string]string, key, want string) bool {
	have, ok := settings[key]
	return !ok || want == "" || have == want
}

// missing explains why no package of ref exists, listing other versions
// of the same recipe when there are any.
func (s *Store) missing(ref domain.Reference) error {
	versionsDir := filepath.Join(s.root, "data", ref.Name)
	entries, _ := os.ReadDir(versionsDir)

	var available []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == ref.Version {
			continue
		}
		other := ref
		other.Version = e.Name()
		if _, err := os.Stat(filepath.Join(s.refDir(other), "package")); err == nil {
			available = append(available, other.String())
		}
	}

	if len(available) > 0 {
		sort.Strings(available)
		err := zerr.With(domain.ErrVersionMismatch, "requested", ref.String())
		return zerr.With(err, "available", available)
	}
	return zerr.With(domain.ErrPackageNotFound, "ref", ref.String())
}

// Commit writes the manifest and info files into staged, then swaps staged
// in as the package folder. staged must live on the same file system as
// the cache.
func (s *Store) Commit(info domain.PackageInfo, staged string, manifest domain.Manifest) (domain.InstalledPackage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeFile(filepath.Join(staged, domain.ManifestFile), manifest.Render()); err != nil {
		return domain.InstalledPackage{}, err
	}
	data, err := toml.Marshal(info)
	if err != nil {
		return domain.InstalledPackage{}, zerr.Wrap(err, "failed to marshal package info")
	}
	if err := writeFile(filepath.Join(staged, domain.InfoFile), data); err != nil {
		return domain.InstalledPackage{}, err
	}

	dest := s.Folders(info.Reference, info.PackageID).Package
	if err := replaceDir(staged, dest); err != nil {
		return domain.InstalledPackage{}, err
	}

	if err := s.record(info, manifest); err != nil {
		return domain.InstalledPackage{}, err
	}
	return domain.InstalledPackage{Info: info, Root: dest}, nil
}

// replaceDir renames src onto dest. A previous dest is moved aside first
// and restored if the swap fails.
func replaceDir(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create package directory"), "path", filepath.Dir(dest))
	}

	backup := ""
	if _, err := os.Stat(dest); err == nil {
		backup = dest + ".old"
		_ = os.RemoveAll(backup)
		if err := os.Rename(dest, backup); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to move previous package aside"), "path", dest)
		}
	}

	if err := os.Rename(src, dest); err != nil {
		if backup != "" {
			_ = os.Rename(backup, dest)
		}
		return zerr.With(zerr.Wrap(err, "failed to install package"), "path", dest)
	}

	if backup != "" {
		_ = os.RemoveAll(backup)
	}
	return nil
}

func (s *Store) record(info domain.PackageInfo, manifest domain.Manifest) error {
	path := filepath.Join(s.refDir(info.Reference), metadataFile)

	md, err := loadMetadata(path)
	if err != nil {
		return err
	}
	md.Reference = info.Reference.String()
	md.Packages[info.PackageID] = domain.BuildRecord{
		PackageID:    info.PackageID,
		ManifestHash: manifest.Hash,
		Settings:     info.Settings,
		Timestamp:    s.now().UTC(),
	}

	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal package metadata")
	}
	return writeFile(path, data)
}

// Record returns the build record of a committed package.
func (s *Store) Record(ref domain.Reference, packageID string) (domain.BuildRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	md, err := loadMetadata(filepath.Join(s.refDir(ref), metadataFile))
	if err != nil {
		return domain.BuildRecord{}, false, err
	}
	rec, ok := md.Packages[packageID]
	return rec, ok, nil
}

func loadMetadata(path string) (metadata, error) {
	md := metadata{Packages: make(map[string]domain.BuildRecord)}

	//nolint:gosec // Path is built from the cache root
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return md, nil
		}
		return md, zerr.With(zerr.Wrap(err, "failed to read package metadata"), "path", path)
	}
	if len(data) == 0 {
		return md, nil
	}

	if err := json.Unmarshal(data, &md); err != nil {
		return md, zerr.With(zerr.Wrap(err, "failed to unmarshal package metadata"), "path", path)
	}
	if md.Packages == nil {
		md.Packages = make(map[string]domain.BuildRecord)
	}
	return md, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", filepath.Dir(path))
	}
	//nolint:gosec // Path is built from the cache root
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write file"), "path", path)
	}
	return nil
}
