package ports

import "go.trai.ch/kiln/internal/core/domain"

// PackageStore is the local package cache.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type PackageStore interface {
	// Folders returns the cache folders used to build and hold one binary package.
	Folders(ref domain.Reference, packageID string) domain.Folders

	// Get returns the binary package with the exact identifier.
	Get(ref domain.Reference, packageID string) (domain.InstalledPackage, error)

	// Resolve returns the binary package of exactly ref that is compatible
	// with settings. A reference present only under other versions fails
	// with domain.ErrVersionMismatch.
	Resolve(ref domain.Reference, settings domain.Settings) (domain.InstalledPackage, error)

	// Commit installs a fully staged tree as the package folder of info,
	// replacing any previous content atomically.
	Commit(info domain.PackageInfo, staged string, manifest domain.Manifest) (domain.InstalledPackage, error)
}
