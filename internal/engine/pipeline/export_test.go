package pipeline

import (
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// ResolveClosure exposes resolveClosure for tests.
func ResolveClosure(
	store ports.PackageStore,
	seeds []domain.InstalledPackage,
	refs []domain.Reference,
	settings domain.Settings,
) ([]domain.InstalledPackage, error) {
	return resolveClosure(store, seeds, refs, settings)
}
