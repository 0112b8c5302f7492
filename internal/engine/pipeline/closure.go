package pipeline

import (
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// resolveClosure returns seeds, the packages of refs and everything they
// transitively require, dependencies first. Two different versions of the
// same package in one closure is a version mismatch.
func resolveClosure(
	store ports.PackageStore,
	seeds []domain.InstalledPackage,
	refs []domain.Reference,
	settings domain.Settings,
) ([]domain.InstalledPackage, error) {
	graph := domain.NewGraph()
	byName := make(map[string]domain.Reference)

	var queue []domain.Reference
	add := func(p domain.InstalledPackage) error {
		if err := checkVersion(byName, p.Reference()); err != nil {
			return err
		}
		if graph.Has(p.Reference()) {
			return nil
		}
		if err := graph.AddPackage(p); err != nil {
			return err
		}
		queue = append(queue, p.Info.Requires...)
		return nil
	}

	for _, p := range seeds {
		if err := add(p); err != nil {
			return nil, err
		}
	}
	queue = append(queue, refs...)

	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]

		if err := checkVersion(byName, ref); err != nil {
			return nil, err
		}
		if graph.Has(ref) {
			continue
		}
		p, err := store.Resolve(ref, settings)
		if err != nil {
			return nil, err
		}
		if err := add(p); err != nil {
			return nil, err
		}
	}

	if err := graph.Validate(); err != nil {
		return nil, err
	}
	return graph.Packages(), nil
}

func checkVersion(byName map[string]domain.Reference, ref domain.Reference) error {
	seen, ok := byName[ref.Name]
	if !ok {
		byName[ref.Name] = ref
		return nil
	}
	if seen != ref {
		err := zerr.With(domain.ErrVersionMismatch, "requested", ref.String())
		return zerr.With(err, "conflicts_with", seen.String())
	}
	return nil
}
