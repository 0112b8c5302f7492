package ports

import "go.trai.ch/kiln/internal/core/domain"

// ProfileLoader resolves the build configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=profile_loader.go -destination=mocks/mock_profile_loader.go -package=mocks
type ProfileLoader interface {
	// Load layers host defaults, the profile file at path (optional),
	// environment overrides and the key=value overrides given on the
	// command line, in that order.
	Load(path string, settings, options []string) (domain.Profile, error)
}
