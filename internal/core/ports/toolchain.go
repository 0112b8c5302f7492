package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Toolchain drives a native build system.
//
//go:generate go run go.uber.org/mock/mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type Toolchain interface {
	// Name identifies the build system in logs and errors.
	Name() string
	// Detect checks that sourceDir holds a build description this toolchain
	// understands.
	Detect(sourceDir string) error
	// Configure generates the native build files in spec.BuildDir.
	Configure(ctx context.Context, spec domain.BuildSpec) error
	// Build compiles and links in spec.BuildDir.
	// Failures are returned as *domain.ToolchainError.
	Build(ctx context.Context, spec domain.BuildSpec) error
}
