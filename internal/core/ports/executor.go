package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Executor runs native processes.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs cmd to completion.
	//
	// The returned result is populated even on failure: ExitCode is -1 when
	// the process could not be started, and Output holds the tail of the
	// combined output. A non-zero exit is reported as an error.
	Execute(ctx context.Context, cmd domain.Command) (domain.ExecResult, error)
}
