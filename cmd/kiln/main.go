// Package main is the entry point for the kiln packaging tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/cmd/kiln/commands"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	_ "go.trai.ch/kiln/internal/wiring"
)

// Process exit codes by failure category.
const (
	exitOK            = 0
	exitFailure       = 1
	exitConfiguration = 2
	exitBuild         = 3
	exitStaging       = 4
	exitVerification  = 5
	exitRuntime       = 6
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer func() {
		_ = components.Close()
	}()

	cli := commands.New(components.App)
	cli.SetArgs(args)

	if err := cli.Execute(ctx); err != nil {
		category := domain.Categorize(err)
		if category == nil {
			components.Logger.Error(err)
			return exitFailure
		}
		_, _ = fmt.Fprintf(stderr, "%s: %+v\n", category, err)
		return exitCode(category)
	}
	return exitOK
}

func exitCode(category error) int {
	switch {
	case errors.Is(category, domain.ErrConfiguration):
		return exitConfiguration
	case errors.Is(category, domain.ErrBuild):
		return exitBuild
	case errors.Is(category, domain.ErrStaging):
		return exitStaging
	case errors.Is(category, domain.ErrVerification):
		return exitVerification
	case errors.Is(category, domain.ErrRuntimeFailure):
		return exitRuntime
	default:
		return exitFailure
	}
}
