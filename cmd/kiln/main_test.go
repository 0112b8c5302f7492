package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(dir string)
		args         func(dir string) []string
		expectedExit int
		expectedErr  string
	}{
		{
			name:         "Version",
			args:         func(string) []string { return []string{"version"} },
			expectedExit: exitOK,
		},
		{
			name:         "Missing recipe is a configuration error",
			args:         func(dir string) []string { return []string{"build", filepath.Join(dir, "missing")} },
			expectedExit: exitConfiguration,
			expectedErr:  domain.ErrConfiguration.Error(),
		},
		{
			name: "Invalid option value is a configuration error",
			setup: func(dir string) {
				recipe := "name: soilcpp\nversion: 0.1.0\noptions:\n  shared: [True, False]\n" +
					"package:\n  - {pattern: \"*.a\", dst: lib}\n"
				if err := os.WriteFile(filepath.Join(dir, "kiln.yaml"), []byte(recipe), 0o600); err != nil {
					t.Fatalf("failed to write recipe: %v", err)
				}
			},
			args:         func(dir string) []string { return []string{"build", dir, "-o", "shared=Maybe"} },
			expectedExit: exitConfiguration,
			expectedErr:  "invalid option value",
		},
		{
			name:         "Unknown command",
			args:         func(string) []string { return []string{"install"} },
			expectedExit: exitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KILN_HOME", t.TempDir())
			t.Setenv("KILN_PROGRESS", "plain")
			dir := t.TempDir()
			if tt.setup != nil {
				tt.setup(dir)
			}

			var stderr bytes.Buffer
			exitCode := run(tt.args(dir), &stderr)
			assert.Equal(t, tt.expectedExit, exitCode)
			if tt.expectedErr != "" {
				assert.Contains(t, stderr.String(), tt.expectedErr)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	cause := zerr.New("boom")
	assert.Equal(t, exitConfiguration, exitCode(domain.Categorize(domain.NewStepError(domain.ErrConfiguration, "load", cause))))
	assert.Equal(t, exitBuild, exitCode(domain.Categorize(domain.NewStepError(domain.ErrBuild, "build", cause))))
	assert.Equal(t, exitStaging, exitCode(domain.Categorize(domain.NewStepError(domain.ErrStaging, "stage", cause))))
	assert.Equal(t, exitVerification, exitCode(domain.Categorize(domain.NewStepError(domain.ErrVerification, "build", cause))))
	assert.Equal(t, exitRuntime, exitCode(domain.Categorize(domain.NewStepError(domain.ErrRuntimeFailure, "run", cause))))
	assert.Equal(t, exitFailure, exitCode(cause))
}
