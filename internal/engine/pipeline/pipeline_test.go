package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func recording(t *testing.T) (*mocks.MockTelemetry, *mocks.MockVertex) {
	t.Helper()
	ctrl := gomock.NewController(t)
	telemetry := mocks.NewMockTelemetry(ctrl)
	vertex := mocks.NewMockVertex(ctrl)
	telemetry.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ string) (context.Context, ports.Vertex) {
		return ctx, vertex
	}).AnyTimes()
	return telemetry, vertex
}

func TestPipeline_RunsInOrder(t *testing.T) {
	telemetry, vertex := recording(t)
	vertex.EXPECT().Complete(nil).Times(3)
	f := newFixture(t)

	var order []string
	step := func(name string) pipeline.Step {
		return pipeline.Step{Name: name, Run: func(context.Context) error {
			order = append(order, name)
			return nil
		}}
	}

	p := pipeline.NewPipeline(telemetry, f.logger, step("build"), step("package"), step("test"))
	assert.Equal(t, []domain.StepStatus{domain.StepPending, domain.StepPending, domain.StepPending}, p.Statuses())

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []string{"build", "package", "test"}, order)
	assert.Equal(t, []domain.StepStatus{domain.StepCompleted, domain.StepCompleted, domain.StepCompleted}, p.Statuses())
}

func TestPipeline_FailureAbortsRemaining(t *testing.T) {
	telemetry, vertex := recording(t)
	f := newFixture(t)
	failure := domain.NewStepError(domain.ErrBuild, "build", errors.New("cmake failed"))

	vertex.EXPECT().Complete(failure)

	ran := false
	p := pipeline.NewPipeline(telemetry, f.logger,
		pipeline.Step{Name: "build", Run: func(context.Context) error { return failure }},
		pipeline.Step{Name: "package", Run: func(context.Context) error { ran = true; return nil }},
	)

	err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrBuild)
	assert.False(t, ran)
	assert.Equal(t, domain.StepFailed, p.Status("build"))
	assert.Equal(t, domain.StepAborted, p.Status("package"))

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "build", zErr.Metadata()["step"])
}

func TestPipeline_SkippedStep(t *testing.T) {
	telemetry, vertex := recording(t)
	f := newFixture(t)
	vertex.EXPECT().Log(domain.LogLevelInfo, gomock.Any())
	vertex.EXPECT().Complete(nil).Times(2)

	p := pipeline.NewPipeline(telemetry, f.logger,
		pipeline.Step{Name: "run", Run: func(context.Context) error {
			return zerr.Wrap(domain.ErrStepSkipped, "cross building")
		}},
		pipeline.Step{Name: "report", Run: func(context.Context) error { return nil }},
	)

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, domain.StepSkipped, p.Status("run"))
	assert.Equal(t, domain.StepCompleted, p.Status("report"))
	assert.True(t, domain.StepSkipped.IsTerminal())
}

func TestPipeline_Cancelled(t *testing.T) {
	telemetry, _ := recording(t)
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := pipeline.NewPipeline(telemetry, f.logger,
		pipeline.Step{Name: "build", Run: func(context.Context) error {
			t.Error("step must not run after cancellation")
			return nil
		}},
	)

	require.ErrorIs(t, p.Run(ctx), context.Canceled)
	assert.Equal(t, domain.StepAborted, p.Status("build"))
}
