package pipeline

import (
	"context"
	"errors"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Step is one named unit of a pipeline.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pipeline runs steps one after another. The first failure aborts every
// remaining step.
type Pipeline struct {
	steps     []Step
	telemetry ports.Telemetry
	logger    ports.Logger

	mu     sync.RWMutex
	status map[string]domain.StepStatus
}

// NewPipeline creates a Pipeline with every step pending.
func NewPipeline(telemetry ports.Telemetry, logger ports.Logger, steps ...Step) *Pipeline {
	p := &Pipeline{
		steps:     steps,
		telemetry: telemetry,
		logger:    logger,
		status:    make(map[string]domain.StepStatus, len(steps)),
	}
	for _, s := range steps {
		p.status[s.Name] = domain.StepPending
	}
	return p
}

func (p *Pipeline) updateStatus(name string, status domain.StepStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status[name] = status
}

// Status returns the status of the named step.
func (p *Pipeline) Status(name string) domain.StepStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status[name]
}

// Statuses returns the status of every step in pipeline order.
func (p *Pipeline) Statuses() []domain.StepStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.StepStatus, len(p.steps))
	for i, s := range p.steps {
		out[i] = p.status[s.Name]
	}
	return out
}

// Run executes the steps in order. A step returning domain.ErrStepSkipped
// is recorded as skipped and the pipeline continues.
func (p *Pipeline) Run(ctx context.Context) error {
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.abort(i)
			return err
		}

		p.updateStatus(step.Name, domain.StepRunning)
		stepCtx, vertex := p.telemetry.Record(ctx, step.Name)
		err := step.Run(stepCtx)

		switch {
		case err == nil:
			vertex.Complete(nil)
			p.updateStatus(step.Name, domain.StepCompleted)
		case errors.Is(err, domain.ErrStepSkipped):
			vertex.Log(domain.LogLevelInfo, err.Error())
			vertex.Complete(nil)
			p.updateStatus(step.Name, domain.StepSkipped)
		default:
			vertex.Complete(err)
			p.updateStatus(step.Name, domain.StepFailed)
			p.abort(i + 1)
			return zerr.With(err, "step", step.Name)
		}
	}
	return nil
}

func (p *Pipeline) abort(from int) {
	for _, s := range p.steps[from:] {
		p.updateStatus(s.Name, domain.StepAborted)
		p.logger.Warn("aborted step " + s.Name)
	}
}
