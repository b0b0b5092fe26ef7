package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/saitejamalyala/url-image-downloader/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the accumulated
// report from previous steps.
//
// Design decision: We use an interface rather than function types so that
// steps can carry their collaborators and expose Name() for logging.
type Step interface {
	// Do executes the step. It returns an error only when the run cannot
	// continue; recoverable problems are recorded in the report.
	Do(ctx context.Context, report *model.RunReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing later steps after one fails.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in order and stamps report.FinishedAt on return.
//
// Design decision: Cancellation is checked between steps. Steps that block
// on the network observe ctx themselves, and the download step waits for
// every task to settle even after cancellation.
func (p *Pipeline) Execute(ctx context.Context, report *model.RunReport) error {
	defer func() {
		report.FinishedAt = time.Now()
	}()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			report.Cancelled = true
			report.SetError(err)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", report.WebURL,
		)

		if err := step.Do(ctx, report); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"url", report.WebURL,
				"error", err,
			)
			report.SetError(err)
			if !p.continueOnError {
				return err
			}
		}

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	if ctx.Err() != nil {
		report.Cancelled = true
	}
	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
