package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"navpulse/internal/infrastructure"
)

// Runner executes steps in order. There are no retries: the first failing
// step aborts the run and every step after it is marked skipped.
type Runner struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewRunner creates a runner. Nil providers disable tracing and metrics.
func NewRunner(providers *infrastructure.OTelProviders, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		tracer: noop.NewTracerProvider().Tracer(infrastructure.MeterName),
		logger: logger,
	}
	if providers != nil {
		if providers.Tracer != nil {
			r.tracer = providers.Tracer
		}
		r.metrics = providers.Metrics
	}
	return r
}

// Run executes steps sequentially against state
func (r *Runner) Run(ctx context.Context, state *State, steps ...Step) error {
	for _, step := range steps {
		state.ensureStep(step)
	}

	state.Start()
	r.logger.InfoContext(ctx, "run started",
		slog.String("run_id", state.ID),
		slog.Int("step_count", len(steps)))

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			r.logger.WarnContext(ctx, "run cancelled",
				slog.String("run_id", state.ID),
				slog.String("step", step.ID()))
			r.skipRemaining(state, steps[i:], "run cancelled")
			state.Cancel()
			return NewCancellationError(step.ID(), err)
		}

		if err := r.execute(ctx, state, step, i+1, len(steps)); err != nil {
			r.skipRemaining(state, steps[i+1:], fmt.Sprintf("step %s failed", step.ID()))
			state.Fail(err)
			return err
		}
	}

	state.Complete()
	r.logger.InfoContext(ctx, "run completed",
		slog.String("run_id", state.ID),
		slog.Duration("duration", state.Duration()))
	return nil
}

func (r *Runner) execute(ctx context.Context, state *State, step Step, n, total int) error {
	st := state.GetStep(step.ID())

	ctx, span := r.tracer.Start(ctx, "step."+step.ID(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", state.ID),
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
		),
	)
	defer span.End()

	r.logger.InfoContext(ctx, "step started",
		slog.String("run_id", state.ID),
		slog.String("step", step.ID()),
		slog.Int("step_number", n),
		slog.Int("total_steps", total))

	st.Start()
	start := time.Now()
	err := step.Execute(ctx, state)
	duration := time.Since(start)
	r.metrics.RecordStep(ctx, step.ID(), duration, err)

	if err != nil {
		wrapped := NewExecutionError(step.ID(), err)
		st.Fail(wrapped)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.ErrorContext(ctx, "step failed",
			slog.String("run_id", state.ID),
			slog.String("step", step.ID()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return wrapped
	}

	st.Complete()
	span.SetStatus(codes.Ok, "")
	r.logger.InfoContext(ctx, "step completed",
		slog.String("run_id", state.ID),
		slog.String("step", step.ID()),
		slog.Duration("duration", duration))
	return nil
}

func (r *Runner) skipRemaining(state *State, steps []Step, reason string) {
	for _, step := range steps {
		if st := state.GetStep(step.ID()); st != nil && st.CurrentStatus() == StepStatusPending {
			st.Skip(reason)
		}
	}
}
