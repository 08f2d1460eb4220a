// Package pipeline drives the seven generation stages in dependency order,
// running furniture and layout side by side, and keeps the run's telemetry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/blueprint"
	"github.com/fwojciec/blueprint/report"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// InputSettingsLabel heads the first block of every run log.
const InputSettingsLabel = "--- Input Settings ---"

// maxParallel bounds the worker count of a concurrent stage group.
const maxParallel = 2

// plan is the fixed execution order. Stages in the same group share their
// upstream artifacts and run concurrently; groups run one after another.
var plan = [][]blueprint.StageID{
	{blueprint.StageStyle},
	{blueprint.StageModules},
	{blueprint.StageFurniture, blueprint.StageLayout},
	{blueprint.StageConnections},
	{blueprint.StageStructureJSON},
	{blueprint.StageCode},
}

// Driver runs the stage chain. A Driver holds no per-run state and may run
// several pipelines, sequentially or concurrently.
type Driver struct {
	stages       blueprint.Stages
	sink         blueprint.Sink
	pricing      blueprint.Pricing
	model        string
	runID        string
	logger       zerolog.Logger
	onEvent      func(blueprint.Event)
	stageTimeout time.Duration
	now          func() time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithPricing sets the per-million-token rates used to price each step.
func WithPricing(p blueprint.Pricing) Option {
	return func(d *Driver) {
		d.pricing = p
	}
}

// WithModel sets the model name written to the input settings and report.
func WithModel(model string) Option {
	return func(d *Driver) {
		d.model = model
	}
}

// WithRunID sets the identifier carried by the report.
func WithRunID(id string) Option {
	return func(d *Driver) {
		d.runID = id
	}
}

// WithLogger sets the logger for progress lines and warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithEventHandler sets a callback that receives pipeline events. It is
// always called from the goroutine running Run.
func WithEventHandler(h func(blueprint.Event)) Option {
	return func(d *Driver) {
		d.onEvent = h
	}
}

// WithStageTimeout bounds every stage call. A stage that exceeds it fails
// the run. Zero disables the limit.
func WithStageTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		d.stageTimeout = timeout
	}
}

// WithClock overrides the wall clock used for the run start and elapsed time.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

// New creates a Driver that runs stages and writes its narrative to sink.
func New(stages blueprint.Stages, sink blueprint.Sink, opts ...Option) *Driver {
	d := &Driver{
		stages:  stages,
		sink:    sink,
		pricing: blueprint.DefaultPricing(),
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Outcome is what a run leaves behind. It is populated on failure too, with
// the artifacts and steps produced before the failing stage.
type Outcome struct {
	Artifacts blueprint.Artifacts
	Report    blueprint.Report
}

// Run executes the chain for in. The input settings, every completed
// stage's content and the final report are appended to the sink in order.
// Any stage failure stops the run and is returned as *blueprint.StageError;
// the report block is still appended with the steps recorded so far.
func (d *Driver) Run(ctx context.Context, in blueprint.Input) (Outcome, error) {
	if err := d.stages.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("pipeline: %w", err)
	}
	if err := in.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("pipeline: %w", err)
	}

	r := &run{
		Driver:    d,
		log:       blueprint.NewStepLog(d.pricing),
		artifacts: blueprint.NewArtifacts(in),
		startedAt: d.now(),
	}
	if err := d.sink.Append(inputSettings(d.model, in), InputSettingsLabel); err != nil {
		return Outcome{Artifacts: r.artifacts}, fmt.Errorf("pipeline: write input settings: %w", err)
	}
	d.logger.Info().Str("run", d.runID).Str("model", d.model).Msg("starting generation")

	err := r.execute(ctx)
	return r.finish(err)
}

func inputSettings(model string, in blueprint.Input) string {
	prompt := in.Prompt
	if prompt == "" {
		prompt = "None"
	}
	image := "None"
	if in.Image != nil {
		image = in.Image.Path
	}
	return fmt.Sprintf("Model: %s\nPrompt: %s\nImage: %s", model, prompt, image)
}

// run is the state of a single Run. Only the goroutine executing Run
// touches it; concurrent stages hand their results back through slots.
type run struct {
	*Driver
	log       *blueprint.StepLog
	artifacts blueprint.Artifacts
	startedAt time.Time
}

type slot struct {
	result   blueprint.StageResult
	duration time.Duration
}

func (r *run) execute(ctx context.Context) error {
	for _, group := range plan {
		var err error
		if len(group) == 1 {
			err = r.sequential(ctx, group[0])
		} else {
			err = r.parallel(ctx, group)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *run) sequential(ctx context.Context, id blueprint.StageID) error {
	if err := r.ready(ctx, id); err != nil {
		return r.fail(id, err)
	}
	r.emit(blueprint.EventStageStarted{Stage: id})
	res, d, err := r.invoke(ctx, id, r.artifacts)
	if err != nil {
		return r.fail(id, err)
	}
	return r.complete(id, slot{result: res, duration: d})
}

// parallel runs ids concurrently against the same artifact snapshot. The
// first failure cancels the siblings, which are reported as cancelled after
// the failure. Results are recorded only after every worker has returned, in
// the order of ids.
func (r *run) parallel(ctx context.Context, ids []blueprint.StageID) error {
	for _, id := range ids {
		if err := r.ready(ctx, id); err != nil {
			return r.fail(id, err)
		}
	}
	r.emit(blueprint.EventForkStarted{Stages: ids})
	for _, id := range ids {
		r.emit(blueprint.EventStageStarted{Stage: id})
	}

	start := time.Now()
	snapshot := r.artifacts
	slots := make([]slot, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, id := range ids {
		g.Go(func() error {
			res, d, err := r.invoke(gctx, id, snapshot)
			if err != nil {
				return &blueprint.StageError{Stage: id, Err: err}
			}
			slots[i] = slot{result: res, duration: d}
			return nil
		})
	}
	err := g.Wait()
	elapsed := time.Since(start)
	r.logger.Info().Dur("elapsed", elapsed).Msgf("parallel block finished in %.2fs", elapsed.Seconds())
	r.emit(blueprint.EventForkFinished{Duration: elapsed})
	if err != nil {
		failed, cause := ids[0], err
		var se *blueprint.StageError
		if errors.As(err, &se) {
			failed, cause = se.Stage, se.Err
		}
		err = r.fail(failed, cause)
		for _, id := range ids {
			if id != failed {
				r.logger.Warn().Str("stage", string(id)).Msg("stage cancelled")
				r.emit(blueprint.EventStageCancelled{Stage: id})
			}
		}
		return err
	}

	for i, id := range ids {
		if err := r.complete(id, slots[i]); err != nil {
			return err
		}
	}
	return nil
}

// ready checks that the run is still live and that every upstream artifact
// id declares is present.
func (r *run) ready(ctx context.Context, id blueprint.StageID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if missing := r.artifacts.Missing(id.Info().Needs...); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, k := range missing {
			names[i] = string(k)
		}
		return fmt.Errorf("%w: %s", blueprint.ErrMissingArtifact, strings.Join(names, ", "))
	}
	return nil
}

func (r *run) invoke(ctx context.Context, id blueprint.StageID, a blueprint.Artifacts) (blueprint.StageResult, time.Duration, error) {
	if r.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.stageTimeout)
		defer cancel()
	}
	return Invoke(ctx, r.stages.Func(id), a)
}

// complete records a finished stage, feeds its content forward and appends
// it to the run log.
func (r *run) complete(id blueprint.StageID, s slot) error {
	info := id.Info()
	if !s.result.UsageReported {
		r.logger.Warn().Str("stage", string(id)).Msg("stage did not return usage data")
	}
	step := r.log.Record(id, info.Name, s.duration, s.result.Usage)
	r.artifacts = r.artifacts.With(info.Yield, s.result.Content)
	r.logger.Info().
		Str("step", step.Name).
		Dur("duration", step.Duration).
		Int("in", step.InputTokens).
		Int("out", step.OutputTokens).
		Float64("cost", step.Cost).
		Msg("step finished")
	r.emit(blueprint.EventStageFinished{Step: step, Content: s.result.Content})

	if err := r.sink.Append(s.result.Content, info.Label); err != nil {
		return r.fail(id, fmt.Errorf("append to log: %w", err))
	}
	return nil
}

func (r *run) fail(id blueprint.StageID, err error) error {
	r.logger.Error().Err(err).Str("stage", string(id)).Msg("stage failed")
	r.emit(blueprint.EventStageFailed{Stage: id, Err: err})
	return &blueprint.StageError{Stage: id, Err: err}
}

// finish builds the report and appends it to the log. The report is written
// on failure too so the time and cost spent so far are not lost.
func (r *run) finish(runErr error) (Outcome, error) {
	rep := blueprint.Report{
		RunID:     r.runID,
		Model:     r.model,
		Pricing:   r.pricing,
		StartedAt: r.startedAt,
		Elapsed:   r.now().Sub(r.startedAt),
		Steps:     r.log.Steps(),
		Totals:    r.log.Totals(),
	}
	if runErr != nil {
		rep.Err = runErr.Error()
	}
	out := Outcome{Artifacts: r.artifacts, Report: rep}

	if err := r.sink.Append(report.Text(rep), ""); err != nil {
		if runErr != nil {
			r.logger.Error().Err(err).Msg("write partial report")
			return out, runErr
		}
		return out, fmt.Errorf("pipeline: write report: %w", err)
	}
	return out, runErr
}

func (r *run) emit(e blueprint.Event) {
	if r.onEvent != nil {
		r.onEvent(e)
	}
}
