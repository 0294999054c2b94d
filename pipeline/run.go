package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/replenix/replenix/errors"
	"github.com/replenix/replenix/logger"
	"github.com/replenix/replenix/replen"
	"github.com/replenix/replenix/snapshot"
)

const (
	// DefaultEventBuffer bounds the outbound event channel.
	DefaultEventBuffer = 64

	// DefaultRunTimeout bounds one whole pipeline run.
	DefaultRunTimeout = 10 * time.Minute
)

// Orchestrator executes group task plans against the generation,
// retrieval and rendering collaborators, streaming ordered events per
// group while groups progress independently. All per-run state lives in
// the run itself; an Orchestrator is safe for concurrent runs.
type Orchestrator struct {
	gen    Generator
	retr   Retriever
	rend   Renderer
	policy replen.Policy

	eventBuffer int
	runTimeout  time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPolicy overrides the default reorder and stage policy.
func WithPolicy(p replen.Policy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithEventBuffer sets the outbound event channel capacity.
func WithEventBuffer(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.eventBuffer = n
		}
	}
}

// WithRunTimeout bounds the wall-clock duration of one run.
func WithRunTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.runTimeout = d
		}
	}
}

// NewOrchestrator wires the pipeline to its collaborators.
func NewOrchestrator(gen Generator, retr Retriever, rend Renderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gen:         gen,
		retr:        retr,
		rend:        rend,
		policy:      replen.DefaultPolicy(),
		eventBuffer: DefaultEventBuffer,
		runTimeout:  DefaultRunTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunSnapshot ingests raw snapshot rows end to end: normalize, group,
// then orchestrate generation. The returned channel delivers events in
// emission order and is closed when the run terminates. Canceling ctx
// abandons the run.
func (o *Orchestrator) RunSnapshot(ctx context.Context, rows []snapshot.RawRow, sourceFilename string) <-chan Event {
	ch := make(chan Event, o.eventBuffer)

	go func() {
		defer close(ch)

		if !emit(ctx, ch, CSVParsingEvent{}) {
			return
		}
		items, rowErrs := snapshot.Normalize(rows, sourceFilename)
		for _, re := range rowErrs {
			logger.Warnw("snapshot row rejected",
				"row", re.Row, "reason", re.Reason, "field", re.Field)
			ev := RowRejectedEvent{
				Row:    re.Row,
				Reason: re.Reason,
				Field:  re.Field,
				Detail: re.Detail,
			}
			if !emit(ctx, ch, ev) {
				return
			}
		}

		if !emit(ctx, ch, ItemGroupingEvent{}) {
			return
		}
		groups := replen.Group(items, o.policy)
		if !emit(ctx, ch, ItemGroupingDoneEvent{Count: len(groups)}) {
			return
		}

		o.run(ctx, ch, groups)
	}()

	return ch
}

// Run orchestrates generation for already-grouped input.
func (o *Orchestrator) Run(ctx context.Context, groups []replen.SupplierGroup) <-chan Event {
	ch := make(chan Event, o.eventBuffer)
	go func() {
		defer close(ch)
		o.run(ctx, ch, groups)
	}()
	return ch
}

// run executes all group plans and emits the terminal event. An empty
// group set terminates immediately with an error event and no complete.
func (o *Orchestrator) run(ctx context.Context, ch chan<- Event, groups []replen.SupplierGroup) {
	if len(groups) == 0 {
		emit(ctx, ch, ErrorEvent{Message: errors.ErrNoGroups.Error()})
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	agg := NewAggregator(groups)

	// A fatal fault (duplicate aggregation key) aborts the whole run;
	// the first one wins and cancels in-flight groups.
	var fatalMu sync.Mutex
	var fatalErr error
	fatal := func(err error) {
		fatalMu.Lock()
		defer fatalMu.Unlock()
		if fatalErr == nil {
			fatalErr = err
			cancel()
		}
	}

	var wg sync.WaitGroup
	for i := range groups {
		plan := Plan(&groups[i], o.policy)
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.runGroup(runCtx, ctx, ch, plan, agg, fatal)
		}()
	}
	wg.Wait()

	fatalMu.Lock()
	runFatal := fatalErr
	fatalMu.Unlock()

	switch {
	case runFatal != nil:
		logger.Errorw("pipeline run aborted", "error", runFatal)
		emit(ctx, ch, ErrorEvent{Message: runFatal.Error(), Partial: agg.Finalize()})
	case ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		logger.Warnw("pipeline run timed out", "timeout", o.runTimeout)
		emit(ctx, ch, ErrorEvent{
			Message: errors.ErrRunTimeout.Error(),
			Partial: agg.Finalize(),
		})
	case ctx.Err() != nil:
		// Caller is gone; nobody is listening for a terminal event
	default:
		emit(ctx, ch, CompleteEvent{Result: agg.Finalize()})
	}
}

// runGroup drives one group through its plan: analysis first, then the
// stages depending on it concurrently, then the optional evaluation.
// Stage calls use runCtx so the run timeout abandons them; emission uses
// the parent ctx so terminal events still deliver after expiry.
func (o *Orchestrator) runGroup(runCtx, parent context.Context, ch chan<- Event,
	plan GroupTaskPlan, agg *Aggregator, fatal func(error)) {

	group := plan.Group
	meta := DocumentMeta{Supplier: group.Supplier, SnapshotDate: group.SnapshotDate}

	fail := func(stage Stage, err error) {
		err = o.stageFailure(runCtx, stage, err)
		logger.Warnw("group stage failed",
			"supplier", group.Supplier, "stage", stage, "error", err)
		agg.MarkFailed(meta)
		emit(parent, ch, groupError(meta, stage, err))
	}

	if !emit(parent, ch, AnalysisEvent{scope(meta)}) {
		return
	}

	codes := make([]string, 0, len(group.Items))
	for _, it := range group.Items {
		codes = append(codes, it.ItemCode)
	}
	snippets, err := o.retr.RetrieveContext(runCtx, group.Supplier, codes)
	if err != nil {
		fail(StageAnalysis, errors.Wrap(errors.ErrRetrieval, err.Error()))
		return
	}

	analysis, err := o.gen.GenerateContent(runCtx, StageInput{
		Stage: StageAnalysis, Group: group, Retrieved: snippets,
	})
	if err != nil {
		fail(StageAnalysis, errors.Wrap(errors.ErrGeneration, err.Error()))
		return
	}
	if err := o.produce(parent, ch, agg, StageAnalysis, analysis, meta); err != nil {
		o.handleProduceError(StageAnalysis, err, fail, fatal)
		return
	}

	// Purchase request and email depend only on analysis and run
	// concurrently with each other
	var (
		concWG   sync.WaitGroup
		failedMu sync.Mutex
		failed   bool
	)
	for _, st := range plan.Stages {
		if !st.ConcurrentAfterAnalysis() {
			continue
		}
		stage := st.Name
		concWG.Add(1)
		go func() {
			defer concWG.Done()

			var start Event
			if stage == StagePurchaseRequest {
				start = PREvent{scope(meta)}
			} else {
				start = EmailEvent{scope(meta)}
			}
			if !emit(parent, ch, start) {
				return
			}

			text, err := o.gen.GenerateContent(runCtx, StageInput{
				Stage: stage, Group: group, Retrieved: snippets, Analysis: analysis,
			})
			if err != nil {
				fail(stage, errors.Wrap(errors.ErrGeneration, err.Error()))
				failedMu.Lock()
				failed = true
				failedMu.Unlock()
				return
			}
			if err := o.produce(parent, ch, agg, stage, text, meta); err != nil {
				o.handleProduceError(stage, err, fail, fatal)
				failedMu.Lock()
				failed = true
				failedMu.Unlock()
			}
		}()
	}
	concWG.Wait()

	if failed || !o.policy.Evaluation {
		return
	}

	if !emit(parent, ch, EvaluationEvent{scope(meta)}) {
		return
	}
	eval, err := o.gen.GenerateContent(runCtx, StageInput{
		Stage: StageEvaluation, Group: group, Retrieved: snippets, Analysis: analysis,
	})
	if err != nil {
		fail(StageEvaluation, errors.Wrap(errors.ErrGeneration, err.Error()))
		return
	}
	if err := o.produce(parent, ch, agg, StageEvaluation, eval, meta); err != nil {
		o.handleProduceError(StageEvaluation, err, fail, fatal)
	}
}

// produce renders one stage's text into a document, emits the file
// events and records the artifact.
func (o *Orchestrator) produce(parent context.Context, ch chan<- Event,
	agg *Aggregator, stage Stage, text string, meta DocumentMeta) error {

	filename := o.rend.Filename(stage, meta)
	if !emit(parent, ch, GeneratingFileEvent{groupScope: scope(meta), Filename: filename}) {
		return parent.Err()
	}

	doc, err := o.rend.RenderDocument(stage, text, meta)
	if err != nil {
		return errors.Wrap(errors.ErrRender, err.Error())
	}

	artifact := Artifact{
		SnapshotDate: meta.SnapshotDate,
		Supplier:     meta.Supplier,
		Filename:     filename,
		Content:      string(doc),
	}
	if err := agg.Add(stage, artifact); err != nil {
		return err
	}

	emit(parent, ch, FileReadyEvent{
		groupScope: scope(meta), Filename: filename, Content: artifact.Content,
	})
	return nil
}

// handleProduceError routes a produce failure: consistency faults abort
// the run, collaborator failures fail only the owning group.
func (o *Orchestrator) handleProduceError(stage Stage, err error, fail func(Stage, error), fatal func(error)) {
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrDuplicateArtifact) || errors.HasAssertionFailure(err):
		fatal(err)
	case errors.IsGroupFatal(err):
		fail(stage, err)
	case errors.Is(err, context.Canceled):
		// Caller gone; no one left to report to
	default:
		fail(stage, err)
	}
}

// stageFailure reclassifies a stage error as a timeout when the run
// deadline caused it.
func (o *Orchestrator) stageFailure(runCtx context.Context, stage Stage, err error) error {
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return errors.Wrapf(errors.ErrRunTimeout, "stage %s abandoned", stage)
	}
	return err
}

// emit delivers an event unless the caller has gone away. Reports false
// once the context is done; callers stop emitting for that run.
func emit(ctx context.Context, ch chan<- Event, e Event) bool {
	select {
	case ch <- e:
		return true
	case <-ctx.Done():
		return false
	}
}
