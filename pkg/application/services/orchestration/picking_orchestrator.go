package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vsinha/stockpick/pkg/application/dto"
	"github.com/vsinha/stockpick/pkg/application/services/picking"
	"github.com/vsinha/stockpick/pkg/domain/entities"
	"github.com/vsinha/stockpick/pkg/domain/repositories"
	"github.com/vsinha/stockpick/pkg/domain/services"
	"github.com/vsinha/stockpick/pkg/infrastructure/events"
	"github.com/vsinha/stockpick/pkg/infrastructure/idgen"
	"github.com/vsinha/stockpick/pkg/infrastructure/lock"
	"github.com/vsinha/stockpick/pkg/infrastructure/tracing"
)

// Run stages, reported on failure events
const (
	StageLock     = "lock"
	StageLoad     = "load"
	StageValidate = "validate"
	StageAllocate = "allocate"
	StageSave     = "save"
)

// RunRequest names the dataset a run reads and where its result goes
type RunRequest struct {
	Input string
	// OutputDir overrides where the result is written; backends that write
	// in place by default treat it as the output location
	OutputDir string
}

// PickingOrchestrator runs one picking pass over a stored ledger: it loads
// the dataset, checks its structure, allocates and persists every table to a
// single output artifact. Nothing is written unless the whole pass succeeds.
type PickingOrchestrator struct {
	repo    repositories.DatasetRepository
	codec   *services.LedgerCodec
	engine  *picking.Engine
	locker  repositories.RunLocker
	events  events.EventStore
	logger  *zap.Logger
	strict  bool
	backend string
	now     func() time.Time
}

// Option configures a PickingOrchestrator
type Option func(*PickingOrchestrator)

// WithLocker serializes runs over the same dataset
func WithLocker(locker repositories.RunLocker) Option {
	return func(o *PickingOrchestrator) { o.locker = locker }
}

// WithEventStore records run events
func WithEventStore(store events.EventStore) Option {
	return func(o *PickingOrchestrator) { o.events = store }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *PickingOrchestrator) { o.logger = logger }
}

// WithStrict makes any row issue abort the run before allocation
func WithStrict(strict bool) Option {
	return func(o *PickingOrchestrator) { o.strict = strict }
}

// WithClock replaces time.Now, used for output naming and run timestamps
func WithClock(now func() time.Time) Option {
	return func(o *PickingOrchestrator) { o.now = now }
}

// WithBackendName labels events and summaries with the store in use
func WithBackendName(name string) Option {
	return func(o *PickingOrchestrator) { o.backend = name }
}

// NewPickingOrchestrator creates an orchestrator over repo using schema
func NewPickingOrchestrator(repo repositories.DatasetRepository, schema entities.Schema, opts ...Option) *PickingOrchestrator {
	o := &PickingOrchestrator{
		repo:   repo,
		codec:  services.NewLedgerCodec(schema),
		locker: lock.NoopLocker{},
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.engine = picking.NewEngine(o.logger.Named("engine"))
	return o
}

// Run performs one picking run. Structural errors (missing tables or
// columns) abort before anything is mutated. Row issues are skipped and
// reported in the summary unless strict mode is on. A failed save is a
// PersistenceError naming the attempted output.
func (o *PickingOrchestrator) Run(ctx context.Context, req RunRequest) (summary *dto.RunSummary, err error) {
	if req.Input == "" {
		return nil, errors.New("input location is required")
	}

	runID := idgen.New()
	started := o.now()
	log := o.logger.With(zap.String("run_id", runID), zap.String("input", req.Input))

	ctx, span := tracing.StartSpan(ctx, "picking.run")
	span.WithAttributes(map[string]string{"run.id": runID, "run.input": req.Input, "run.backend": o.backend})
	defer func() { tracing.EndSpan(span, err) }()

	release, err := o.locker.Acquire(ctx, req.Input)
	if err != nil {
		o.fail(ctx, runID, req.Input, StageLock, "", err)
		return nil, err
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			log.Warn("failed to release run lock", zap.Error(rerr))
		}
	}()

	o.emit(ctx, runID, events.RunStartedEvent, events.RunStarted{
		RunID:   runID,
		Input:   req.Input,
		Backend: o.backend,
		Started: started,
	})
	log.Info("picking run started", zap.String("backend", o.backend))

	ds, err := o.load(ctx, req.Input)
	if err != nil {
		o.fail(ctx, runID, req.Input, StageLoad, "", err)
		return nil, err
	}

	ledger, err := o.decode(ctx, ds)
	if err != nil {
		o.fail(ctx, runID, req.Input, StageValidate, "", err)
		return nil, err
	}
	issues := ledger.Issues()

	allocCtx, allocSpan := tracing.StartSpan(ctx, "picking.allocate")
	result, err := o.engine.Allocate(allocCtx, ledger)
	if result != nil {
		allocSpan.WithInt("orders", len(result.Outcomes)).WithInt("backorders", result.BackorderNew)
	}
	tracing.EndSpan(allocSpan, err)
	if err != nil {
		o.fail(ctx, runID, req.Input, StageAllocate, "", err)
		return nil, err
	}

	output := o.repo.OutputLocation(req.Input, req.OutputDir, started)
	o.codec.Encode(result.Ledger, ds)
	if err := o.save(ctx, output, ds); err != nil {
		perr := &entities.PersistenceError{Location: output, Err: err}
		o.fail(ctx, runID, req.Input, StageSave, output, perr)
		return nil, perr
	}

	summary = o.summarize(runID, req.Input, output, started, result, issues)
	o.complete(ctx, summary, result.Ledger)

	log.Info("picking run completed",
		zap.String("output", output),
		zap.Int("orders", summary.Orders),
		zap.Int("rejected_orders", summary.RejectedOrders),
		zap.Int("fulfillment_records", summary.FulfillmentRecords),
		zap.Int("backorder_records", summary.BackorderRecords),
		zap.Int64("picked", int64(summary.Picked)),
		zap.Int64("unmet", int64(summary.Unmet)),
		zap.Duration("duration", summary.Duration()),
	)
	for _, issue := range issues {
		log.Warn("row skipped", zap.Error(issue))
	}

	return summary, nil
}

func (o *PickingOrchestrator) load(ctx context.Context, input string) (ds *entities.Dataset, err error) {
	ctx, span := tracing.StartSpan(ctx, "picking.load")
	defer func() { tracing.EndSpan(span, err) }()

	ds, err = o.repo.Load(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", input, err)
	}
	span.WithInt("tables", len(ds.TableNames()))
	return ds, nil
}

func (o *PickingOrchestrator) decode(ctx context.Context, ds *entities.Dataset) (ledger *entities.Ledger, err error) {
	_, span := tracing.StartSpan(ctx, "picking.validate")
	defer func() { tracing.EndSpan(span, err) }()

	ledger, err = o.codec.Decode(ds)
	if err != nil {
		return nil, err
	}

	issues := ledger.Issues()
	span.WithInt("issues", len(issues))
	if o.strict && len(issues) > 0 {
		return nil, fmt.Errorf("strict mode: %d row issues: %w", len(issues), multierr.Combine(issues...))
	}
	return ledger, nil
}

func (o *PickingOrchestrator) save(ctx context.Context, output string, ds *entities.Dataset) (err error) {
	ctx, span := tracing.StartSpan(ctx, "picking.save")
	span.WithAttributes(map[string]string{"run.output": output})
	defer func() { tracing.EndSpan(span, err) }()

	return o.repo.Save(ctx, output, ds)
}

func (o *PickingOrchestrator) summarize(runID, input, output string, started time.Time, result *dto.PickingResult, issues []error) *dto.RunSummary {
	summary := &dto.RunSummary{
		RunID:              runID,
		Backend:            o.backend,
		Input:              input,
		Output:             output,
		Started:            started,
		Finished:           o.now(),
		Orders:             len(result.Outcomes),
		RejectedOrders:     len(result.Rejected),
		RejectedStockLines: len(issues) - len(result.Rejected),
		FulfillmentRecords: result.FulfillmentNew,
		BackorderRecords:   result.BackorderNew,
		DepletedLines:      result.DepletedLines,
		RemainingLines:     len(result.Ledger.Inventory),
		Picked:             result.TotalPicked(),
		Unmet:              result.TotalUnmet(),
		Outcomes:           result.Outcomes,
		Issues:             issues,
	}
	return summary
}

func (o *PickingOrchestrator) complete(ctx context.Context, summary *dto.RunSummary, ledger *entities.Ledger) {
	o.emit(ctx, summary.RunID, events.RunCompletedEvent, events.RunCompleted{
		RunID:              summary.RunID,
		Input:              summary.Input,
		Output:             summary.Output,
		Orders:             summary.Orders,
		RejectedOrders:     summary.RejectedOrders,
		RejectedStockLines: summary.RejectedStockLines,
		Picked:             int64(summary.Picked),
		Unmet:              int64(summary.Unmet),
		FulfillmentRecords: summary.FulfillmentRecords,
		BackorderRecords:   summary.BackorderRecords,
		DepletedLines:      summary.DepletedLines,
		Completed:          summary.Finished,
	})

	for _, record := range ledger.Backorder {
		if record.Historic {
			continue
		}
		o.emit(ctx, summary.RunID, events.BackorderRaisedEvent, events.BackorderRaised{
			RunID:          summary.RunID,
			PartNumber:     string(record.PartNumber),
			Description:    record.Description,
			Reference:      record.Reference,
			DocumentNumber: record.DocumentNumber,
			Required:       int64(record.RequiredQuantity),
			Unmet:          int64(record.UnmetQuantity),
		})
	}
}

func (o *PickingOrchestrator) fail(ctx context.Context, runID, input, stage, output string, err error) {
	o.logger.Error("picking run failed",
		zap.String("run_id", runID),
		zap.String("input", input),
		zap.String("stage", stage),
		zap.Error(err),
	)
	o.emit(ctx, runID, events.RunFailedEvent, events.RunFailed{
		RunID:  runID,
		Input:  input,
		Stage:  stage,
		Output: output,
		Error:  err.Error(),
	})
}

// emit appends to the event store. Event delivery never fails a run.
func (o *PickingOrchestrator) emit(ctx context.Context, runID, eventType string, data interface{}) {
	if o.events == nil {
		return
	}
	if err := o.events.AppendEvent(ctx, runID, events.NewEvent(eventType, runID, data)); err != nil {
		o.logger.Warn("failed to record event", zap.String("type", eventType), zap.Error(err))
	}
}
