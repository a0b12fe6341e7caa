package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/household-ledger/internal/domain"
	"github.com/dvloznov/household-ledger/internal/logger"
	"github.com/google/uuid"
)

// Deps are the long-lived capabilities a Processor works with.
// A nil Inference or Sink leaves the processor not ready; a nil Recorder disables auditing.
type Deps struct {
	Inference InferenceClient
	Sink      LedgerSink
	Recorder  RunRecorder
	Labels    domain.PayerLabels
	Now       func() time.Time
}

// Processor turns segmented messages into ledger rows.
// It is safe for concurrent use; no state is kept between messages.
type Processor struct {
	ready    bool
	labels   domain.PayerLabels
	recorder RunRecorder
	now      func() time.Time
	pipeline *Pipeline
}

// NewProcessor wires the extraction pipeline from deps.
func NewProcessor(deps Deps) *Processor {
	p := &Processor{
		ready:    deps.Inference != nil && deps.Sink != nil,
		labels:   deps.Labels,
		recorder: deps.Recorder,
		now:      deps.Now,
	}
	if p.recorder == nil {
		p.recorder = nopRecorder{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.ready {
		p.pipeline = NewExtractionPipeline(deps.Inference, NewEmitter(deps.Sink, deps.Labels))
	}
	return p
}

// Ready reports whether both the inference client and the ledger sink are available.
func (p *Processor) Ready() bool {
	return p.ready
}

// Labels returns the payer labels written to the ledger.
func (p *Processor) Labels() domain.PayerLabels {
	return p.labels
}

// Process runs one message through prompt, inference, normalization and append.
// The returned error is terminal for this message; nothing is retried.
func (p *Processor) Process(ctx context.Context, msg domain.SegmentedMessage) (*domain.LedgerRecord, error) {
	if !p.ready {
		return nil, ErrUpstreamUnavailable
	}

	run := &ExtractionRun{
		RunID:         uuid.NewString(),
		StartedAt:     p.now(),
		BankStatement: msg.BankStatement,
		Description:   msg.UserDescription,
		Payer:         msg.Payer,
	}

	log := logger.FromContext(ctx).With().Str("run_id", run.RunID).Logger()
	ctx = logger.WithContext(ctx, log)

	state := &PipelineState{Message: msg, Now: run.StartedAt}
	err := p.pipeline.Execute(ctx, state)

	p.record(ctx, run, state, err)

	if err != nil {
		return nil, err
	}

	log.Info().
		Str("date", state.Record.Date).
		Str("direction", string(state.Record.Direction)).
		Int64("amount", state.Record.Amount).
		Str("payer", state.Record.Payer.String()).
		Msg("Ledger row appended")

	return state.Record, nil
}

// record stores the audit entry. Recorder failures are logged and never reach the user.
func (p *Processor) record(ctx context.Context, run *ExtractionRun, state *PipelineState, runErr error) {
	run.FinishedAt = p.now()
	run.RawReply = state.RawReply
	run.Appended = state.Appended

	if n := state.Normalized; n != nil {
		run.TransactionDate = n.Day
		run.Direction = n.Direction
		run.DirectionCanonical = n.Direction.IsCanonical()
		run.Amount = n.Amount
	}

	run.Status = RunStatusSuccess
	if runErr != nil {
		run.Status = RunStatusFailed
		run.ErrorMessage = runErr.Error()
		var ee *ExtractionError
		if errors.As(runErr, &ee) {
			run.ErrorKind = ee.Kind
		}
	}

	if err := p.recorder.RecordRun(ctx, run); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to record extraction run")
	}
}
