package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/household-ledger/internal/domain"
	"github.com/dvloznov/household-ledger/internal/logger"
)

// PipelineStep represents a single step in the extraction pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the values produced for one message as it moves through the steps.
type PipelineState struct {
	Message domain.SegmentedMessage
	Now     time.Time

	Prompt     string
	RawReply   string
	Normalized *Normalized
	Record     *domain.LedgerRecord
	Appended   bool
}

// BuildPromptStep renders the extraction prompt for the bank statement.
type BuildPromptStep struct{}

func (s *BuildPromptStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Prompt = BuildPrompt(state.Message.BankStatement)
	return nil
}

// InferStep makes the single inference call. Failures are not retried.
type InferStep struct {
	Client InferenceClient
}

func (s *InferStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	start := time.Now()
	reply, err := s.Client.Generate(ctx, state.Prompt)
	if err != nil {
		return &InferenceError{Err: err}
	}
	state.RawReply = reply

	log.Debug().
		Dur("duration", time.Since(start)).
		Int("reply_len", len(reply)).
		Msg("Inference reply received")
	return nil
}

// NormalizeStep turns the raw reply into a ledger record.
type NormalizeStep struct{}

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	n, err := ParseAndNormalize(state.RawReply, state.Now)
	if err != nil {
		return err
	}
	state.Normalized = &n

	if !n.Direction.IsCanonical() {
		log := logger.FromContext(ctx)
		log.Warn().
			Str("direction", string(n.Direction)).
			Msg("Model returned a non-canonical direction label; forwarding as-is")
	}

	state.Record = &domain.LedgerRecord{
		Date:        n.Date,
		Direction:   n.Direction,
		Amount:      n.Amount,
		Description: state.Message.UserDescription,
		Payer:       state.Message.Payer,
	}
	return nil
}

// EmitStep appends the record to the ledger.
type EmitStep struct {
	Emitter *Emitter
}

func (s *EmitStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Record == nil {
		return fmt.Errorf("EmitStep: no record to emit")
	}
	if err := s.Emitter.Emit(ctx, *state.Record); err != nil {
		return err
	}
	state.Appended = true
	return nil
}

// Pipeline executes a sequence of steps in order, stopping at the first failure.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewExtractionPipeline creates the standard prompt, infer, normalize, emit pipeline.
func NewExtractionPipeline(client InferenceClient, emitter *Emitter) *Pipeline {
	return NewPipeline(
		&BuildPromptStep{},
		&InferStep{Client: client},
		&NormalizeStep{},
		&EmitStep{Emitter: emitter},
	)
}
