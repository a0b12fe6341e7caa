package pipeline

import (
	"context"

	"github.com/dvloznov/household-ledger/internal/domain"
)

// Emitter writes finished ledger records to a sink, one append call per record.
// There is no idempotency key: emitting the same record twice writes two rows.
type Emitter struct {
	sink   LedgerSink
	labels domain.PayerLabels
}

// NewEmitter creates an Emitter. labels may be nil to write the tag names.
func NewEmitter(sink LedgerSink, labels domain.PayerLabels) *Emitter {
	return &Emitter{sink: sink, labels: labels}
}

// Emit appends [date, direction, amount, description, payer] to the sink.
func (e *Emitter) Emit(ctx context.Context, rec domain.LedgerRecord) error {
	if err := e.sink.AppendRow(ctx, rec.Row(e.labels)); err != nil {
		return &SinkError{Err: err}
	}
	return nil
}
