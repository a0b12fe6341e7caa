package pipeline

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/household-ledger/internal/domain"
)

// InferenceClient sends one prompt to a language model and returns its raw text reply.
type InferenceClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LedgerSink appends one ordered row to the shared ledger.
type LedgerSink interface {
	AppendRow(ctx context.Context, row []interface{}) error
}

// RunRecorder stores an audit entry for every processed message.
type RunRecorder interface {
	RecordRun(ctx context.Context, run *ExtractionRun) error
}

// RunStatus is the outcome of one extraction run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
)

// ExtractionRun describes one pass of a message through the pipeline.
type ExtractionRun struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	BankStatement string
	Description   string
	Payer         domain.PayerTag

	RawReply string

	Status       RunStatus
	ErrorKind    ErrorKind // empty unless the run failed with an ExtractionError
	ErrorMessage string

	TransactionDate    civil.Date // zero unless the reply was normalized
	Direction          domain.Direction
	DirectionCanonical bool
	Amount             int64
	Appended           bool
}

type nopRecorder struct{}

func (nopRecorder) RecordRun(context.Context, *ExtractionRun) error { return nil }
