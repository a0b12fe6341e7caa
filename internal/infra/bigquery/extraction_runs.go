package bigquery

import (
	"time"
	"unicode/utf8"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/household-ledger/internal/pipeline"
)

const maxErrorMessageLen = 2000

// ExtractionRunRow is one audit row per processed chat message.
type ExtractionRunRow struct {
	RunID      string    `bigquery:"run_id"`      // REQUIRED
	StartedTS  time.Time `bigquery:"started_ts"`  // REQUIRED
	FinishedTS time.Time `bigquery:"finished_ts"` // REQUIRED

	BankStatement   string `bigquery:"bank_statement"`   // REQUIRED
	UserDescription string `bigquery:"user_description"` // REQUIRED
	Payer           string `bigquery:"payer"`            // REQUIRED

	ModelName string              `bigquery:"model_name"` // REQUIRED
	RawReply  bigquery.NullString `bigquery:"raw_reply"`  // NULLABLE

	Status       string              `bigquery:"status"`        // REQUIRED
	ErrorKind    bigquery.NullString `bigquery:"error_kind"`    // NULLABLE
	ErrorMessage bigquery.NullString `bigquery:"error_message"` // NULLABLE

	TransactionDate    bigquery.NullDate   `bigquery:"transaction_date"`    // NULLABLE
	Direction          bigquery.NullString `bigquery:"direction"`           // NULLABLE
	DirectionCanonical bool                `bigquery:"direction_canonical"` // REQUIRED
	Amount             bigquery.NullInt64  `bigquery:"amount"`              // NULLABLE
	Appended           bool                `bigquery:"appended"`            // REQUIRED
}

// NewExtractionRunRow converts a pipeline run into its audit row.
func NewExtractionRunRow(run *pipeline.ExtractionRun, modelName string) *ExtractionRunRow {
	row := &ExtractionRunRow{
		RunID:              run.RunID,
		StartedTS:          run.StartedAt,
		FinishedTS:         run.FinishedAt,
		BankStatement:      run.BankStatement,
		UserDescription:    run.Description,
		Payer:              run.Payer.String(),
		ModelName:          modelName,
		RawReply:           nullString(run.RawReply),
		Status:             string(run.Status),
		ErrorKind:          nullString(string(run.ErrorKind)),
		DirectionCanonical: run.DirectionCanonical,
		Appended:           run.Appended,
	}

	row.ErrorMessage = nullString(truncate(run.ErrorMessage, maxErrorMessageLen))

	// Normalized fields are only present once the reply was parsed.
	if run.TransactionDate.IsValid() {
		row.TransactionDate = bigquery.NullDate{Date: run.TransactionDate, Valid: true}
		row.Direction = nullString(string(run.Direction))
		row.Amount = bigquery.NullInt64{Int64: run.Amount, Valid: true}
	}

	return row
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
