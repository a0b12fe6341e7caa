package bigquery

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/household-ledger/internal/domain"
	"github.com/dvloznov/household-ledger/internal/pipeline"
)

type mockInserter struct {
	PutFunc func(ctx context.Context, src interface{}) error
}

func (m *mockInserter) Put(ctx context.Context, src interface{}) error {
	return m.PutFunc(ctx, src)
}

func successfulRun() *pipeline.ExtractionRun {
	started := time.Date(2025, time.June, 16, 7, 30, 0, 0, time.UTC)
	return &pipeline.ExtractionRun{
		RunID:              "run-1",
		StartedAt:          started,
		FinishedAt:         started.Add(2 * time.Second),
		BankStatement:      "So tien: - 50,000 VND",
		Description:        "Tien an trua",
		Payer:              domain.PayerPartyA,
		RawReply:           `{"so_tien_giao_dich": -50000}`,
		Status:             pipeline.RunStatusSuccess,
		TransactionDate:    civil.Date{Year: 2025, Month: time.June, Day: 16},
		Direction:          domain.DirectionOutflow,
		DirectionCanonical: true,
		Amount:             50000,
		Appended:           true,
	}
}

func TestNewExtractionRunRow_Success(t *testing.T) {
	row := NewExtractionRunRow(successfulRun(), "gemini-1.5-flash")

	if row.RunID != "run-1" || row.Payer != "PartyA" || row.Status != "SUCCESS" {
		t.Errorf("row = %+v", row)
	}
	if row.ModelName != "gemini-1.5-flash" {
		t.Errorf("ModelName = %q", row.ModelName)
	}
	if !row.TransactionDate.Valid || row.TransactionDate.Date.Day != 16 {
		t.Errorf("TransactionDate = %+v", row.TransactionDate)
	}
	if !row.Amount.Valid || row.Amount.Int64 != 50000 {
		t.Errorf("Amount = %+v", row.Amount)
	}
	if row.Direction.StringVal != "Chi" || !row.DirectionCanonical {
		t.Errorf("Direction = %+v canonical=%v", row.Direction, row.DirectionCanonical)
	}
	if row.ErrorKind.Valid || row.ErrorMessage.Valid {
		t.Error("Expected null error columns on success")
	}
}

func TestNewExtractionRunRow_Failure(t *testing.T) {
	run := &pipeline.ExtractionRun{
		RunID:        "run-2",
		Status:       pipeline.RunStatusFailed,
		ErrorKind:    pipeline.KindMissingField,
		ErrorMessage: strings.Repeat("x", 3000),
	}

	row := NewExtractionRunRow(run, "m")

	if row.ErrorKind.StringVal != "missing_field" || !row.ErrorKind.Valid {
		t.Errorf("ErrorKind = %+v", row.ErrorKind)
	}
	if len(row.ErrorMessage.StringVal) != maxErrorMessageLen {
		t.Errorf("ErrorMessage length = %d, want %d", len(row.ErrorMessage.StringVal), maxErrorMessageLen)
	}
	if row.TransactionDate.Valid || row.Amount.Valid || row.Direction.Valid {
		t.Error("Expected null normalized columns when the reply was not parsed")
	}
	if row.RawReply.Valid {
		t.Error("Expected null raw reply")
	}
}

func TestNewExtractionRunRow_TruncatesOnRuneBoundary(t *testing.T) {
	run := &pipeline.ExtractionRun{
		RunID:        "run-3",
		Status:       pipeline.RunStatusFailed,
		ErrorKind:    pipeline.KindMalformedJSON,
		ErrorMessage: strings.Repeat("Không ghi được bảng tính ", 200),
	}

	got := NewExtractionRunRow(run, "m").ErrorMessage.StringVal

	if !utf8.ValidString(got) {
		t.Errorf("ErrorMessage is not valid UTF-8 after truncation: %q", got[len(got)-8:])
	}
	if len(got) > maxErrorMessageLen || len(got) < maxErrorMessageLen-utf8.UTFMax {
		t.Errorf("ErrorMessage length = %d, want within %d bytes of %d", len(got), utf8.UTFMax, maxErrorMessageLen)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"abc", 5, "abc"},
		{"abc", 2, "ab"},
		{"tiễn", 4, "ti"},
		{"tiễn", 5, "tiễ"},
		{"ễ", 1, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.s, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestRecordRun(t *testing.T) {
	var saved *bigquery.StructSaver
	r := &RunRecorder{
		modelName: "gemini-1.5-flash",
		inserter: &mockInserter{
			PutFunc: func(ctx context.Context, src interface{}) error {
				saved = src.(*bigquery.StructSaver)
				return nil
			},
		},
	}

	if err := r.RecordRun(context.Background(), successfulRun()); err != nil {
		t.Fatalf("RecordRun() error = %v", err)
	}
	if saved.InsertID != "run-1" {
		t.Errorf("InsertID = %q, want run id", saved.InsertID)
	}
	if row := saved.Struct.(*ExtractionRunRow); row.RunID != "run-1" {
		t.Errorf("row = %+v", row)
	}
}

func TestRecordRun_Error(t *testing.T) {
	putErr := errors.New("quota exceeded")
	r := &RunRecorder{
		inserter: &mockInserter{
			PutFunc: func(ctx context.Context, src interface{}) error { return putErr },
		},
	}

	if err := r.RecordRun(context.Background(), successfulRun()); !errors.Is(err, putErr) {
		t.Errorf("error = %v, want wrapped put error", err)
	}
}

func TestExtractionRunRowSchema(t *testing.T) {
	schema, err := bigquery.InferSchema(ExtractionRunRow{})
	if err != nil {
		t.Fatalf("InferSchema() error = %v", err)
	}

	byName := map[string]bigquery.FieldType{}
	for _, f := range schema {
		byName[f.Name] = f.Type
	}
	want := map[string]bigquery.FieldType{
		"run_id":           bigquery.StringFieldType,
		"started_ts":       bigquery.TimestampFieldType,
		"transaction_date": bigquery.DateFieldType,
		"amount":           bigquery.IntegerFieldType,
		"appended":         bigquery.BooleanFieldType,
	}
	for name, typ := range want {
		if byName[name] != typ {
			t.Errorf("field %s type = %v, want %v", name, byName[name], typ)
		}
	}
}
