package pipeline

import (
	"testing"
	"time"

	"github.com/dvloznov/household-ledger/internal/domain"
)

var fixedNow = time.Date(2025, time.June, 20, 9, 30, 0, 0, time.UTC)

func TestParseAndNormalize(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantDate  string
		wantDir   domain.Direction
		wantAmt   int64
		wantKind  ErrorKind
		wantField string
		wantValue string
	}{
		{
			name:     "canonical reply is unchanged",
			reply:    `{"so_tien_giao_dich": -50000, "loai_giao_dich": "Chi", "ngay_gio_giao_dich": "16/06/2025"}`,
			wantDate: "16/06/2025",
			wantDir:  domain.DirectionOutflow,
			wantAmt:  50000,
		},
		{
			name:     "iso date is reformatted",
			reply:    `{"so_tien_giao_dich": 20000000, "loai_giao_dich": "Thu", "ngay_gio_giao_dich": "2025-06-16"}`,
			wantDate: "16/06/2025",
			wantDir:  domain.DirectionInflow,
			wantAmt:  20000000,
		},
		{
			name:     "string amount with separators",
			reply:    `{"so_tien_giao_dich": "-50,000", "loai_giao_dich": "Chi", "ngay_gio_giao_dich": "16/06/2025"}`,
			wantDate: "16/06/2025",
			wantDir:  domain.DirectionOutflow,
			wantAmt:  50000,
		},
		{
			name:     "dot thousands separator",
			reply:    `{"so_tien_giao_dich": "1.250.000", "loai_giao_dich": "Thu", "ngay_gio_giao_dich": "16/06/2025"}`,
			wantDate: "16/06/2025",
			wantDir:  domain.DirectionInflow,
			wantAmt:  1250000,
		},
		{
			name:     "unparseable date falls back to today",
			reply:    `{"so_tien_giao_dich": 1000, "loai_giao_dich": "Thu", "ngay_gio_giao_dich": "sometime"}`,
			wantDate: "20/06/2025",
			wantDir:  domain.DirectionInflow,
			wantAmt:  1000,
		},
		{
			name:     "null date falls back to today",
			reply:    `{"so_tien_giao_dich": 1000, "loai_giao_dich": "Thu", "ngay_gio_giao_dich": null}`,
			wantDate: "20/06/2025",
			wantDir:  domain.DirectionInflow,
			wantAmt:  1000,
		},
		{
			name:     "missing date falls back to today",
			reply:    `{"so_tien_giao_dich": 1000, "loai_giao_dich": "Thu"}`,
			wantDate: "20/06/2025",
			wantDir:  domain.DirectionInflow,
			wantAmt:  1000,
		},
		{
			name:     "impossible calendar date falls back to today",
			reply:    `{"so_tien_giao_dich": 1000, "loai_giao_dich": "Thu", "ngay_gio_giao_dich": "31/02/2025"}`,
			wantDate: "20/06/2025",
			wantDir:  domain.DirectionInflow,
			wantAmt:  1000,
		},
		{
			name:     "date with time suffix falls back to today",
			reply:    `{"so_tien_giao_dich": 1000, "loai_giao_dich": "Thu", "ngay_gio_giao_dich": "16/06/2025 07:29"}`,
			wantDate: "20/06/2025",
			wantDir:  domain.DirectionInflow,
			wantAmt:  1000,
		},
		{
			name:     "non canonical direction is passed through",
			reply:    `{"so_tien_giao_dich": 1000, "loai_giao_dich": "Income", "ngay_gio_giao_dich": "16/06/2025"}`,
			wantDate: "16/06/2025",
			wantDir:  domain.Direction("Income"),
			wantAmt:  1000,
		},
		{
			name:     "empty reply",
			reply:    "",
			wantKind: KindEmptyResponse,
		},
		{
			name:     "whitespace reply",
			reply:    "  \n ",
			wantKind: KindEmptyResponse,
		},
		{
			name:     "prose is not json",
			reply:    "Xin lỗi, tôi không hiểu thông báo này.",
			wantKind: KindMalformedJSON,
		},
		{
			name:     "array is not an object",
			reply:    `[{"so_tien_giao_dich": 1}]`,
			wantKind: KindMalformedJSON,
		},
		{
			name:     "json null is not an object",
			reply:    `null`,
			wantKind: KindMalformedJSON,
		},
		{
			name:     "trailing data",
			reply:    `{"so_tien_giao_dich": 1, "loai_giao_dich": "Thu"} extra`,
			wantKind: KindMalformedJSON,
		},
		{
			name:      "missing amount",
			reply:     `{"loai_giao_dich": "Chi", "ngay_gio_giao_dich": "16/06/2025"}`,
			wantKind:  KindMissingField,
			wantField: "amount",
		},
		{
			name:      "null amount",
			reply:     `{"so_tien_giao_dich": null, "loai_giao_dich": "Chi"}`,
			wantKind:  KindMissingField,
			wantField: "amount",
		},
		{
			name:      "missing direction",
			reply:     `{"so_tien_giao_dich": 1000, "ngay_gio_giao_dich": "16/06/2025"}`,
			wantKind:  KindMissingField,
			wantField: "direction",
		},
		{
			name:      "non numeric amount",
			reply:     `{"so_tien_giao_dich": "nam muoi nghin", "loai_giao_dich": "Chi"}`,
			wantKind:  KindInvalidAmount,
			wantField: "amount",
			wantValue: "nam muoi nghin",
		},
		{
			name:      "boolean amount",
			reply:     `{"so_tien_giao_dich": true, "loai_giao_dich": "Chi"}`,
			wantKind:  KindInvalidAmount,
			wantField: "amount",
			wantValue: "true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAndNormalize(tt.reply, fixedNow)

			if tt.wantKind != "" {
				if !IsKind(err, tt.wantKind) {
					t.Fatalf("ParseAndNormalize() error = %v, want kind %s", err, tt.wantKind)
				}
				if tt.wantField != "" {
					ee := err.(*ExtractionError)
					if ee.Field != tt.wantField {
						t.Errorf("Field = %q, want %q", ee.Field, tt.wantField)
					}
					if ee.Value != tt.wantValue {
						t.Errorf("Value = %q, want %q", ee.Value, tt.wantValue)
					}
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseAndNormalize() unexpected error: %v", err)
			}
			if got.Date != tt.wantDate {
				t.Errorf("Date = %q, want %q", got.Date, tt.wantDate)
			}
			if got.Direction != tt.wantDir {
				t.Errorf("Direction = %q, want %q", got.Direction, tt.wantDir)
			}
			if got.Amount != tt.wantAmt {
				t.Errorf("Amount = %d, want %d", got.Amount, tt.wantAmt)
			}
		})
	}
}

func TestParseAndNormalize_SignErasing(t *testing.T) {
	for _, amount := range []string{`"-50,000"`, `"50000"`, `-50000`, `50000`, `"+50,000"`} {
		reply := `{"so_tien_giao_dich": ` + amount + `, "loai_giao_dich": "Chi"}`
		got, err := ParseAndNormalize(reply, fixedNow)
		if err != nil {
			t.Fatalf("amount %s: unexpected error: %v", amount, err)
		}
		if got.Amount != 50000 {
			t.Errorf("amount %s normalized to %d, want 50000", amount, got.Amount)
		}
	}
}

func TestParseAndNormalize_DecimalLiteralKeepsDigits(t *testing.T) {
	// The separator stripper does not know about decimals: 50000.0 reads as 500000.
	got, err := ParseAndNormalize(`{"so_tien_giao_dich": 50000.0, "loai_giao_dich": "Thu"}`, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Amount != 500000 {
		t.Errorf("Amount = %d, want 500000", got.Amount)
	}
}

func TestParseAndNormalize_FencedMatchesPlain(t *testing.T) {
	payload := `{"so_tien_giao_dich": -123456, "loai_giao_dich": "Chi", "ngay_gio_giao_dich": "14/06/2025"}`
	fenced := "Đây là kết quả:\n```json\n" + payload + "\n```\nHy vọng hữu ích."

	plain, err := ParseAndNormalize(payload, fixedNow)
	if err != nil {
		t.Fatalf("plain: %v", err)
	}
	wrapped, err := ParseAndNormalize(fenced, fixedNow)
	if err != nil {
		t.Fatalf("fenced: %v", err)
	}
	if plain != wrapped {
		t.Errorf("fenced result %+v differs from plain %+v", wrapped, plain)
	}
}

func TestExtractPayload(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"plain", "  {\"a\":1}  ", `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced inline", "text ```json {\"a\":1}``` more", `{"a":1}`},
		{"first fence wins", "```json\n{\"a\":1}\n```\n```json\n{\"a\":2}\n```", `{"a":1}`},
		{"untagged fence is not unwrapped", "```\n{\"a\":1}\n```", "```\n{\"a\":1}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPayload(tt.reply); got != tt.want {
				t.Errorf("extractPayload() = %q, want %q", got, tt.want)
			}
		})
	}
}
