package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/household-ledger/internal/domain"
)

var (
	fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

	ledgerDateShape = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	isoDateShape    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	amountSeparators = strings.NewReplacer(",", "", ".", "")
)

// Normalized holds the three fields recovered from a model reply.
type Normalized struct {
	Date      string // DD/MM/YYYY
	Day       civil.Date
	Direction domain.Direction
	Amount    int64
}

// ParseAndNormalize decodes a model reply into canonical ledger fields.
// Dates that are missing or unreadable fall back to now; every other problem is an *ExtractionError.
func ParseAndNormalize(reply string, now time.Time) (Normalized, error) {
	if strings.TrimSpace(reply) == "" {
		return Normalized{}, &ExtractionError{Kind: KindEmptyResponse}
	}

	obj, err := decodeObject(extractPayload(reply))
	if err != nil {
		return Normalized{}, &ExtractionError{Kind: KindMalformedJSON, Err: err}
	}

	rawAmount, ok := obj[KeyAmount]
	if !ok || rawAmount == nil {
		return Normalized{}, MissingField("amount")
	}
	amount, err := normalizeAmount(rawAmount)
	if err != nil {
		return Normalized{}, &ExtractionError{Kind: KindInvalidAmount, Field: "amount", Value: fmt.Sprint(rawAmount), Err: err}
	}

	rawDirection, ok := obj[KeyDirection]
	if !ok || rawDirection == nil {
		return Normalized{}, MissingField("direction")
	}

	day := normalizeDate(obj[KeyDate], now)

	return Normalized{
		Date:      FormatLedgerDate(day),
		Day:       day,
		Direction: normalizeDirection(rawDirection),
		Amount:    amount,
	}, nil
}

// extractPayload prefers a ```json fenced block and otherwise returns the trimmed reply.
func extractPayload(reply string) string {
	if m := fencedJSON.FindStringSubmatch(reply); m != nil {
		return m[1]
	}
	return strings.TrimSpace(reply)
}

// decodeObject decodes exactly one JSON object, keeping numbers as their literal text.
func decodeObject(payload string) (map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decodeObject: %w", err)
	}
	if obj == nil {
		return nil, errors.New("decodeObject: payload is not a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decodeObject: unexpected data after JSON object")
	}
	return obj, nil
}

// normalizeAmount strips thousands separators and returns the magnitude.
// The sign only tells the model which direction to choose.
func normalizeAmount(v interface{}) (int64, error) {
	var s string
	switch val := v.(type) {
	case json.Number:
		s = val.String()
	case string:
		s = val
	default:
		return 0, fmt.Errorf("amount has type %T, want number or string", v)
	}

	digits := strings.TrimSpace(amountSeparators.Replace(s))
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not an integer: %w", s, err)
	}
	if n == math.MinInt64 {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	if n < 0 {
		n = -n
	}
	return n, nil
}

// normalizeDirection passes the label through; validation is left to the caller.
func normalizeDirection(v interface{}) domain.Direction {
	if s, ok := v.(string); ok {
		return domain.Direction(s)
	}
	return domain.Direction(fmt.Sprint(v))
}

// normalizeDate accepts DD/MM/YYYY or YYYY-MM-DD and falls back to today for anything else.
func normalizeDate(v interface{}, now time.Time) civil.Date {
	s, ok := v.(string)
	if !ok {
		return civil.DateOf(now)
	}

	switch {
	case ledgerDateShape.MatchString(s):
		if t, err := time.Parse(LedgerDateLayout, s); err == nil {
			return civil.DateOf(t)
		}
	case isoDateShape.MatchString(s):
		if d, err := civil.ParseDate(s); err == nil {
			return d
		}
	}
	return civil.DateOf(now)
}

// FormatLedgerDate renders d as DD/MM/YYYY.
func FormatLedgerDate(d civil.Date) string {
	return d.In(time.UTC).Format(LedgerDateLayout)
}
