// Package segment splits a pasted bank notification from the note the user typed after it.
//
// A message looks like "<bank notification> H. <note>", where the single letter before the
// period names the household member who paid. The letters form a closed alphabet held in a
// marker table, so adding a payer is a table change.
package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dvloznov/household-ledger/internal/domain"
)

// MinStatementLength is the shortest statement, in runes, that is treated as a bank notification.
const MinStatementLength = 15

// Marker binds a marker letter to the payer it denotes. Letters match case-insensitively.
type Marker struct {
	Letter rune
	Payer  domain.PayerTag
}

// DefaultMarkers is the household's marker alphabet: H. and L.
var DefaultMarkers = []Marker{
	{Letter: 'H', Payer: domain.PayerPartyA},
	{Letter: 'L', Payer: domain.PayerPartyB},
}

// Segmenter splits messages using a fixed marker table.
type Segmenter struct {
	payers map[rune]domain.PayerTag
}

// New builds a Segmenter from a marker table.
func New(markers []Marker) *Segmenter {
	payers := make(map[rune]domain.PayerTag, len(markers))
	for _, m := range markers {
		payers[unicode.ToUpper(m.Letter)] = m.Payer
	}
	return &Segmenter{payers: payers}
}

var defaultSegmenter = New(DefaultMarkers)

// Segment splits raw using DefaultMarkers.
func Segment(raw string) domain.SegmentedMessage {
	return defaultSegmenter.Segment(raw)
}

// Segment finds the first marker (letter from the table followed by '.') and splits raw around it.
// Without a marker the whole trimmed text is the statement and the payer is unknown.
func (s *Segmenter) Segment(raw string) domain.SegmentedMessage {
	text := strings.TrimSpace(raw)

	start, payer, ok := s.findMarker(text)
	if !ok {
		return domain.SegmentedMessage{
			BankStatement:   text,
			UserDescription: domain.NoDescription,
			Payer:           domain.PayerUnknown,
		}
	}

	// marker letter plus the period
	_, letterWidth := utf8.DecodeRuneInString(text[start:])
	rest := text[start+letterWidth+1:]

	desc := strings.TrimSpace(rest)
	if desc == "" {
		desc = domain.NoDescription
	}

	return domain.SegmentedMessage{
		BankStatement:   strings.TrimSpace(text[:start]),
		UserDescription: desc,
		Payer:           payer,
	}
}

// findMarker returns the byte offset of the first marker letter in text.
func (s *Segmenter) findMarker(text string) (int, domain.PayerTag, bool) {
	for i, r := range text {
		payer, known := s.payers[unicode.ToUpper(r)]
		if !known {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next < len(text) && text[next] == '.' {
			return i, payer, true
		}
	}
	return 0, domain.PayerUnknown, false
}

// LooksLikeStatement reports whether a statement is long enough to be a bank notification.
// Shorter messages are chatter and never reach the pipeline.
func LooksLikeStatement(statement string) bool {
	return utf8.RuneCountInString(statement) >= MinStatementLength
}
