package domain

// NoDescription is written to the ledger when the user did not add a note after the payer marker.
const NoDescription = "Không có mô tả người dùng"

// PayerTag identifies which household member a transaction belongs to.
type PayerTag int

const (
	PayerUnknown PayerTag = iota
	PayerPartyA
	PayerPartyB
)

// String returns the bookkeeping label of the tag.
func (p PayerTag) String() string {
	switch p {
	case PayerPartyA:
		return "PartyA"
	case PayerPartyB:
		return "PartyB"
	default:
		return "Unknown"
	}
}

// Direction is the ledger label for the money flow of a transaction.
type Direction string

const (
	DirectionInflow  Direction = "Thu"
	DirectionOutflow Direction = "Chi"
)

// IsCanonical reports whether d is one of the two ledger labels.
func (d Direction) IsCanonical() bool {
	return d == DirectionInflow || d == DirectionOutflow
}

// SegmentedMessage is a chat message split around the payer marker.
type SegmentedMessage struct {
	BankStatement   string
	UserDescription string
	Payer           PayerTag
}

// LedgerRecord is one normalized row, ready for the ledger sink.
// It is never mutated after it has been built.
type LedgerRecord struct {
	Date        string // DD/MM/YYYY
	Direction   Direction
	Amount      int64 // magnitude, never negative
	Description string
	Payer       PayerTag
}

// PayerLabels maps payer tags to the text written in the ledger's payer column.
type PayerLabels map[PayerTag]string

// Label returns the configured label for p, falling back to the tag name.
func (l PayerLabels) Label(p PayerTag) string {
	if s, ok := l[p]; ok && s != "" {
		return s
	}
	return p.String()
}

// Row returns the ordered ledger columns: date, direction, amount, description, payer.
func (r LedgerRecord) Row(labels PayerLabels) []interface{} {
	return []interface{}{
		r.Date,
		string(r.Direction),
		r.Amount,
		r.Description,
		labels.Label(r.Payer),
	}
}
