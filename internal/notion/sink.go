// Package notion appends ledger rows as pages of a Notion database.
package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"
)

// Database property names. The database must define them with these types.
const (
	PropDescription = "Description" // title
	PropDate        = "Date"        // date
	PropDirection   = "Direction"   // select
	PropAmount      = "Amount"      // number
	PropPayer       = "Payer"       // select
)

const rowDateLayout = "02/01/2006"

// Sink implements pipeline.LedgerSink, one page per row.
type Sink struct {
	pages      PageService
	databaseID string
}

// NewSink checks that the database is reachable and returns a Sink writing to it.
func NewSink(ctx context.Context, pages PageService, databaseID string) (*Sink, error) {
	if _, err := pages.GetDatabase(ctx, databaseID); err != nil {
		return nil, fmt.Errorf("NewSink: opening database %s: %w", databaseID, err)
	}
	return &Sink{pages: pages, databaseID: databaseID}, nil
}

// AppendRow creates one page from [date, direction, amount, description, payer].
func (s *Sink) AppendRow(ctx context.Context, row []interface{}) error {
	props, err := RowToProperties(row)
	if err != nil {
		return fmt.Errorf("AppendRow: %w", err)
	}
	if _, err := s.pages.CreatePage(ctx, s.databaseID, props); err != nil {
		return fmt.Errorf("AppendRow: %w", err)
	}
	return nil
}

// RowToProperties maps a ledger row to Notion page properties.
func RowToProperties(row []interface{}) (notionapi.Properties, error) {
	if len(row) != 5 {
		return nil, fmt.Errorf("RowToProperties: expected 5 columns, got %d", len(row))
	}

	dateStr := fmt.Sprint(row[0])
	day, err := time.Parse(rowDateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("RowToProperties: parsing date %q: %w", dateStr, err)
	}

	amount, ok := row[2].(int64)
	if !ok {
		return nil, fmt.Errorf("RowToProperties: amount has type %T, want int64", row[2])
	}

	date := notionapi.Date(day)
	props := notionapi.Properties{
		PropDescription: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: fmt.Sprint(row[3]),
					},
				},
			},
		},
		PropDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: &date,
			},
		},
		PropAmount: notionapi.NumberProperty{
			Number: float64(amount),
		},
	}

	// Notion rejects select options with an empty name.
	if dir := fmt.Sprint(row[1]); dir != "" {
		props[PropDirection] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: dir},
		}
	}
	if payer := fmt.Sprint(row[4]); payer != "" {
		props[PropPayer] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: payer},
		}
	}

	return props, nil
}
