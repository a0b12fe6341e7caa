// Package sheets appends ledger rows to a Google Sheets worksheet.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// Scopes needed to find the spreadsheet by name and append to it.
var Scopes = []string{sheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope}

// Target names the worksheet rows are appended to. SpreadsheetID wins over SpreadsheetName.
type Target struct {
	SpreadsheetID   string
	SpreadsheetName string
	Worksheet       string
}

// Sink implements pipeline.LedgerSink on a single worksheet.
type Sink struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

// Open authenticates with the service account JSON, resolves the spreadsheet and checks
// that the worksheet exists.
func Open(ctx context.Context, credentialsJSON []byte, target Target) (*Sink, error) {
	opts := []option.ClientOption{
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(Scopes...),
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("Open: create sheets service: %w", err)
	}

	id := target.SpreadsheetID
	if id == "" {
		driveSvc, err := drive.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("Open: create drive service: %w", err)
		}
		id, err = FindSpreadsheetID(ctx, driveSvc, target.SpreadsheetName)
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
	}

	return NewSink(ctx, svc, id, target.Worksheet)
}

// FindSpreadsheetID looks up a spreadsheet shared with the service account by its title.
// When several match, the most recently modified one is used.
func FindSpreadsheetID(ctx context.Context, svc *drive.Service, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("FindSpreadsheetID: empty spreadsheet name")
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(name), spreadsheetMimeType)
	list, err := svc.Files.List().
		Q(q).
		OrderBy("modifiedTime desc").
		PageSize(1).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("FindSpreadsheetID: listing files: %w", err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("FindSpreadsheetID: spreadsheet %q not found or not shared with the service account", name)
	}
	return list.Files[0].Id, nil
}

// NewSink verifies that worksheet exists in the spreadsheet and returns a Sink for it.
func NewSink(ctx context.Context, svc *sheets.Service, spreadsheetID, worksheet string) (*Sink, error) {
	ss, err := svc.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("NewSink: reading spreadsheet %s: %w", spreadsheetID, err)
	}

	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == worksheet {
			return &Sink{svc: svc, spreadsheetID: spreadsheetID, worksheet: worksheet}, nil
		}
	}
	return nil, fmt.Errorf("NewSink: worksheet %q not found in spreadsheet %s", worksheet, spreadsheetID)
}

// AppendRow appends one row after the last non-empty row. Values are stored as given.
func (s *Sink) AppendRow(ctx context.Context, row []interface{}) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{row}}

	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, a1Range(s.worksheet), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("AppendRow: appending to %s: %w", s.worksheet, err)
	}
	return nil
}

func a1Range(worksheet string) string {
	return "'" + strings.ReplaceAll(worksheet, "'", "''") + "'!A1"
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
