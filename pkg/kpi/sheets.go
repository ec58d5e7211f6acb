package kpi

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultRange is the cell range holding metrics and targets
const DefaultRange = "data!A1:Z100"

// ValuesReader reads a cell range as rows of strings
type ValuesReader interface {
	ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
}

// SheetsReader reads ranges through the Google Sheets API
type SheetsReader struct {
	svc *sheets.Service
}

// CredentialsFile loads service account or authorized user credentials
// from a JSON file with read-only spreadsheet scope
func CredentialsFile(ctx context.Context, path string) (option.ClientOption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kpi: failed to read credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("kpi: failed to parse credentials: %w", err)
	}
	return option.WithCredentials(creds), nil
}

// NewSheetsReader creates a reader. Pass CredentialsFile's option, or an
// endpoint and HTTP client for tests.
func NewSheetsReader(ctx context.Context, opts ...option.ClientOption) (*SheetsReader, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("kpi: failed to create sheets service: %w", err)
	}
	return &SheetsReader{svc: svc}, nil
}

// ReadRange implements ValuesReader
func (r *SheetsReader) ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	resp, err := r.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("kpi: failed to read %s: %w", rng, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
