// Package sheets publishes query results to Google Sheets worksheets.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/stellans/sheetsync/pkg/config"
	"github.com/stellans/sheetsync/pkg/errors"
	"github.com/stellans/sheetsync/pkg/logger"
)

// scopes is the fixed capability grant requested for the service account.
var scopes = []string{
	"https://www.googleapis.com/auth/documents.readonly",
	"https://mail.google.com/",
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/presentations",
}

// Grid is the tabular shape the publisher consumes: a rectangular cell grid
// with the header row first.
type Grid interface {
	Grid() [][]any
}

// Publisher writes tables into Google Sheets worksheets using the full
// replacement strategy: clear the tab, write the grid, apply freeze panes.
type Publisher struct {
	svc *sheets.Service
	log *zap.Logger
}

// New authenticates with a service-account key file and returns a Publisher.
func New(ctx context.Context, credentialFile string) (*Publisher, error) {
	if err := validateCredentialFile(credentialFile); err != nil {
		return nil, err
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialFile),
		option.WithScopes(scopes...))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeAuthentication, "failed to create Sheets client")
	}

	return NewWithService(svc), nil
}

// NewWithService wraps an already constructed Sheets service.
func NewWithService(svc *sheets.Service) *Publisher {
	return &Publisher{
		svc: svc,
		log: logger.With(zap.String("component", "sheet-publisher")),
	}
}

// Publish replaces the contents of one worksheet with the table. Each step
// is a hard precondition for the next; there is no rollback if a later step
// fails after the tab has been cleared.
func (p *Publisher) Publish(ctx context.Context, workbookID, worksheetName string, table Grid, freeze config.Freeze) error {
	spreadsheet, err := p.svc.Spreadsheets.Get(workbookID).Context(ctx).Do()
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeNotFound, "failed to open spreadsheet").
			WithDetail("workbook_id", workbookID)
	}

	sheet, err := findWorksheet(spreadsheet, worksheetName)
	if err != nil {
		return err
	}

	tabRange := quoteRange(worksheetName)

	if _, err := p.svc.Spreadsheets.Values.Clear(workbookID, tabRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to clear worksheet").
			WithDetail("worksheet", worksheetName)
	}

	grid := table.Grid()
	values := &sheets.ValueRange{
		Range:  tabRange + "!A1",
		Values: grid,
	}

	if _, err := p.svc.Spreadsheets.Values.Update(workbookID, values.Range, values).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to write worksheet").
			WithDetail("worksheet", worksheetName)
	}

	if err := p.applyFreeze(ctx, workbookID, sheet.Properties.SheetId, freeze); err != nil {
		return err
	}

	p.log.Info("worksheet updated",
		zap.String("worksheet", worksheetName),
		zap.Int("rows", len(grid)-1))

	return nil
}

// applyFreeze freezes the leading rows and columns of the worksheet.
func (p *Publisher) applyFreeze(ctx context.Context, workbookID string, sheetID int64, freeze config.Freeze) error {
	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId: sheetID,
						GridProperties: &sheets.GridProperties{
							FrozenRowCount:    int64(freeze.Rows()),
							FrozenColumnCount: int64(freeze.Cols()),
							ForceSendFields:   []string{"FrozenRowCount", "FrozenColumnCount"},
						},
					},
					Fields: "gridProperties.frozenRowCount,gridProperties.frozenColumnCount",
				},
			},
		},
	}

	if _, err := p.svc.Spreadsheets.BatchUpdate(workbookID, &rq).Context(ctx).Do(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to apply freeze panes")
	}

	return nil
}

// findWorksheet locates a sheet by exact title match. Missing worksheets are
// an error, never created implicitly.
func findWorksheet(spreadsheet *sheets.Spreadsheet, name string) (*sheets.Sheet, error) {
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == name {
			return sheet, nil
		}
	}

	return nil, errors.New(errors.ErrorTypeNotFound,
		fmt.Sprintf("worksheet %q not found in spreadsheet", name))
}

// quoteRange quotes a worksheet title for use in an A1 range.
func quoteRange(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// validateCredentialFile checks that the service-account key file exists and
// is well-formed JSON before any network call is made.
func validateCredentialFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeAuthentication, "failed to read credential file").
			WithDetail("path", path)
	}

	if !json.Valid(data) {
		return errors.New(errors.ErrorTypeAuthentication, "credential file is not valid JSON").
			WithDetail("path", path)
	}

	return nil
}
