// Package google exports records to a Google Sheets spreadsheet using
// Service Account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tally/internal/core"
	"tally/internal/export"
)

const timeLayout = time.RFC3339

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ export.RecordExporter = (*Client)(nil)

// NewFromEnv creates a Sheets exporter using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Transactions")
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// rowFor builds the sheet row for a record. Column A holds the record
// ID so later upserts and deletes can find the row again.
func rowFor(t core.Transaction) []any {
	return []any{
		t.ID,
		string(t.Kind),
		t.Title,
		t.Category,
		t.Amount.Units(),
		t.CreatedAt.UTC().Format(timeLayout),
		t.UpdatedAt.UTC().Format(timeLayout),
	}
}

// UpsertRecord rewrites the record's row if one exists, otherwise
// appends a new one.
func (c *Client) UpsertRecord(ctx context.Context, t core.Transaction) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row, err := c.findRow(ctx, t.ID)
	if err != nil {
		return err
	}

	vr := &gsheet.ValueRange{Values: [][]any{rowFor(t)}}
	if row > 0 {
		rng := fmt.Sprintf("%s!A%d:G%d", c.sheetName, row, row)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update row %d in sheet %s: %w", row, c.sheetName, err)
		}
	} else {
		rng := fmt.Sprintf("%s!A:G", c.sheetName)
		_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
		}
	}

	slog.InfoContext(ctx, "Exported record to sheet",
		"transaction_id", t.ID,
		"sheet", c.sheetName,
		"updated_existing", row > 0)
	return nil
}

// DeleteRecord clears the record's row. A record that was never
// exported is skipped silently.
func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row, err := c.findRow(ctx, id)
	if err != nil {
		return err
	}
	if row == 0 {
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:G%d", c.sheetName, row, row)
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear row %d in sheet %s: %w", row, c.sheetName, err)
	}

	slog.InfoContext(ctx, "Removed record from sheet",
		"transaction_id", id,
		"sheet", c.sheetName)
	return nil
}

// findRow returns the 1-based row holding the ID in column A, or 0
// when the ID is not present.
func (c *Client) findRow(ctx context.Context, id string) (int, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read ids from sheet %s: %w", c.sheetName, err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1, nil
		}
	}
	return 0, nil
}
