// Package google appends audit rows to a Google spreadsheet using a service
// account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cartera/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ sheets.AuditAppender = (*Client)(nil)

// New creates a sheets client for the given spreadsheet and tab using inline
// service account credentials.
func New(ctx context.Context, spreadsheetID, sheetName string, credentialsJSON []byte) (*Client, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if sheetName == "" {
		return nil, errors.New("missing sheet name")
	}
	if len(credentialsJSON) == 0 {
		return nil, errors.New("missing service account credentials")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// NewFromEnv creates a sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID, GOOGLE_SHEET_NAME.
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Ledger Audit"
	}

	credentialsJSON, err := resolveCredentials()
	if err != nil {
		return nil, err
	}
	return New(ctx, spreadsheetID, sheetName, credentialsJSON)
}

func resolveCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}

	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// Append writes one audit row to the end of the sheet and returns the updated
// range as the row reference.
func (c *Client) Append(ctx context.Context, row sheets.AuditRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	ts := row.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	amount := float64(row.AmountCents) / 100.0

	vr := &gsheet.ValueRange{Values: [][]any{{
		ts.Format(time.RFC3339),
		row.Event,
		row.Entity,
		row.EntityID,
		row.Wallet,
		row.Month,
		amount,
		row.Description,
	}}}

	rng := fmt.Sprintf("%s!A:H", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append audit row to %s: %w", c.sheetName, err)
	}

	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}
