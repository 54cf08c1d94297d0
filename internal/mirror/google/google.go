// Package google mirrors transactions into a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"duit/internal/core"
	"duit/internal/mirror"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the credentials used to reach it.
// Exactly one of CredentialsFile or CredentialsJSON must be set.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ mirror.RowWriter = (*Client)(nil)

// Row layout: ID, Owner, Date, Description, Amount, Type, Category.
const rowSpan = "A:G"

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Ledger"
	}

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		credentialsJSON = data
	default:
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
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func (c *Client) UpsertTransaction(ctx context.Context, t core.Transaction, cat core.Category) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values := []any{
		strconv.FormatInt(t.ID, 10),
		strconv.FormatInt(t.Owner, 10),
		t.Date.String(),
		t.Description,
		t.Amount.String(),
		string(t.Kind),
		cat.Name,
	}

	row, err := c.findRow(ctx, t.Owner, t.ID)
	if err != nil {
		return err
	}

	if row == 0 {
		rng := fmt.Sprintf("%s!%s", c.sheetName, rowSpan)
		vr := &gsheet.ValueRange{Values: [][]any{values}}
		_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("append row to sheet %s: %w", c.sheetName, err)
		}
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:G%d", c.sheetName, row, row)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update row %d in sheet %s: %w", row, c.sheetName, err)
	}
	return nil
}

func (c *Client) RemoveTransaction(ctx context.Context, owner, id int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	row, err := c.findRow(ctx, owner, id)
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
	return nil
}

// findRow returns the 1-based sheet row holding the transaction, or 0 when
// no row matches.
func (c *Client) findRow(ctx context.Context, owner, id int64) (int, error) {
	rng := fmt.Sprintf("%s!A:B", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read sheet %s: %w", c.sheetName, err)
	}

	wantID := strconv.FormatInt(id, 10)
	wantOwner := strconv.FormatInt(owner, 10)
	for i, row := range resp.Values {
		if len(row) < 2 {
			continue
		}
		gotID, ok1 := row[0].(string)
		gotOwner, ok2 := row[1].(string)
		if !ok1 || !ok2 {
			continue
		}
		if strings.TrimSpace(gotID) == wantID && strings.TrimSpace(gotOwner) == wantOwner {
			return i + 1, nil
		}
	}
	return 0, nil
}
