package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"immistat/internal/core"
	ports "immistat/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	recordsSheet  string
	summarySheet  string
}

// Ensure interface conformance
var (
	_ ports.Exporter      = (*Client)(nil)
	_ ports.RecordsReader = (*Client)(nil)
)

// Config selects the spreadsheet and its tabs. Credentials come from
// CredentialsJSON, CredentialsFile or GOOGLE_APPLICATION_CREDENTIALS, in
// that order.
type Config struct {
	SpreadsheetID   string
	RecordsSheet    string
	SummarySheet    string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	if len(opts) == 0 {
		creds, err := loadCredentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		recordsSheet:  defaultName(cfg.RecordsSheet, "Records"),
		summarySheet:  defaultName(cfg.SummarySheet, "Summary"),
	}, nil
}

func defaultName(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func loadCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportRecords clears the records sheet and writes the header plus one row
// per record, newest first.
func (c *Client) ExportRecords(ctx context.Context, records []core.Record) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.replace(ctx, c.recordsSheet, recordRows(records)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Exported records to sheet", "sheet", c.recordsSheet, "count", len(records))
	return nil
}

// ExportSummary rewrites the summary sheet.
func (c *Client) ExportSummary(ctx context.Context, s core.Summary, asOf time.Time) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.replace(ctx, c.summarySheet, summaryRows(s, asOf)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Exported summary to sheet", "sheet", c.summarySheet, "population", s.TotalPop)
	return nil
}

// ReadRecords parses the records sheet back into records.
func (c *Client) ReadRecords(ctx context.Context) ([]core.Record, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:L", c.recordsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseRecordRows(resp.Values)
}

func (c *Client) replace(ctx context.Context, sheet string, rows [][]any) error {
	clearRange := fmt.Sprintf("%s!A:Z", sheet)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	dataRange := fmt.Sprintf("%s!A1", sheet)
	vr := &gsheet.ValueRange{Values: rows}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", dataRange, err)
	}
	return nil
}
