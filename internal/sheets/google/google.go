package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budget/internal/core"
	ports "budget/internal/sheets"
)

// Config selects the spreadsheet and the service account used to reach it.
// Inline JSON wins over the file path.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Client writes one tab per cycle into a single spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ ports.Sink = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID), nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test endpoint.
func NewWithService(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when cfg names none.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	pooled := newHTTPClientWithPooling()
	// Token requests go through the pooled transport as well.
	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, pooled)
	creds, err := googleauth.CredentialsFromJSON(tokenCtx, credentialsJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}

	authed := &http.Client{
		Transport: &oauth2.Transport{
			Base:   pooled.Transport,
			Source: oauth2.ReuseTokenSource(nil, creds.TokenSource),
		},
		Timeout: pooled.Timeout,
	}

	service, err := gsheet.NewService(ctx, goption.WithHTTPClient(authed))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "scope", gsheet.SpreadsheetsScope)
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling, timeouts and keep-alive.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// WriteCycle replaces the cycle's tab with a fresh rendering, creating the
// tab on first export.
func (c *Client) WriteCycle(ctx context.Context, e core.CycleExport) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	tab := ports.TabName(e.Username, e.Cycle.MonthKey)
	if _, err := c.ensureTab(ctx, tab); err != nil {
		return "", err
	}

	clearRng := fmt.Sprintf("'%s'!A:%s", tab, ports.ColumnName(ports.Width()))
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRng, err)
	}

	rows := ports.Render(e)
	ref := ports.RangeRef(tab, len(rows))
	vr := &gsheet.ValueRange{Values: toValues(rows)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, ref, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write %s: %w", ref, err)
	}

	slog.InfoContext(ctx, "Cycle exported to sheet",
		"tab", tab,
		"rows", len(rows),
		"transactions", len(e.Transactions))
	return ref, nil
}

// DeleteCycle removes the cycle's tab if present.
func (c *Client) DeleteCycle(ctx context.Context, username, monthKey string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	tab := ports.TabName(username, monthKey)
	id, ok, err := c.sheetID(ctx, tab)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteSheet: &gsheet.DeleteSheetRequest{
			SheetId:         id,
			ForceSendFields: []string{"SheetId"},
		},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete tab %q: %w", tab, err)
	}

	slog.InfoContext(ctx, "Cycle sheet deleted", "tab", tab)
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) (int64, error) {
	id, ok, err := c.sheetID(ctx, tab)
	if err != nil || ok {
		return id, err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
	}}}
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add tab %q: %w", tab, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add tab %q: empty reply", tab)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func (c *Client) sheetID(ctx context.Context, tab string) (int64, bool, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return sh.Properties.SheetId, true, nil
		}
	}
	return 0, false, nil
}

func toValues(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		row := make([]interface{}, len(r))
		for j, v := range r {
			row[j] = v
		}
		out[i] = row
	}
	return out
}
