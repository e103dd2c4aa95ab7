package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"immistat/internal/core"

	goption "google.golang.org/api/option"
)

// fakeSheets records every values call and serves stored rows back.
type fakeSheets struct {
	mu     sync.Mutex
	calls  []string
	values map[string][][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	f.calls = append(f.calls, r.Method+" "+path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		sheet := sheetOf(path)
		delete(f.values, sheet)
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodPut:
		var body struct {
			Values [][]any `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.values[sheetOf(path)] = body.Values
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.values[sheetOf(path)]})
	default:
		http.Error(w, "unexpected", http.StatusNotImplemented)
	}
}

func sheetOf(path string) string {
	i := strings.Index(path, "/values/")
	rest := path[i+len("/values/"):]
	if j := strings.Index(rest, "!"); j >= 0 {
		return rest[:j]
	}
	return rest
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{values: map[string][][]any{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, fake
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExportRecordsRoundTrip(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	if err := c.ExportRecords(ctx, core.SeedRecords()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := len(fake.values["Records"]); got != 4 {
		t.Fatalf("rows written = %d, want header + 3", got)
	}
	if len(fake.calls) != 2 || !strings.HasPrefix(fake.calls[0], "POST") || !strings.HasPrefix(fake.calls[1], "PUT") {
		t.Fatalf("expected clear then update, got %v", fake.calls)
	}

	back, err := c.ReadRecords(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	seed := core.SeedRecords()
	if len(back) != len(seed) {
		t.Fatalf("read %d records, want %d", len(back), len(seed))
	}
	for i := range seed {
		if back[i] != seed[i] {
			t.Fatalf("record %d = %+v, want %+v", i, back[i], seed[i])
		}
	}
}

func TestExportSummary(t *testing.T) {
	c, fake := newTestClient(t)
	asOf := time.Date(2025, 12, 17, 20, 0, 0, 0, time.UTC)

	if err := c.ExportSummary(context.Background(), core.Aggregate(core.SeedRecords()), asOf); err != nil {
		t.Fatalf("export summary: %v", err)
	}
	rows := fake.values["Summary"]
	if len(rows) == 0 {
		t.Fatal("summary sheet not written")
	}
	found := false
	for _, row := range rows {
		if len(row) == 2 && row[0] == "Population" && row[1] == float64(99) {
			found = true
		}
	}
	if !found {
		t.Fatalf("population row missing: %v", rows)
	}
}

func TestParseRecordRows(t *testing.T) {
	header := make([]any, len(RecordsHeader))
	for i, h := range RecordsHeader {
		header[i] = h
	}

	t.Run("skips rows without id", func(t *testing.T) {
		values := [][]any{
			header,
			{"7", "2025-12-16", "မန်တုံ", "1", "2", "3", "5", "1", "0", "0", "0", "10,000"},
			{"", "total"},
			{"x", "2025-12-16"},
		}
		got, err := parseRecordRows(values)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if len(got) != 1 || got[0].ID != 7 || got[0].Revenue != 10000 || got[0].Population() != 5 {
			t.Fatalf("unexpected records %+v", got)
		}
	})

	t.Run("rejects unexpected header", func(t *testing.T) {
		_, err := parseRecordRows([][]any{{"Month", "Day"}})
		if err == nil || !strings.Contains(err.Error(), "unexpected records header") {
			t.Fatalf("expected header error, got %v", err)
		}
	})

	t.Run("empty sheet", func(t *testing.T) {
		got, err := parseRecordRows(nil)
		if err != nil || len(got) != 0 {
			t.Fatalf("got %v, %v", got, err)
		}
	})
}
