package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"immistat/internal/core"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"male": 12, "female": "15", "township": "မန်တုံ", "flag": true}`
	req := httptest.NewRequest(http.MethodPost, "/entry/preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if got := parser.Get("male"); got != "12" {
		t.Errorf("Get('male') = %q, want '12'", got)
	}
	if got := parser.Get("female"); got != "15" {
		t.Errorf("Get('female') = %q, want '15'", got)
	}
	if got := parser.Get("township"); got != "မန်တုံ" {
		t.Errorf("Get('township') = %q", got)
	}
	if got := parser.Get("missing"); got != "" {
		t.Errorf("Get('missing') = %q, want empty", got)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "male=3&female=4&date=2025-01-01&township=%E1%80%99%E1%80%94%E1%80%BA%E1%80%90%E1%80%AF%E1%80%B6"
	req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}

	in := formInputFromParser(parser)
	if in.Township != "မန်တုံ" || in.Male.Value() != 3 || in.Female.Value() != 4 || in.Date != "2025-01-01" {
		t.Errorf("unexpected form input %+v", in)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/entry/preview", strings.NewReader(""))

	parser := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_BadJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/entry/preview", strings.NewReader(`{"male":`))

	parser := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := parser.Parse(); err == nil {
		t.Fatal("expected parse error")
	}
	// Parse is idempotent.
	if err := parser.Parse(); err == nil {
		t.Fatal("expected cached parse error")
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello  ", "hello"},
		{"a\x00b\x07c", "abc"},
		{"line\nbreak", "line\nbreak"},
		{"နမ့်ဆန်", "နမ့်ဆန်"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQueryFromValues(t *testing.T) {
	tests := []struct {
		name string
		in   url.Values
		want core.Query
	}{
		{"empty means all", url.Values{}, core.Query{Township: core.AllTownships}},
		{"trimmed search", url.Values{"q": {"  ရှမ်း "}}, core.Query{Search: "ရှမ်း", Township: core.AllTownships}},
		{"township", url.Values{"township": {"မန်တုံ"}}, core.Query{Township: "မန်တုံ"}},
		{"whitespace-only search is no search", url.Values{"q": {"   "}, "township": {" "}}, core.Query{Township: core.AllTownships}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := queryFromValues(tt.in); got != tt.want {
				t.Errorf("queryFromValues() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFormatKyat(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 Ks"},
		{10000, "10,000 Ks"},
		{350000, "350,000 Ks"},
		{1234567890, "1,234,567,890 Ks"},
	}
	for _, tt := range tests {
		if got := formatKyat(tt.in); got != tt.want {
			t.Errorf("formatKyat(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
