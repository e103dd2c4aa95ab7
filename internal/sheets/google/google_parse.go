package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"immistat/internal/core"
)

// RecordsHeader is the first row of the records sheet. Column order is the
// row layout used by recordRows and parseRecordRows.
var RecordsHeader = []string{
	"ID", "Date", "Township", "Household", "Male", "Female", "Total",
	"Smart Card", "Taang", "Shan", "Bamar", "Revenue",
}

func recordRows(records []core.Record) [][]any {
	rows := make([][]any, 0, len(records)+1)
	header := make([]any, len(RecordsHeader))
	for i, h := range RecordsHeader {
		header[i] = h
	}
	rows = append(rows, header)
	for _, r := range records {
		rows = append(rows, []any{
			strconv.FormatInt(r.ID, 10), // as text so large ids keep their digits
			r.Date,
			r.Township,
			r.Household,
			r.Male,
			r.Female,
			r.Population(),
			r.SmartCard,
			r.Taang,
			r.Shan,
			r.Bamar,
			r.Revenue,
		})
	}
	return rows
}

func summaryRows(s core.Summary, asOf time.Time) [][]any {
	rows := [][]any{
		{"Metric", "Value"},
		{"Updated", asOf.Format(time.RFC3339)},
		{"Records", s.RecordCount},
		{"Households", s.TotalHousehold},
		{"Population", s.TotalPop},
		{"Male", s.TotalMale},
		{"Female", s.TotalFemale},
		{"Smart Cards", s.TotalSmartCard},
		{"Revenue (Ks)", s.TotalRevenue},
		{"Taang", s.TotalTaang},
		{"Shan", s.TotalShan},
		{"Bamar", s.TotalBamar},
		{"", ""},
		{"Township", "Population"},
	}
	for _, t := range s.Townships {
		rows = append(rows, []any{t.Name, t.Population})
	}
	return rows
}

// parseRecordRows converts a values matrix read from the records sheet back
// into records. The header row and rows without a numeric id are skipped.
func parseRecordRows(values [][]any) ([]core.Record, error) {
	if len(values) == 0 {
		return []core.Record{}, nil
	}
	headers := toStrings(values[0])
	for i, want := range RecordsHeader {
		if !strings.EqualFold(safeGet(headers, i), want) {
			return nil, fmt.Errorf("unexpected records header: column %d is %q, want %q", i+1, safeGet(headers, i), want)
		}
	}

	out := make([]core.Record, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := toStrings(raw)
		id, err := strconv.ParseInt(safeGet(row, 0), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, core.Record{
			ID:        id,
			Date:      safeGet(row, 1),
			Township:  safeGet(row, 2),
			Household: core.ParseCount(safeGet(row, 3)),
			Male:      core.ParseCount(safeGet(row, 4)),
			Female:    core.ParseCount(safeGet(row, 5)),
			SmartCard: core.ParseCount(safeGet(row, 7)),
			Taang:     core.ParseCount(safeGet(row, 8)),
			Shan:      core.ParseCount(safeGet(row, 9)),
			Bamar:     core.ParseCount(safeGet(row, 10)),
			Revenue:   core.ParseCount(strings.ReplaceAll(safeGet(row, 11), ",", "")),
		})
	}
	return out, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			// Unformatted numbers arrive as float64; avoid exponent notation.
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
