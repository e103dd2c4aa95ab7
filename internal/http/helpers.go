package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"immistat/internal/core"
)

var errInvalidID = errors.New("invalid record id")

// formatKyat renders an amount with thousands separators, e.g. "350,000 Ks".
func formatKyat(amount int64) string {
	return humanize.Comma(amount) + " Ks"
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseRecordID reads the {id} path segment.
func parseRecordID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// queryFromValues builds the records filter from q and township parameters.
func queryFromValues(v url.Values) core.Query {
	q := core.Query{
		Search:   sanitizeInput(v.Get("q")),
		Township: sanitizeInput(v.Get("township")),
	}
	if q.Township == "" {
		q.Township = core.AllTownships
	}
	return q
}

// formInputFromParser collects the entry form fields. Counts are passed
// through raw; the builder coerces them.
func formInputFromParser(p *RequestBodyParser) core.FormInput {
	return core.FormInput{
		Date:      p.Get("date"),
		Township:  p.Get("township"),
		Household: core.RawCount(p.Get("household")),
		Male:      core.RawCount(p.Get("male")),
		Female:    core.RawCount(p.Get("female")),
		SmartCard: core.RawCount(p.Get("smart_card")),
		Taang:     core.RawCount(p.Get("taang")),
		Shan:      core.RawCount(p.Get("shan")),
		Bamar:     core.RawCount(p.Get("bamar")),
	}
}

// isPartialRequest reports whether the client asked for a fragment instead
// of a full page.
func isPartialRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
