package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"immistat/internal/core"
	applog "immistat/internal/log"
)

type apiTownship struct {
	Name       string `json:"name"`
	Population int64  `json:"population"`
	BarPercent int64  `json:"bar_percent"`
}

type apiSummary struct {
	RecordCount    int           `json:"record_count"`
	TotalHousehold int64         `json:"total_household"`
	TotalPop       int64         `json:"total_pop"`
	TotalMale      int64         `json:"total_male"`
	TotalFemale    int64         `json:"total_female"`
	TotalSmartCard int64         `json:"total_smart_card"`
	TotalRevenue   int64         `json:"total_revenue"`
	TotalTaang     int64         `json:"total_taang"`
	TotalShan      int64         `json:"total_shan"`
	TotalBamar     int64         `json:"total_bamar"`
	MaxTownshipPop int64         `json:"max_township_pop"`
	Townships      []apiTownship `json:"townships"`
}

func newAPISummary(s core.Summary) apiSummary {
	out := apiSummary{
		RecordCount:    s.RecordCount,
		TotalHousehold: s.TotalHousehold,
		TotalPop:       s.TotalPop,
		TotalMale:      s.TotalMale,
		TotalFemale:    s.TotalFemale,
		TotalSmartCard: s.TotalSmartCard,
		TotalRevenue:   s.TotalRevenue,
		TotalTaang:     s.TotalTaang,
		TotalShan:      s.TotalShan,
		TotalBamar:     s.TotalBamar,
		MaxTownshipPop: s.MaxTownshipPop,
		Townships:      make([]apiTownship, 0, len(s.Townships)),
	}
	for _, t := range s.Townships {
		out.Townships = append(out.Townships, apiTownship(t))
	}
	return out
}

type apiRecordList struct {
	Records []core.Record `json:"records"`
	Total   int           `json:"total"`
	State   string        `json:"state"`
}

func (s *Server) handleAPIListRecords(w http.ResponseWriter, r *http.Request) {
	view := s.records.List(queryFromValues(r.URL.Query()))
	writeJSON(w, http.StatusOK, apiRecordList{
		Records: view.Records,
		Total:   view.Total,
		State:   view.State.String(),
	})
}

// handleAPICreateRecord accepts the same fields as the form. Counts may be
// JSON numbers or strings and are coerced like form input.
func (s *Server) handleAPICreateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	var in core.FormInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := s.records.Create(ctx, in)
	if err != nil {
		applog.NewStructuredLogger(logger).LogError(ctx, "Record save failed", err,
			applog.ComponentRecords, applog.OpCreate, applog.NewFields().WithRecordID(rec.ID))
		writeJSONError(w, http.StatusInternalServerError, "record could not be saved")
		return
	}
	applog.NewStructuredLogger(logger).LogRecordCreated(ctx, rec)
	if s.metrics != nil {
		s.metrics.RecordCreated()
	}
	s.refreshMetrics()

	writeJSON(w, http.StatusCreated, rec)
}

// handleAPIDeleteRecord needs ?confirm=yes; without it nothing changes and
// 409 is returned.
func (s *Server) handleAPIDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.deleteRecord(w, r, id, confirmerFor(r.URL.Query().Get("confirm"))) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newAPISummary(s.records.Summary()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// wantsJSON reports whether r came through the JSON API.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}
