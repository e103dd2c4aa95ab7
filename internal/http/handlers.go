package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"immistat/internal/core"
	applog "immistat/internal/log"
	"immistat/internal/services"
)

// latestCount is how many records the dashboard lists.
const latestCount = 5

type pageData struct {
	Nav       string
	Role      string
	CanEdit   bool
	Today     string
	Townships []string
}

func (s *Server) page(nav string) pageData {
	return pageData{
		Nav:       nav,
		Role:      s.userRole,
		CanEdit:   s.userRole == RoleAdmin,
		Today:     time.Now().Format(core.DateLayout),
		Townships: core.Townships,
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"started":   humanize.Time(s.started),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.ready == nil {
		checks["storage"] = "ok"
	} else if err := s.ready(ctx); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleRateLimited answers a throttled mutation in the caller's format.
func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r), applog.FieldPath, r.URL.Path)
	const msg = "too many changes, please wait a minute and try again"
	if wantsJSON(r) {
		writeJSONError(w, http.StatusTooManyRequests, msg)
		return
	}
	ErrorResponse(http.StatusTooManyRequests, msg).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	all := s.records.Records()
	latest := all
	if len(latest) > latestCount {
		latest = latest[:latestCount]
	}

	data := struct {
		pageData
		Summary         core.Summary
		Latest          []core.Record
		PopulationToday int64
	}{
		pageData: s.page("dashboard"),
		Summary:  core.Aggregate(all),
		Latest:   latest,
	}
	data.PopulationToday = core.PopulationOn(all, data.Today)

	s.render(w, r, http.StatusOK, "dashboard.html", data)
}

func (s *Server) handleEntryForm(w http.ResponseWriter, r *http.Request) {
	data := struct {
		pageData
		DefaultTownship string
		Preview         core.Preview
	}{
		pageData:        s.page("entry"),
		DefaultTownship: core.DefaultTownship(),
	}
	s.render(w, r, http.StatusOK, "entry.html", data)
}

// handlePreview returns the derived population and revenue for the values
// currently typed into the form. Nothing is stored.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid form data").Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "preview", formInputFromParser(p).Preview())
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(ctx, "Parse form error", applog.FieldError, err)
		BadRequestError("invalid form data").Write(w)
		return
	}

	rec, err := s.records.Create(ctx, formInputFromParser(p))
	if err != nil {
		applog.NewStructuredLogger(logger).LogError(ctx, "Record save failed", err,
			applog.ComponentRecords, applog.OpCreate, applog.NewFields().WithRecordID(rec.ID))
		InternalServerError("record could not be saved").Write(w)
		return
	}
	applog.NewStructuredLogger(logger).LogRecordCreated(ctx, rec)
	if s.metrics != nil {
		s.metrics.RecordCreated()
	}
	s.refreshMetrics()

	if isPartialRequest(r) {
		NewHTMXResponse().
			TriggerRecordCreated(rec.ID).
			TriggerSuccessNotification("စာရင်းသိမ်းဆည်းပြီးပါပြီ (Saved Successfully)").
			Redirect("/records").
			Write(w)
		return
	}
	http.Redirect(w, r, "/records", http.StatusSeeOther)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	view := s.records.List(queryFromValues(r.URL.Query()))
	data := struct {
		pageData
		View services.ListView
	}{
		pageData: s.page("records"),
		View:     view,
	}

	if isPartialRequest(r) {
		s.render(w, r, http.StatusOK, "record_rows", data)
		return
	}
	s.render(w, r, http.StatusOK, "records.html", data)
}

func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rec, ok := s.records.Get(id)
	if !ok {
		NotFoundError("record not found").Write(w)
		return
	}

	data := struct {
		pageData
		Record core.Record
	}{
		pageData: s.page("records"),
		Record:   rec,
	}
	s.render(w, r, http.StatusOK, "confirm_delete.html", data)
}

// handleDeleteRecord applies the deletion only when the confirmation form
// answered confirm=yes. Any other answer returns to the list unchanged.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		BadRequestError("invalid form data").Write(w)
		return
	}

	if !s.deleteRecord(w, r, id, confirmerFor(r.Form.Get("confirm"))) {
		return
	}

	if isPartialRequest(r) {
		NewHTMXResponse().
			TriggerRecordDeleted(id).
			TriggerSuccessNotification("စာရင်းဖျက်ပြီးပါပြီ (Deleted)").
			Redirect("/records").
			Write(w)
		return
	}
	http.Redirect(w, r, "/records", http.StatusSeeOther)
}

// deleteRecord runs the confirmed delete and writes the failure response
// itself. It returns true when the caller should report success.
func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request, id int64, c services.Confirmer) bool {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	err := s.records.Delete(ctx, id, c)
	switch {
	case err == nil:
		logger.InfoContext(ctx, "Record deleted", applog.FieldRecordID, id, applog.FieldOperation, applog.OpDelete)
		if s.metrics != nil {
			s.metrics.RecordDeleted()
		}
		s.refreshMetrics()
		return true
	case errors.Is(err, services.ErrDeleteDeclined):
		logger.InfoContext(ctx, "Delete declined", applog.FieldRecordID, id)
		if wantsJSON(r) {
			writeJSONError(w, http.StatusConflict, err.Error())
		} else {
			http.Redirect(w, r, "/records", http.StatusSeeOther)
		}
	case errors.Is(err, services.ErrRecordNotFound):
		if wantsJSON(r) {
			writeJSONError(w, http.StatusNotFound, err.Error())
		} else {
			NotFoundError("record not found").Write(w)
		}
	default:
		applog.NewStructuredLogger(logger).LogError(ctx, "Record delete failed", err,
			applog.ComponentRecords, applog.OpDelete, applog.NewFields().WithRecordID(id))
		if wantsJSON(r) {
			writeJSONError(w, http.StatusInternalServerError, "record could not be deleted")
		} else {
			InternalServerError("record could not be deleted").Write(w)
		}
	}
	return false
}

func confirmerFor(answer string) services.Confirmer {
	if answer == "yes" {
		return services.Confirmed
	}
	return services.Declined
}
