package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/monitoring"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps an error kind to its HTTP status.
func statusOf(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	d := errorDetail{Kind: apperr.KindOf(err).String(), Code: apperr.CodeOf(err), Message: err.Error()}
	if status == http.StatusInternalServerError {
		monitoring.CaptureUnexpected(err, map[string]string{
			"route":      r.Method + " " + r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		})
		d.Message = "internal error"
	}
	writeJSON(w, status, errorBody{Error: d})
}

func invalid(op, format string, args ...any) error {
	return apperr.Validation(op, apperr.CodeInvalidInput, format, args...)
}

// decode reads a JSON body, rejecting unknown fields.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return invalid("api.decode", "request body is required")
		}
		return invalid("api.decode", "malformed body: %v", err)
	}
	return nil
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid("api.id", "invalid id %q", raw)
	}
	return id, nil
}

// dateQuery parses a YYYY-MM-DD query parameter, returning def when absent.
func dateQuery(r *http.Request, name string, def model.Date) (model.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return model.Date{}, invalid("api.query", "%s: %v", name, err)
	}
	return d, nil
}

func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalid("api.query", "%s: %q is not a number", name, raw)
	}
	return n, nil
}

func boolQuery(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// dateBody is the body of endpoints taking a single date.
type dateBody struct {
	Date model.Date `json:"date"`
	End  model.Date `json:"end"`
}

func today(loc *time.Location) model.Date { return model.Today(loc) }
