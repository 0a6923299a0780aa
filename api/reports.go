package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/fleetops/core/agenda"
	"github.com/kilianp07/fleetops/core/deviation"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/pkg/export"
)

func (h *handler) deviationDaily(w http.ResponseWriter, r *http.Request) {
	date, err := dateQuery(r, "date", h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := deviation.NewAnalyzer(h.svc.Store).Daily(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) deviationWeekly(w http.ResponseWriter, r *http.Request) {
	date, err := dateQuery(r, "date", h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := deviation.NewAnalyzer(h.svc.Store).Weekly(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) agenda(w http.ResponseWriter, r *http.Request) {
	from, to := h.today().Week()
	var err error
	if from, err = dateQuery(r, "from", from); err != nil {
		h.fail(w, r, err)
		return
	}
	if to, err = dateQuery(r, "to", to); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := agenda.Items(r.Context(), h.svc.Store, from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.fail(w, r, invalid("api.export", "%v", err))
		return
	}
	date, err := dateQuery(r, "date", h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	known := false
	for _, k := range export.Kinds {
		known = known || k == kind
	}
	if !known {
		h.fail(w, r, invalid("api.export", "unknown export %q", kind))
		return
	}
	tbl, err := export.Build(r.Context(), h.svc.Store, kind, date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s-%s.%s"`, kind, date.WeekStart(), format))
	if err := export.Write(w, format, tbl); err != nil {
		h.log.Errorf("export %s: %v", kind, err)
	}
}

func (h *handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Templates.List(r.Context(), boolQuery(r, "all"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) createTemplate(w http.ResponseWriter, r *http.Request) {
	var t model.Template
	if err := decode(r, &t); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.svc.Templates.Create(r.Context(), t, actorOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.svc.Templates.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) deactivateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Templates.Deactivate(r.Context(), id, actorOf(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
