package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/fleetops/core/availability"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

type availabilityView struct {
	ID        string              `json:"id"`
	Date      model.Date          `json:"date"`
	Available bool                `json:"available"`
	Reason    availability.Reason `json:"reason,omitempty"`
}

func (h *handler) driverAvailability(w http.ResponseWriter, r *http.Request) {
	h.availability(w, r, h.svc.Availability.Index().DriverUnavailability)
}

func (h *handler) tractorAvailability(w http.ResponseWriter, r *http.Request) {
	h.availability(w, r, h.svc.Availability.Index().TractorUnavailability)
}

func (h *handler) availability(w http.ResponseWriter, r *http.Request, check func(ctx context.Context, id string, d model.Date) (availability.Reason, error)) {
	date, err := dateQuery(r, "date", h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	reason, err := check(r.Context(), id, date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityView{ID: id, Date: date, Available: reason == "", Reason: reason})
}

func (h *handler) pool(w http.ResponseWriter, r *http.Request) {
	date, err := dateQuery(r, "date", h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.svc.Availability.DailyPool(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) restDays(w http.ResponseWriter, r *http.Request) {
	now := h.today()
	year, err := intQuery(r, "year", now.Year())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	month, err := intQuery(r, "month", int(now.Month()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if month < 1 || month > 12 {
		h.fail(w, r, invalid("api.rest_days", "month %d out of range", month))
		return
	}
	out, err := h.svc.Availability.RestDays(r.Context(), year, time.Month(month))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) looseTractors(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Availability.LooseTractors(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) startRest(w http.ResponseWriter, r *http.Request) {
	var req availability.RestRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Actor = actorOf(r)
	ev, err := h.svc.Availability.StartRest(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (h *handler) finishRest(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.svc.Availability.FinishRest)
}

func (h *handler) finishMaintenance(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.svc.Availability.FinishMaintenance)
}

func (h *handler) finish(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, model.Date, string) (model.ResourceEvent, error)) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var body dateBody
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	end := body.End
	if end.IsZero() {
		end = body.Date
	}
	ev, err := fn(r.Context(), id, end, actorOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *handler) startMaintenance(w http.ResponseWriter, r *http.Request) {
	var req availability.MaintenanceRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Actor = actorOf(r)
	ev, err := h.svc.Availability.StartMaintenance(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (h *handler) bindTractor(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TractorID *string `json:"tractor_id"`
	}
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	d, err := h.svc.Availability.BindTractor(r.Context(), chi.URLParam(r, "id"), body.TractorID, actorOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *handler) resourceEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.ResourceEventFilter{
		Kind:         model.ResourceEventKind(q.Get("kind")),
		ResourceKind: model.ResourceKind(q.Get("resource_kind")),
		ResourceID:   q.Get("resource_id"),
		OpenOnly:     boolQuery(r, "open"),
	}
	var err error
	if f.From, err = dateQuery(r, "from", model.Date{}); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.To, err = dateQuery(r, "to", model.Date{}); err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.svc.Availability.Events(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
