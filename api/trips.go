package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/kilianp07/fleetops/core/ledger"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
	"github.com/kilianp07/fleetops/core/trips"
)

func (h *handler) generateTrip(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req trips.ConfirmRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	req.LineID = id
	req.Actor = actorOf(r)
	t, err := h.svc.Trips.ConfirmLine(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *handler) listTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.TripFilter{DriverID: q.Get("driver_id"), ClientID: q.Get("client_id")}
	var err error
	if f.From, err = dateQuery(r, "from", model.Date{}); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.To, err = dateQuery(r, "to", model.Date{}); err != nil {
		h.fail(w, r, err)
		return
	}
	if s := q.Get("status"); s != "" {
		for _, part := range strings.Split(s, ",") {
			f.Statuses = append(f.Statuses, model.TripStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	out, err := h.svc.Trips.List(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) getTrip(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.svc.Trips.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handler) finalizeTrip(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.svc.Trips.Finalize(r.Context(), id, actorOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type eventBody struct {
	Kind  string     `json:"kind"`
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
	Note  string     `json:"note,omitempty"`
}

func (h *handler) recordEvent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var body eventBody
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	ev, err := h.svc.Ledger.Record(r.Context(), ledger.RecordRequest{
		TripID: id, Kind: body.Kind, Start: body.Start, End: body.End, Note: body.Note, Actor: actorOf(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (h *handler) tripEvents(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.svc.Ledger.ListEvents(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) tripDelays(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.svc.Ledger.DelayTotals(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) searchEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.TripEventFilter{
		Kind:     model.EventKind(q.Get("kind")),
		DriverID: q.Get("driver_id"),
		ClientID: q.Get("client_id"),
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
	out, err := h.svc.Ledger.Search(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) dailyDelays(w http.ResponseWriter, r *http.Request) {
	date, err := dateQuery(r, "date", h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.svc.Ledger.DailyDelays(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) clientDelays(w http.ResponseWriter, r *http.Request) {
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
	out, err := h.svc.Ledger.DelaysByClient(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
