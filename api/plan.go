package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/kilianp07/fleetops/core/lines"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/planning"
)

type generateBody struct {
	WeekStart  model.Date `json:"week_start"`
	DriverIDs  []string   `json:"driver_ids"`
	Weekdays   []string   `json:"weekdays"`
	MaterialID string     `json:"material_id"`
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	var body generateBody
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	days, err := planning.ParseWeekdays(strings.Join(body.Weekdays, ","))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Planning.Generate(r.Context(), planning.Request{
		WeekStart:  body.WeekStart,
		DriverIDs:  body.DriverIDs,
		Weekdays:   days,
		MaterialID: body.MaterialID,
		Creator:    actorOf(r),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) week(w http.ResponseWriter, r *http.Request) {
	date, err := dateQuery(r, "date", h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.svc.Planning.ListWeek(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) weekCounters(w http.ResponseWriter, r *http.Request) {
	date, err := dateQuery(r, "date", h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.svc.Planning.Counters(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) freezeWeek(w http.ResponseWriter, r *http.Request) {
	date, err := dateQuery(r, "date", model.Date{})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if date.IsZero() {
		var body dateBody
		if err := decode(r, &body); err != nil {
			h.fail(w, r, err)
			return
		}
		date = body.Date
	}
	n, err := h.svc.Lines.FreezeWeek(r.Context(), date, actorOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"week_start": date.WeekStart(), "frozen": n})
}

func (h *handler) weekLocked(w http.ResponseWriter, r *http.Request) {
	date, err := dateQuery(r, "date", h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	locked, err := h.svc.Lines.WeekLocked(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"week_start": date.WeekStart(), "locked": locked})
}

func (h *handler) listLines(w http.ResponseWriter, r *http.Request) {
	date, err := dateQuery(r, "date", h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.svc.Lines.ListDay(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) lineKPIs(w http.ResponseWriter, r *http.Request) {
	date, err := dateQuery(r, "date", h.today())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.svc.Lines.DayKPIs(r.Context(), date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) pendingLines(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Lines.Pending(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) createOffPlan(w http.ResponseWriter, r *http.Request) {
	var req lines.OffPlanRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Actor = actorOf(r)
	l, err := h.svc.Lines.CreateOffPlan(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *handler) getLine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	l, err := h.svc.Lines.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *handler) updateLine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var p lines.Patch
	if err := decode(r, &p); err != nil {
		h.fail(w, r, err)
		return
	}
	l, err := h.svc.Lines.Update(r.Context(), id, p, actorOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *handler) confirmLine(w http.ResponseWriter, r *http.Request) {
	h.lineAction(w, r, h.svc.Lines.Confirm)
}

func (h *handler) cancelLine(w http.ResponseWriter, r *http.Request) {
	h.lineAction(w, r, h.svc.Lines.Cancel)
}

func (h *handler) lineAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64, actor string) (model.Line, error)) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	l, err := fn(r.Context(), id, actorOf(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *handler) deleteLine(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Lines.Delete(r.Context(), id, actorOf(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
