package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dogwatchapp/dogwatch/internal/model"
	"github.com/dogwatchapp/dogwatch/internal/shift"
	"github.com/dogwatchapp/dogwatch/internal/websocket"
)

type ShiftHandler struct {
	ledger *shift.Ledger
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewShiftHandler(ledger *shift.Ledger, hub *websocket.Hub, logger *slog.Logger) *ShiftHandler {
	return &ShiftHandler{ledger: ledger, hub: hub, logger: logger}
}

func (h *ShiftHandler) broadcast(householdID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, msg)
	}
}

// GetRange handles GET /api/shifts?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *ShiftHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	shifts, err := h.ledger.GetRange(actor, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if shifts == nil {
		shifts = []model.CareShift{}
	}
	writeJSON(w, http.StatusOK, shifts)
}

type scheduleRequest struct {
	AssigneeID int64 `json:"assignee_id"`
}

// Schedule handles PUT /api/shifts/{day}/{kind}.
func (h *ShiftHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	cs, err := h.ledger.Schedule(actor, r.PathValue("day"), r.PathValue("kind"), req.AssigneeID)
	if err != nil {
		h.logger.Warn("schedule shift", "error", err)
		writeDomainError(w, err)
		return
	}

	h.broadcast(cs.HouseholdID, websocket.NewMessage("care_shift", "scheduled", cs.ID, nil))
	writeJSON(w, http.StatusOK, cs)
}

// LogNow handles POST /api/shifts/{day}/{kind}/log.
func (h *ShiftHandler) LogNow(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	cs, err := h.ledger.LogNow(actor, r.PathValue("day"), r.PathValue("kind"))
	if err != nil {
		h.logger.Warn("log shift", "error", err)
		writeDomainError(w, err)
		return
	}

	h.broadcast(cs.HouseholdID, websocket.NewMessage("care_shift", "logged", cs.ID, nil))
	writeJSON(w, http.StatusOK, cs)
}

// Complete handles POST /api/shifts/{id}/complete.
func (h *ShiftHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.ledger.Complete(actor, id); err != nil {
		writeDomainError(w, err)
		return
	}

	h.broadcast(actor.Household.ID, websocket.NewMessage("care_shift", "completed", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Uncomplete handles POST /api/shifts/{id}/uncomplete.
func (h *ShiftHandler) Uncomplete(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	if err := h.ledger.Uncomplete(actor, id); err != nil {
		writeDomainError(w, err)
		return
	}

	h.broadcast(actor.Household.ID, websocket.NewMessage("care_shift", "uncompleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/shifts/{day}/{kind}.
func (h *ShiftHandler) Clear(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if err := h.ledger.ClearAssignment(actor, r.PathValue("day"), r.PathValue("kind")); err != nil {
		writeDomainError(w, err)
		return
	}

	h.broadcast(actor.Household.ID, websocket.NewMessage("care_shift", "cleared", 0, map[string]any{
		"day":  r.PathValue("day"),
		"kind": r.PathValue("kind"),
	}))
	w.WriteHeader(http.StatusNoContent)
}
