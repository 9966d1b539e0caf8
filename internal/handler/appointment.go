package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dogwatchapp/dogwatch/internal/auth"
	"github.com/dogwatchapp/dogwatch/internal/model"
	"github.com/dogwatchapp/dogwatch/internal/push"
	"github.com/dogwatchapp/dogwatch/internal/store"
	"github.com/dogwatchapp/dogwatch/internal/websocket"
)

type AppointmentHandler struct {
	appointments *store.AppointmentStore
	gate         *auth.Gate
	fanout       *push.Fanout
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewAppointmentHandler(appointments *store.AppointmentStore, gate *auth.Gate, fanout *push.Fanout, hub *websocket.Hub, logger *slog.Logger) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, gate: gate, fanout: fanout, hub: hub, logger: logger}
}

func (h *AppointmentHandler) broadcast(householdID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, msg)
	}
}

func (h *AppointmentHandler) notify(actor auth.Actor, title, body string) {
	if h.fanout != nil {
		go h.fanout.NotifyHousehold(actor.Household.ID, actor.Member.ID, title, body)
	}
}

type appointmentRequest struct {
	Title     string `json:"title"`
	StartTime int64  `json:"start_time"` // epoch millis
	Location  string `json:"location"`
	Notes     string `json:"notes"`
}

func (req *appointmentRequest) validate() (time.Time, string) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return time.Time{}, "title is required"
	}
	if req.StartTime <= 0 {
		return time.Time{}, "start_time is required"
	}
	return time.UnixMilli(req.StartTime).UTC(), ""
}

// Create handles POST /api/appointments.
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	startTime, msg := req.validate()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	a, err := h.appointments.Create(actor.Household.ID, req.Title, startTime, req.Location, req.Notes)
	if err != nil {
		h.logger.Error("create appointment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create appointment"})
		return
	}

	h.broadcast(a.HouseholdID, websocket.NewMessage("appointment", "created", a.ID, nil))
	h.notify(actor, "New appointment",
		fmt.Sprintf("%s on %s", a.Title, a.StartTime.Format("Jan 2 at 3:04 PM")))
	writeJSON(w, http.StatusCreated, a)
}

// List handles GET /api/appointments.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	appointments, err := h.appointments.ListByHousehold(actor.Household.ID)
	if err != nil {
		h.logger.Error("list appointments", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list appointments"})
		return
	}
	if appointments == nil {
		appointments = []model.Appointment{}
	}
	writeJSON(w, http.StatusOK, appointments)
}

// Update handles PUT /api/appointments/{id}.
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, a, ok := h.authorized(w, r)
	if !ok {
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	startTime, msg := req.validate()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	updated, err := h.appointments.Update(a.ID, req.Title, startTime, req.Location, req.Notes)
	if err != nil {
		h.logger.Error("update appointment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update appointment"})
		return
	}

	h.broadcast(updated.HouseholdID, websocket.NewMessage("appointment", "updated", updated.ID, nil))
	h.notify(actor, "Appointment changed",
		fmt.Sprintf("%s moved to %s", updated.Title, updated.StartTime.Format("Jan 2 at 3:04 PM")))
	writeJSON(w, http.StatusOK, updated)
}

// Complete handles POST /api/appointments/{id}/complete. One-way.
func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, a, ok := h.authorized(w, r)
	if !ok {
		return
	}

	if err := h.appointments.SetCompleted(a.ID); err != nil {
		h.logger.Error("complete appointment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to complete appointment"})
		return
	}

	h.broadcast(a.HouseholdID, websocket.NewMessage("appointment", "completed", a.ID, nil))
	h.notify(actor, "Appointment done", fmt.Sprintf("%s marked %s as done", actor.Member.Name, a.Title))
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/appointments/{id}.
func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, a, ok := h.authorized(w, r)
	if !ok {
		return
	}

	if err := h.appointments.Delete(a.ID); err != nil {
		h.logger.Error("delete appointment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete appointment"})
		return
	}

	h.broadcast(a.HouseholdID, websocket.NewMessage("appointment", "deleted", a.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// authorized loads the appointment and checks household ownership. Writes
// the error response itself when it returns ok=false.
func (h *AppointmentHandler) authorized(w http.ResponseWriter, r *http.Request) (auth.Actor, *model.Appointment, bool) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return auth.Actor{}, nil, false
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return auth.Actor{}, nil, false
	}

	a, err := h.appointments.GetByID(id)
	if err != nil {
		h.logger.Error("get appointment", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get appointment"})
		return auth.Actor{}, nil, false
	}
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return auth.Actor{}, nil, false
	}
	if err := h.gate.Authorize(actor, a.HouseholdID); err != nil {
		writeDomainError(w, err)
		return auth.Actor{}, nil, false
	}
	return actor, a, true
}
