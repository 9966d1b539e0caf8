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
	"github.com/dogwatchapp/dogwatch/internal/task"
	"github.com/dogwatchapp/dogwatch/internal/websocket"
)

type TaskHandler struct {
	tasks  *store.TaskStore
	gate   *auth.Gate
	fanout *push.Fanout
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTaskHandler(tasks *store.TaskStore, gate *auth.Gate, fanout *push.Fanout, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, gate: gate, fanout: fanout, hub: hub, logger: logger}
}

func (h *TaskHandler) broadcast(householdID int64, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, msg)
	}
}

func (h *TaskHandler) notify(actor auth.Actor, title, body string) {
	if h.fanout != nil {
		go h.fanout.NotifyHousehold(actor.Household.ID, actor.Member.ID, title, body)
	}
}

type taskRequest struct {
	Title        string `json:"title"`
	IntervalDays int    `json:"interval_days"`
	StartDate    string `json:"start_date"` // YYYY-MM-DD
	Notes        string `json:"notes"`
}

func (req *taskRequest) validate() (time.Time, string) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return time.Time{}, "title is required"
	}
	if req.IntervalDays < 1 {
		return time.Time{}, "interval_days must be at least 1"
	}
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return time.Time{}, "start_date must be YYYY-MM-DD"
	}
	return startDate, ""
}

// taskWithDue is the task list wire shape. Due fields are computed per
// request so they stay correct without a background job touching rows.
type taskWithDue struct {
	model.RecurringTask
	NextDue      time.Time `json:"next_due"`
	IsDue        bool      `json:"is_due"`
	DaysUntilDue int       `json:"days_until_due"`
}

func withDue(t model.RecurringTask, now time.Time) taskWithDue {
	due := task.ComputeDueStatus(t, now)
	return taskWithDue{RecurringTask: t, NextDue: due.NextDue, IsDue: due.IsDue, DaysUntilDue: due.DaysUntilDue}
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	startDate, msg := req.validate()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	t, err := h.tasks.Create(actor.Household.ID, req.Title, req.IntervalDays, startDate, req.Notes)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create task"})
		return
	}

	h.broadcast(t.HouseholdID, websocket.NewMessage("recurring_task", "created", t.ID, nil))
	writeJSON(w, http.StatusCreated, withDue(*t, time.Now()))
}

// List handles GET /api/tasks. Tasks are sorted soonest-due first.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	tasks, err := h.tasks.ListByHousehold(actor.Household.ID)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tasks"})
		return
	}

	now := time.Now()
	task.SortByDue(tasks, now)
	out := make([]taskWithDue, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, withDue(t, now))
	}
	writeJSON(w, http.StatusOK, out)
}

// Update handles PUT /api/tasks/{id}.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	_, t, ok := h.authorized(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	startDate, msg := req.validate()
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	updated, err := h.tasks.Update(t.ID, req.Title, req.IntervalDays, startDate, req.Notes)
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update task"})
		return
	}

	h.broadcast(updated.HouseholdID, websocket.NewMessage("recurring_task", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, withDue(*updated, time.Now()))
}

// Done handles POST /api/tasks/{id}/done. Marking a task done records
// today as the last completion, which pushes the next due date out by
// the task's interval. Doing it twice in a day is a no-op.
func (h *TaskHandler) Done(w http.ResponseWriter, r *http.Request) {
	actor, t, ok := h.authorized(w, r)
	if !ok {
		return
	}

	now := time.Now()
	marked := task.MarkDone(*t, now)
	if err := h.tasks.SetLastCompleted(t.ID, *marked.LastCompleted); err != nil {
		h.logger.Error("mark task done", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to mark task done"})
		return
	}

	h.broadcast(t.HouseholdID, websocket.NewMessage("recurring_task", "completed", t.ID, nil))
	h.notify(actor, "Task done", fmt.Sprintf("%s took care of %s", actor.Member.Name, t.Title))
	writeJSON(w, http.StatusOK, withDue(marked, now))
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, t, ok := h.authorized(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(t.ID); err != nil {
		h.logger.Error("delete task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete task"})
		return
	}

	h.broadcast(t.HouseholdID, websocket.NewMessage("recurring_task", "deleted", t.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) authorized(w http.ResponseWriter, r *http.Request) (auth.Actor, *model.RecurringTask, bool) {
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

	t, err := h.tasks.GetByID(id)
	if err != nil {
		h.logger.Error("get task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get task"})
		return auth.Actor{}, nil, false
	}
	if t == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return auth.Actor{}, nil, false
	}
	if err := h.gate.Authorize(actor, t.HouseholdID); err != nil {
		writeDomainError(w, err)
		return auth.Actor{}, nil, false
	}
	return actor, t, true
}
