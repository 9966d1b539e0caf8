package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dogwatchapp/dogwatch/internal/model"
	"github.com/dogwatchapp/dogwatch/internal/store"
)

type MemberHandler struct {
	members *store.MemberStore
	logger  *slog.Logger
}

func NewMemberHandler(members *store.MemberStore, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{members: members, logger: logger}
}

// List handles GET /api/members.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	members, err := h.members.ListByHousehold(actor.Household.ID)
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list members"})
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateMe handles PUT /api/members/me.
func (h *MemberHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Email == "" {
		req.Email = actor.Member.Email
	}

	member, err := h.members.UpdateProfile(actor.Member.ID, req.Name, req.Email)
	if err != nil {
		h.logger.Error("update profile", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update profile"})
		return
	}
	writeJSON(w, http.StatusOK, member)
}
