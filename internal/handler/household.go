package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dogwatchapp/dogwatch/internal/identity"
	"github.com/dogwatchapp/dogwatch/internal/model"
	"github.com/dogwatchapp/dogwatch/internal/store"
)

type HouseholdHandler struct {
	households *store.HouseholdStore
	members    *store.MemberStore
	logger     *slog.Logger
}

func NewHouseholdHandler(households *store.HouseholdStore, members *store.MemberStore, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: households, members: members, logger: logger}
}

type createHouseholdRequest struct {
	Name    string `json:"name"`
	DogName string `json:"dog_name"`
}

// Create handles POST /api/households. The first member bootstraps the
// household; their member row is provisioned from the verified identity if
// this is their first request.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req createHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.DogName = strings.TrimSpace(req.DogName)
	if req.Name == "" || req.DogName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and dog_name are required"})
		return
	}

	member, err := h.provisionMember(id)
	if err != nil {
		h.logger.Error("provision member", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create household"})
		return
	}

	household, err := h.households.Create(req.Name, req.DogName, newInviteCode())
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create household"})
		return
	}
	if _, err := h.members.SetHousehold(member.ID, household.ID); err != nil {
		h.logger.Error("attach member to household", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create household"})
		return
	}

	writeJSON(w, http.StatusCreated, household)
}

type joinHouseholdRequest struct {
	InviteCode string `json:"invite_code"`
}

// Join handles POST /api/households/join. Joining another household
// replaces the member's previous one.
func (h *HouseholdHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var req joinHouseholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	code := strings.TrimSpace(req.InviteCode)
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invite_code is required"})
		return
	}

	household, err := h.households.GetByInviteCode(code)
	if err != nil {
		h.logger.Error("lookup invite code", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to join household"})
		return
	}
	if household == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid invite code"})
		return
	}

	member, err := h.provisionMember(id)
	if err != nil {
		h.logger.Error("provision member", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to join household"})
		return
	}
	if _, err := h.members.SetHousehold(member.ID, household.ID); err != nil {
		h.logger.Error("attach member to household", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to join household"})
		return
	}

	writeJSON(w, http.StatusOK, household)
}

// Get handles GET /api/households/mine.
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, actor.Household)
}

func (h *HouseholdHandler) provisionMember(id identity.Identity) (*model.Member, error) {
	member, err := h.members.GetBySubject(id.Subject)
	if err != nil {
		return nil, err
	}
	if member != nil {
		return member, nil
	}

	name := id.Name
	if name == "" {
		name = id.Email
	}
	return h.members.Create(name, id.Email, id.Subject)
}

// newInviteCode returns a short, human-shareable code. Codes are compared
// case-insensitively and never regenerated.
func newInviteCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:8])
}
