package handler

import (
	"net/http"

	"github.com/signgate/signgate/internal/auth"
	"github.com/signgate/signgate/internal/server/middleware"
)

// MemberHandler serves the local member registry endpoints.
type MemberHandler struct {
	authSvc *auth.Service
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(authSvc *auth.Service) *MemberHandler {
	return &MemberHandler{authSvc: authSvc}
}

// Me returns the profile of the authenticated subject.
// GET /api/v1/members/me
func (h *MemberHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	member, err := h.authSvc.MemberByLoginID(r.Context(), principal.LoginID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, member)
}

// List returns every registered member. Manager only.
// GET /api/v1/members
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.authSvc.ListMembers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, members)
}

// createMemberRequest is the expected payload for member registration.
type createMemberRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Create registers a new member. Manager only.
// POST /api/v1/members
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.LoginID == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "loginId and password are required")
		return
	}

	member, err := h.authSvc.CreateMember(r.Context(), req.LoginID, req.Password, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, member)
}
