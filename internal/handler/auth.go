package handler

import (
	"net/http"

	"github.com/signgate/signgate/internal/auth"
)

// AuthHandler serves the session endpoints.
type AuthHandler struct {
	authSvc *auth.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc *auth.Service) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// loginRequest is the expected payload for the Login endpoint.
type loginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

// loginResponse is the response payload for a successful login.
type loginResponse struct {
	Token     string `json:"accessToken"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
	LoginID   string `json:"loginId"`
	Role      string `json:"role"`
}

// Login authenticates a member or the configured administrator and returns
// a session token.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.LoginID == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "loginId and password are required")
		return
	}

	principal, err := h.authSvc.Authenticate(r.Context(), req.LoginID, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	token, err := h.authSvc.IssueToken(principal)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeData(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(auth.TokenTTL.Seconds()),
		LoginID:   principal.LoginID,
		Role:      string(principal.Role),
	})
}
