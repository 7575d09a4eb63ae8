package handler

import (
	"net/http"

	"github.com/mcoot/expense-tracker-go/internal/api/apierr"
	"github.com/mcoot/expense-tracker-go/internal/api/request"
	"github.com/mcoot/expense-tracker-go/internal/api/response"
	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/services/auth"
)

// AuthHandler handles signup, login and logout
type AuthHandler struct {
	authService *auth.Service
	errs        *apierr.Responder
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, errs *apierr.Responder) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		errs:        errs,
	}
}

// SignUp handles POST /api/v1/auth/signup. The new identity is logged in.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req request.SignUpRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	ic, err := identityContext(r)
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	identity, err := h.authService.SignUp(r.Context(), auth.SignUpInput{
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Secret:      req.Password,
		Gender:      model.Gender(req.Gender),
	})
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	if err := ic.Login(r.Context(), identity); err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponse{Identity: response.IdentityFromModel(identity)})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	ic, err := identityContext(r)
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	identity, err := ic.Authenticate(r.Context(), auth.LocalStrategyName, auth.Credentials{
		Username: req.Username,
		Secret:   req.Password,
	})
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	if err := ic.Login(r.Context(), identity); err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponse{Identity: response.IdentityFromModel(identity)})
}

// Logout handles POST /api/v1/auth/logout. Logging out without a session
// succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ic, err := identityContext(r)
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	if err := ic.Logout(r.Context()); err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MessageResponse{Message: "Logged out successfully"})
}

// LogoutAll handles POST /api/v1/auth/logout-all
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ic, err := identityContext(r)
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	count, err := ic.LogoutAll(r.Context())
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LogoutAllResponse{
		Message: "Logged out of all sessions",
		Count:   count,
	})
}

// Me handles GET /api/v1/auth/me. Anonymous requests get a null identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ic, err := identityContext(r)
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	identity, err := ic.CurrentIdentity(r.Context())
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	var resp response.MeResponse
	if identity != nil {
		projected := response.IdentityFromModel(identity)
		resp.Identity = &projected
	}
	response.JSON(w, http.StatusOK, resp)
}
