package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/expense-tracker-go/internal/api/apierr"
	"github.com/mcoot/expense-tracker-go/internal/api/response"
	"github.com/mcoot/expense-tracker-go/internal/model"
	"github.com/mcoot/expense-tracker-go/internal/services/credential"
)

// UserHandler handles identity lookups. Routes require authentication.
type UserHandler struct {
	credentials *credential.Service
	errs        *apierr.Responder
}

// NewUserHandler creates a new user handler
func NewUserHandler(credentials *credential.Service, errs *apierr.Responder) *UserHandler {
	return &UserHandler{
		credentials: credentials,
		errs:        errs,
	}
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	identities, err := h.credentials.ListAll(r.Context())
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.IdentityList{Identities: response.IdentitiesFromModel(identities)})
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.IdentityID(mux.Vars(r)["id"])

	identity, err := h.credentials.FindByID(r.Context(), id)
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, response.IdentityFromModel(identity))
}
