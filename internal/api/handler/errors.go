package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/expense-tracker-go/internal/api/apierr"
	"github.com/mcoot/expense-tracker-go/internal/identity"
	"github.com/mcoot/expense-tracker-go/internal/model"
)

const maxBodyBytes = 1 << 20

// decodeBody decodes a JSON request body into dst
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierr.NewInvalidRequestError("invalid request body")
	}
	return nil
}

// identityContext returns the request's identity Context. Its absence means
// the session middleware was not applied, which callers report as
// unauthenticated rather than panicking.
func identityContext(r *http.Request) (*identity.Context, error) {
	ic := identity.FromContext(r.Context())
	if ic == nil {
		return nil, model.ErrUnauthenticated
	}
	return ic, nil
}
