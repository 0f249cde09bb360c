package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shunichi-ikebuchi/ledger-posting/pkg/ledger"
)

type contextKey string

const (
	contextKeyOwner contextKey = "owner"

	// OwnerHeader carries the tenant id of every API request.
	OwnerHeader = "X-Owner-ID"
)

// OwnerMiddleware requires the owner header and stores it in the request context.
func OwnerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if owner == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing "+OwnerHeader+" header")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyOwner, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(contextKeyOwner).(string)
	return owner
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorCode maps a domain error to an HTTP status and error code.
func errorCode(err error) (int, string) {
	var (
		resolution *ledger.AccountResolutionError
		postErr    *ledger.PostingError
	)

	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ledger.ErrAlreadyPosted):
		return http.StatusConflict, "already_posted"
	case errors.Is(err, ledger.ErrEntrySequenceExhausted):
		return http.StatusConflict, "entry_sequence_exhausted"
	case errors.Is(err, ledger.ErrNotCategorized):
		return http.StatusUnprocessableEntity, "not_categorized"
	case errors.As(err, &resolution):
		return http.StatusUnprocessableEntity, string(resolution.Kind)
	case errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "invalid_amount"
	case errors.As(err, &postErr):
		return http.StatusInternalServerError, "posting_failed"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

// writeError writes err with the status its kind maps to.
func writeError(w http.ResponseWriter, err error) {
	status, code := errorCode(err)
	writeJSONError(w, status, code, err.Error())
}
