package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/signgate/signgate/internal/auth"
	"github.com/signgate/signgate/internal/eformsign"
	"github.com/signgate/signgate/internal/model"
	"github.com/signgate/signgate/internal/store"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeData wraps v in the standard success envelope.
func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, model.Success(v))
}

// writeError writes an error envelope with the given message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.Error(message))
}

// writeServiceError maps a service-layer error to an HTTP status and writes
// the error envelope. Credential and token failures map to 401, duplicate
// registrations to 400, unknown subjects to 404; provider-side failures map
// to 502 and unreachable providers to 503.
func writeServiceError(w http.ResponseWriter, err error) {
	var authErr *eformsign.AuthError
	var apiErr *eformsign.APIError

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid login ID or password")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, store.ErrDuplicateLoginID):
		writeError(w, http.StatusBadRequest, "Login ID is already registered")
	case errors.Is(err, auth.ErrMemberNotFound), errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Member not found")
	case errors.As(err, &authErr):
		writeError(w, http.StatusBadGateway, "Provider authentication failed: "+authErr.Error())
	case errors.As(err, &apiErr):
		writeError(w, http.StatusBadGateway, "Provider request failed: "+apiErr.Error())
	case errors.Is(err, eformsign.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Provider is unreachable")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt extracts an integer query parameter, returning defaultVal if the
// parameter is missing or cannot be parsed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// queryString extracts a string query parameter.
func queryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// pageFromRequest reads the page/limit query parameters used by every
// list endpoint.
func pageFromRequest(r *http.Request) eformsign.Page {
	return eformsign.Page{
		Number: queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 20),
	}
}
