package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/yaklabco/livetype/pkg/config"
	"github.com/yaklabco/livetype/pkg/engine"
)

// maxBodySize bounds request bodies, uploads included (32 MiB).
const maxBodySize = 32 << 20

// ErrBadRequest marks malformed request bodies and parameters.
var ErrBadRequest = errors.New("bad request")

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	var validation *config.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, engine.ErrUnknownDocument):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrPathInUse):
		return http.StatusConflict
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a single JSON value from the request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: decode body: %w", ErrBadRequest, err)
	}
	return nil
}
