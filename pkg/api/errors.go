package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/pedigree/pkg/model"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch model.KindOf(err) {
	case model.ErrInvalidInput:
		return http.StatusUnprocessableEntity
	case model.ErrNotFound:
		return http.StatusNotFound
	case model.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// KindForStatus is the inverse of StatusFor used by the client. Statuses
// outside the taxonomy are transport failures.
func KindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return model.ErrInvalidInput
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusConflict:
		return model.ErrConflict
	default:
		return model.ErrTransport
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("warning: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	body := ErrorBody{Message: http.StatusText(status)}

	var me *model.Error
	if errors.As(err, &me) {
		body.Message = fmt.Sprintf("%s failed", me.Op)
		body.Errors = me.Messages
	}
	if status >= http.StatusInternalServerError {
		log.Printf("error: %s %s: %v", r.Method, r.URL.Path, err)
		// internal details stay in the log
		body = ErrorBody{Message: http.StatusText(status)}
	} else {
		log.Printf("warning: %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, body)
}

func badRequest(w http.ResponseWriter, r *http.Request, op string, msgs ...string) {
	writeError(w, r, &model.Error{Op: op, Kind: model.ErrInvalidInput, Messages: msgs})
}
