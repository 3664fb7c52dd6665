package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/contacts-api/internal/errs"
)

// Client-facing messages.
const (
	msgInvalidInput    = "Invalid inputs passed, please check your data."
	msgUserExists      = "User already exists"
	msgAuthFailed      = "Authentication failed"
	msgBadCredentials  = "Invalid email or password"
	msgForbidden       = "You are not allowed to access this contact"
	msgContactNotFound = "Could not find contact for given ID"
	msgUserNotFound    = "Could not find user with given ID"
	msgNoSearchTerm    = "No search term"
	msgRateLimited     = "Too many failed login attempts, try again later"
	msgInternal        = "Something went wrong, please try again"
	msgNoRoute         = "Could not find the route"
	msgDeleted         = "Deleted contact"
	msgTooLarge        = "Request body too large"
)

// errBodyTooLarge is returned by decode when the body exceeds MaxBodyBytes.
var errBodyTooLarge = errors.New("request body too large")

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, messageBody{Message: msg})
}

// errorStatus maps a service error to a status code and client message.
// notFound is the message used for errs.ErrNotFound.
func errorStatus(err error, notFound string) (int, string) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, msgTooLarge
	case errors.Is(err, errs.ErrValidation):
		return http.StatusUnprocessableEntity, msgInvalidInput
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusUnprocessableEntity, msgUserExists
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, msgAuthFailed
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, msgForbidden
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, notFound
	case errors.Is(err, errs.ErrBadRequest):
		return http.StatusBadRequest, msgNoSearchTerm
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests, msgRateLimited
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// fail writes the mapped error. Internal errors are logged, never returned.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	code, msg := errorStatus(err, notFound)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("reqID", requestID(r)),
			zap.Error(err),
		)
	}
	writeMessage(w, code, msg)
}
