package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tally/internal/auth"
	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/log"
)

// JSONResponseBuilder provides a fluent API for writing API responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Payload(payload any) *JSONResponseBuilder {
	b.payload = payload
	return b
}

func (b *JSONResponseBuilder) Error(message string) *JSONResponseBuilder {
	b.payload = map[string]string{"error": message}
	return b
}

// Write sends the response. Encoding failures are logged, not surfaced;
// the status line is already gone by then.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	for name, value := range b.headers {
		h.Set(name, value)
	}
	w.WriteHeader(b.statusCode)
	if b.payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(b.payload); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response",
			log.FieldError, err.Error())
	}
}

// writeError maps a domain error onto the right status code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, ledger.ErrNotFound):
		status = http.StatusNotFound
		message = "record not found"
	case errors.Is(err, ledger.ErrEmailTaken):
		status = http.StatusConflict
		message = "email already registered"
	case errors.Is(err, ledger.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
		message = "not authenticated"
	case errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = err.Error()
	case isValidationError(err):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	}

	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err.Error())
	}
	NewJSONResponse().Status(status).Error(message).Write(w, r)
}

func isValidationError(err error) bool {
	return errors.Is(err, core.ErrInvalidKind) ||
		errors.Is(err, core.ErrInvalidAmount) ||
		errors.Is(err, core.ErrEmptyTitle) ||
		errors.Is(err, core.ErrTitleTooLong) ||
		errors.Is(err, core.ErrInvalidCategory)
}
