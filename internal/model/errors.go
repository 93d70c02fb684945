package model

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrorKind classifies API errors by the status the service returned
type ErrorKind string

const (
	KindBadRequest     ErrorKind = "bad_request"
	KindUnauthorized   ErrorKind = "unauthorized"
	KindInternalServer ErrorKind = "internal_server"
	KindAPI            ErrorKind = "api_error"
)

// Sentinels matched by APIError.Is
var (
	ErrBadRequest     = errors.New("bad_request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal_server")
)

// KindForStatus maps an HTTP status to its error kind
func KindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusInternalServerError:
		return KindInternalServer
	default:
		return KindAPI
	}
}

// ValidationError lists every rejected field of a document.
// Errors maps a stable field path (e.g. "item_0_taxes") to a message.
type ValidationError struct {
	Message string
	Errors  map[string]string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%v)", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Has reports whether field was rejected
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Errors[field]
	return ok
}

// Field returns the message attached to field, or ""
func (e *ValidationError) Field(field string) string {
	return e.Errors[field]
}

// Fields returns the rejected field paths in sorted order
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// NewValidationError creates a validation error from a field map
func NewValidationError(fieldErrors map[string]string) *ValidationError {
	e := &ValidationError{Errors: fieldErrors}
	if e.Errors == nil {
		e.Errors = map[string]string{}
	}
	e.Message = "Erreurs de validation: " + strings.Join(e.Fields(), ", ")
	return e
}

// NewValidationMessage creates a validation error carrying a single message,
// typically a rejection reported by the service.
func NewValidationMessage(message string, cause error) *ValidationError {
	return &ValidationError{
		Message: message,
		Errors:  map[string]string{},
		Cause:   cause,
	}
}

// AuthenticationError reports a missing, malformed or refused API key
type AuthenticationError struct {
	Message    string
	StatusCode int
	Cause      error
}

func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication failed: %s (%v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// NewInvalidAPIKeyError is returned when the key is absent or implausible
func NewInvalidAPIKeyError() *AuthenticationError {
	return &AuthenticationError{Message: "Clé API invalide ou manquante", StatusCode: http.StatusUnauthorized}
}

// NewUnauthorizedError is returned when the service answered 401
func NewUnauthorizedError(message string) *AuthenticationError {
	if message == "" {
		message = "Accès non autorisé"
	}
	return &AuthenticationError{Message: message, StatusCode: http.StatusUnauthorized}
}

// NetworkError reports that the service could not be reached
type NetworkError struct {
	Message  string
	Attempts int
	Cause    error
}

func (e *NetworkError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("network error after %d attempts: %s (%v)", e.Attempts, e.Message, e.Cause)
	}
	if e.Cause != nil {
		return fmt.Sprintf("network error: %s (%v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("network error: %s", e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// NewConnectionError wraps a failure to establish or complete an exchange
func NewConnectionError(cause error, attempts int) *NetworkError {
	return &NetworkError{
		Message:  "Impossible de se connecter à l'API FNE",
		Attempts: attempts,
		Cause:    cause,
	}
}

// NewTimeoutError wraps a timeout while waiting for the service
func NewTimeoutError(cause error) *NetworkError {
	return &NetworkError{
		Message:  "Délai d'attente dépassé lors de l'appel API",
		Attempts: 1,
		Cause:    cause,
	}
}

// APIError reports a non-2xx answer from the service.
// Response holds the decoded JSON body when there was one.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	ErrorType  string
	Response   map[string]any
	Body       []byte
	Cause      error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error [%d %s]: %s", e.StatusCode, e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is matches the kind sentinels
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.Kind == KindBadRequest
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrInternalServer:
		return e.Kind == KindInternalServer
	}
	return false
}

// ServerSide reports a 5xx status
func (e *APIError) ServerSide() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

var defaultAPIMessages = map[ErrorKind]string{
	KindBadRequest:     "Requête invalide",
	KindUnauthorized:   "Non autorisé",
	KindInternalServer: "Erreur interne du serveur",
	KindAPI:            "Erreur API",
}

// NewAPIError builds the error for a non-2xx status. response may be nil
// when the body was not JSON.
func NewAPIError(status int, response map[string]any, body []byte) *APIError {
	kind := KindForStatus(status)
	e := &APIError{
		Kind:       kind,
		StatusCode: status,
		Message:    defaultAPIMessages[kind],
		Response:   response,
		Body:       body,
	}
	if msg, ok := response["message"].(string); ok && msg != "" {
		e.Message = msg
	}
	if typ, ok := response["error"].(string); ok {
		e.ErrorType = typ
	}
	if kind == KindUnauthorized {
		e.Cause = NewUnauthorizedError(e.Message)
	}
	return e
}
