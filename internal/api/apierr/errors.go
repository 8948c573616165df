package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/sortinghat/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeCharacterNotFound      = "CHARACTER_NOT_FOUND"
	CodeCharacterExists        = "CHARACTER_EXISTS"
	CodeInvalidName            = "INVALID_NAME"
	CodeOutOfRange             = "OUT_OF_RANGE"
	CodeUnknownHouse           = "UNKNOWN_HOUSE"
	CodeInvalidSelection       = "INVALID_SELECTION"
	CodeUnknownSkill           = "UNKNOWN_SKILL"
	CodeInsufficientSkillPoint = "INSUFFICIENT_SKILL_POINTS"
	CodeInvalidAmount          = "INVALID_AMOUNT"
	CodeBalanceOverflow        = "BALANCE_OVERFLOW"
	CodeStoreUnavailable       = "STORE_UNAVAILABLE"
	CodeExternalSideEffect     = "EXTERNAL_SIDE_EFFECT_FAILED"
	CodeInternalError          = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrCharacterNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeCharacterNotFound, "No character is registered for this member"}}
	case errors.Is(err, model.ErrCharacterExists):
		return &httpError{http.StatusConflict, APIError{CodeCharacterExists, "A character is already registered for this member"}}
	case errors.Is(err, model.ErrInvalidName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidName, "Name must be between 1 and 32 characters"}}
	case errors.Is(err, model.ErrOutOfRange):
		return &httpError{http.StatusBadRequest, APIError{CodeOutOfRange, "Value must be between 1 and 100"}}
	case errors.Is(err, model.ErrUnknownHouse):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownHouse, "Unknown house"}}
	case errors.Is(err, model.ErrInvalidSelection):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidSelection, "Choose between 1 and 4 distinct personalities from the list"}}
	case errors.Is(err, model.ErrUnknownSkill):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownSkill, "Unknown skill"}}
	case errors.Is(err, model.ErrInsufficientSkillPoints):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientSkillPoint, "Not enough skill points left"}}
	case errors.Is(err, model.ErrInvalidAmount):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAmount, "Amount must be at least 1"}}
	case errors.Is(err, model.ErrBalanceOverflow):
		return &httpError{http.StatusConflict, APIError{CodeBalanceOverflow, "Balance cannot hold that many Knuts"}}
	case errors.Is(err, model.ErrForbidden):
		return &httpError{http.StatusForbidden, APIError{CodeForbidden, "Not allowed"}}
	case errors.Is(err, model.ErrStoreUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStoreUnavailable, "Character store is unavailable, try again later"}}
	case errors.Is(err, model.ErrExternalSideEffect):
		return &httpError{http.StatusBadGateway, APIError{CodeExternalSideEffect, "Could not update group membership"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Admin token required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
