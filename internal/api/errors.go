package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/lazycard/internal/api/shared"
	"github.com/phrazzld/lazycard/internal/backup"
	"github.com/phrazzld/lazycard/internal/domain"
	"github.com/phrazzld/lazycard/internal/service"
	"github.com/phrazzld/lazycard/internal/service/review"
	"github.com/phrazzld/lazycard/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case store.IsNotFoundError(err):
		return http.StatusNotFound
	case store.IsConflictError(err):
		return http.StatusConflict
	case domain.IsValidationError(err),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, shared.ErrEmptyBody):
		return http.StatusBadRequest
	default:
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.Is(err, review.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, review.ErrCardNotInSession):
		return "Card is not in this session"
	case errors.Is(err, review.ErrSubmissionInProgress):
		return "Card submission already in progress"
	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"
	case errors.Is(err, store.ErrTopicNotFound):
		return "Topic not found"
	case errors.Is(err, store.ErrTopicMissing):
		return "Target topic does not exist"
	case errors.Is(err, store.ErrTopicCycle):
		return "Topic cannot be moved under its own subtopic"
	case errors.Is(err, store.ErrTopicNotEmpty):
		return "Topic still has cards or subtopics"
	case errors.Is(err, store.ErrDuplicate):
		return "Entity already exists"
	case errors.Is(err, store.ErrNonMonotonicReview):
		return "Review is older than the latest review"
	case errors.Is(err, service.ErrUnknownSortOrder):
		return "Unknown sort order"
	case errors.Is(err, service.ErrEmptyTopicPath):
		return "Topic path is empty"
	case errors.Is(err, backup.ErrInvalidSnapshot):
		return "Invalid backup"
	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID format"
	case domain.IsValidationError(err), errors.Is(err, store.ErrInvalidEntity):
		return validationMessage(err)
	case store.IsNotFoundError(err):
		return "Not found"
	case store.IsConflictError(err):
		return "Conflict"
	default:
		return "An unexpected error occurred"
	}
}

// validationMessage returns the first domain validation message, which
// never contains internal details, e.g. "card front cannot be empty".
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, domain.ErrValidation.Error()+": "); i >= 0 {
		msg = msg[i+len(domain.ErrValidation.Error())+2:]
		if j := strings.Index(msg, ":"); j >= 0 {
			msg = msg[:j]
		}
		if msg != "" {
			return strings.ToUpper(msg[:1]) + msg[1:]
		}
	}
	return "Validation error"
}

// SanitizeValidationError turns validator errors into a short message naming
// the first offending field.
func SanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}
	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes an error response for err. An empty message selects
// the safe message for the error.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			message = SanitizeValidationError(err)
		} else {
			message = GetSafeErrorMessage(err)
		}
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
