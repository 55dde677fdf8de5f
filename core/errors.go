package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	AuthErrorBadInput           = "AUTH_BAD_INPUT"
	AuthErrorInteractionInvalid = "AUTH_INTERACTION_INVALID"
	AuthErrorUnknownPrompt      = "AUTH_UNKNOWN_PROMPT"
	AuthErrorInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthErrorSubjectNotFound    = "AUTH_SUBJECT_NOT_FOUND"
	AuthErrorClientNotFound     = "AUTH_CLIENT_NOT_FOUND"
	AuthErrorConsentNotFound    = "AUTH_CONSENT_NOT_FOUND"
	AuthErrorAlreadyExists      = "AUTH_ALREADY_EXISTS"
	AuthErrorRateLimited        = "AUTH_RATE_LIMITED"
	AuthErrorInternal           = "AUTH_INTERNAL_ERROR"
)

func authErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureAuthErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrInteractionNotFound):
		return newAuthError("The authorization request is no longer valid", goerrors.CategoryBadInput, AuthErrorInteractionInvalid)
	case errors.Is(err, ErrUnknownPrompt):
		// Engine version mismatch, a configuration fault rather than a
		// user fault; still surfaced as a client error.
		return newAuthError(err.Error(), goerrors.CategoryBadInput, AuthErrorUnknownPrompt)
	case errors.Is(err, ErrInvalidCredentials):
		return newAuthError("Invalid email or password", goerrors.CategoryAuth, AuthErrorInvalidCredentials)
	case errors.Is(err, ErrTooManyAttempts):
		return newAuthError("Too many login attempts, try again later", goerrors.CategoryRateLimit, AuthErrorRateLimited)
	case errors.Is(err, ErrSubjectNotFound):
		return newAuthError("User not found", goerrors.CategoryNotFound, AuthErrorSubjectNotFound)
	case errors.Is(err, ErrClientNotFound):
		return newAuthError(err.Error(), goerrors.CategoryNotFound, AuthErrorClientNotFound)
	case errors.Is(err, ErrConsentNotFound):
		return newAuthError(err.Error(), goerrors.CategoryNotFound, AuthErrorConsentNotFound)
	case errors.Is(err, ErrArtifactNotFound):
		return newAuthError(err.Error(), goerrors.CategoryNotFound, AuthErrorInteractionInvalid)
	case errors.Is(err, ErrAlreadyExists):
		return newAuthError(err.Error(), goerrors.CategoryConflict, AuthErrorAlreadyExists)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newAuthError(err.Error(), goerrors.CategoryBadInput, AuthErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureAuthErrorEnvelope(mapped)
}

func newAuthError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureAuthErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureAuthErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = authHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultAuthTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultAuthTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return AuthErrorBadInput
	case goerrors.CategoryNotFound:
		return AuthErrorConsentNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return AuthErrorInvalidCredentials
	case goerrors.CategoryConflict:
		return AuthErrorAlreadyExists
	case goerrors.CategoryRateLimit:
		return AuthErrorRateLimited
	default:
		return AuthErrorInternal
	}
}

func authHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
