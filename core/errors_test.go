package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestAuthErrorMapper_Sentinels(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		code     int
		textCode string
	}{
		{
			name:     "interaction not found",
			err:      fmt.Errorf("%w: intx_1", ErrInteractionNotFound),
			code:     http.StatusBadRequest,
			textCode: AuthErrorInteractionInvalid,
		},
		{
			name:     "unknown prompt",
			err:      fmt.Errorf("%w: %q", ErrUnknownPrompt, "select_account"),
			code:     http.StatusBadRequest,
			textCode: AuthErrorUnknownPrompt,
		},
		{
			name:     "invalid credentials",
			err:      ErrInvalidCredentials,
			code:     http.StatusUnauthorized,
			textCode: AuthErrorInvalidCredentials,
		},
		{
			name:     "subject not found",
			err:      fmt.Errorf("%w: acct_1", ErrSubjectNotFound),
			code:     http.StatusNotFound,
			textCode: AuthErrorSubjectNotFound,
		},
		{
			name:     "client not found",
			err:      fmt.Errorf("%w: web", ErrClientNotFound),
			code:     http.StatusNotFound,
			textCode: AuthErrorClientNotFound,
		},
		{
			name:     "consent not found",
			err:      fmt.Errorf("%w: consent_1", ErrConsentNotFound),
			code:     http.StatusNotFound,
			textCode: AuthErrorConsentNotFound,
		},
		{
			name:     "already exists",
			err:      fmt.Errorf("%w: client web", ErrAlreadyExists),
			code:     http.StatusConflict,
			textCode: AuthErrorAlreadyExists,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := authErrorMapper(tc.err)
			if mapped == nil {
				t.Fatalf("expected mapped error")
			}
			if mapped.Code != tc.code {
				t.Fatalf("expected status %d, got %d", tc.code, mapped.Code)
			}
			if mapped.TextCode != tc.textCode {
				t.Fatalf("expected text code %s, got %s", tc.textCode, mapped.TextCode)
			}
		})
	}
}

func TestAuthErrorMapper_ValidationKeywords(t *testing.T) {
	mapped := authErrorMapper(errors.New("core: grant id is required"))
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for validation message, got %d", mapped.Code)
	}
	if mapped.TextCode != AuthErrorBadInput {
		t.Fatalf("expected %s, got %s", AuthErrorBadInput, mapped.TextCode)
	}
}

func TestAuthErrorMapper_PreservesRichErrors(t *testing.T) {
	original := goerrors.New("scope rejected", goerrors.CategoryAuthz).WithTextCode("AUTH_SCOPE_REJECTED")
	mapped := authErrorMapper(original)
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.TextCode != "AUTH_SCOPE_REJECTED" {
		t.Fatalf("expected original text code preserved, got %s", mapped.TextCode)
	}
	if mapped.Code != http.StatusForbidden {
		t.Fatalf("expected status filled from category, got %d", mapped.Code)
	}
}

func TestAuthErrorMapper_UnknownFallsBackToInternal(t *testing.T) {
	mapped := authErrorMapper(errors.New("connection reset by peer"))
	if mapped == nil {
		t.Fatalf("expected mapped error")
	}
	if mapped.Code == 0 {
		t.Fatalf("expected a non-zero http status")
	}
	if mapped.TextCode == "" {
		t.Fatalf("expected a text code on fallback")
	}
}

func TestAuthErrorMapper_Nil(t *testing.T) {
	if mapped := authErrorMapper(nil); mapped != nil {
		t.Fatalf("expected nil for nil error, got %v", mapped)
	}
}
