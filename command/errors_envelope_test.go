package command

import (
	"context"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-bankauth/core"
)

func TestSubmitLoginMessage_ValidateReturnsRichError(t *testing.T) {
	err := (SubmitLoginMessage{}).Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.AuthErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.AuthErrorBadInput, rich.TextCode)
	}
	if rich.Code != http.StatusBadRequest {
		t.Fatalf("expected %d code, got %d", http.StatusBadRequest, rich.Code)
	}
	validation := rich.AllValidationErrors()
	if len(validation) == 0 {
		t.Fatalf("expected validation errors in envelope")
	}
	if validation[0].Field != "interaction_id" {
		t.Fatalf("expected interaction_id validation field, got %q", validation[0].Field)
	}
}

func TestSubmitLoginCommand_NilServiceReturnsRichError(t *testing.T) {
	var cmd *SubmitLoginCommand
	err := cmd.Execute(context.Background(), SubmitLoginMessage{})
	if err == nil {
		t.Fatalf("expected command dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
	if rich.TextCode != core.AuthErrorInternal {
		t.Fatalf("expected %q text code, got %q", core.AuthErrorInternal, rich.TextCode)
	}
}
