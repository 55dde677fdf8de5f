package command

import (
	"strings"

	"github.com/goliatone/go-bankauth/core"
)

const (
	TypeSubmitLogin         = "bankauth.command.login.submit"
	TypeConfirmConsent      = "bankauth.command.consent.confirm"
	TypeDenyConsent         = "bankauth.command.consent.deny"
	TypeRevokeConsent       = "bankauth.command.consent.revoke"
	TypeRevokeAllForSubject = "bankauth.command.consent.revoke_all"
	TypeRegisterClient      = "bankauth.command.client.register"
)

type SubmitLoginMessage struct {
	InteractionID string
	Submission    core.LoginSubmission
}

func (SubmitLoginMessage) Type() string { return TypeSubmitLogin }

func (m SubmitLoginMessage) Validate() error {
	if strings.TrimSpace(m.InteractionID) == "" {
		return commandValidationError("interaction_id", "interaction id is required")
	}
	if strings.TrimSpace(m.Submission.Email) == "" {
		return commandValidationError("email", "email is required")
	}
	if m.Submission.Password == "" {
		return commandValidationError("password", "password is required")
	}
	return nil
}

type ConfirmConsentMessage struct {
	InteractionID string
	Submission    core.ConsentSubmission
}

func (ConfirmConsentMessage) Type() string { return TypeConfirmConsent }

func (m ConfirmConsentMessage) Validate() error {
	if strings.TrimSpace(m.InteractionID) == "" {
		return commandValidationError("interaction_id", "interaction id is required")
	}
	return nil
}

type DenyConsentMessage struct {
	InteractionID string
}

func (DenyConsentMessage) Type() string { return TypeDenyConsent }

func (m DenyConsentMessage) Validate() error {
	if strings.TrimSpace(m.InteractionID) == "" {
		return commandValidationError("interaction_id", "interaction id is required")
	}
	return nil
}

type RevokeConsentMessage struct {
	ConsentID string
}

func (RevokeConsentMessage) Type() string { return TypeRevokeConsent }

func (m RevokeConsentMessage) Validate() error {
	if strings.TrimSpace(m.ConsentID) == "" {
		return commandValidationError("consent_id", "consent id is required")
	}
	return nil
}

type RevokeAllForSubjectMessage struct {
	UserID string
}

func (RevokeAllForSubjectMessage) Type() string { return TypeRevokeAllForSubject }

func (m RevokeAllForSubjectMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return commandValidationError("user_id", "user id is required")
	}
	return nil
}

type RegisterClientMessage struct {
	Input core.CreateClientInput
}

func (RegisterClientMessage) Type() string { return TypeRegisterClient }

func (m RegisterClientMessage) Validate() error {
	if strings.TrimSpace(m.Input.ClientID) == "" {
		return commandValidationError("client_id", "client id is required")
	}
	if strings.TrimSpace(m.Input.Name) == "" {
		return commandValidationError("name", "client name is required")
	}
	return nil
}
