package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-bankauth/core"
)

// MutatingService is the slice of the authorization core the command layer
// drives. The concrete implementation is *core.Service.
type MutatingService interface {
	SubmitLogin(ctx context.Context, interactionID string, submission core.LoginSubmission) (core.InteractionView, error)
	ConfirmConsent(ctx context.Context, interactionID string, submission core.ConsentSubmission) (core.ConsentResult, error)
	DenyConsent(ctx context.Context, interactionID string) error
	RevokeConsent(ctx context.Context, consentID string) (core.Consent, error)
	RevokeAllForSubject(ctx context.Context, userID string) (int, error)
}

// ClientRegistry is the mutation surface for relying party records.
type ClientRegistry interface {
	Create(ctx context.Context, in core.CreateClientInput) (core.Client, error)
}

type SubmitLoginCommand struct {
	service MutatingService
}

func NewSubmitLoginCommand(service MutatingService) *SubmitLoginCommand {
	return &SubmitLoginCommand{service: service}
}

func (c *SubmitLoginCommand) Execute(ctx context.Context, msg SubmitLoginMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: login service is required")
	}
	out, err := c.service.SubmitLogin(ctx, msg.InteractionID, msg.Submission)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ConfirmConsentCommand struct {
	service MutatingService
}

func NewConfirmConsentCommand(service MutatingService) *ConfirmConsentCommand {
	return &ConfirmConsentCommand{service: service}
}

func (c *ConfirmConsentCommand) Execute(ctx context.Context, msg ConfirmConsentMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: consent service is required")
	}
	out, err := c.service.ConfirmConsent(ctx, msg.InteractionID, msg.Submission)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DenyConsentCommand struct {
	service MutatingService
}

func NewDenyConsentCommand(service MutatingService) *DenyConsentCommand {
	return &DenyConsentCommand{service: service}
}

func (c *DenyConsentCommand) Execute(ctx context.Context, msg DenyConsentMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: consent service is required")
	}
	return c.service.DenyConsent(ctx, msg.InteractionID)
}

type RevokeConsentCommand struct {
	service MutatingService
}

func NewRevokeConsentCommand(service MutatingService) *RevokeConsentCommand {
	return &RevokeConsentCommand{service: service}
}

func (c *RevokeConsentCommand) Execute(ctx context.Context, msg RevokeConsentMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: revoke service is required")
	}
	out, err := c.service.RevokeConsent(ctx, msg.ConsentID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RevokeAllForSubjectCommand struct {
	service MutatingService
}

func NewRevokeAllForSubjectCommand(service MutatingService) *RevokeAllForSubjectCommand {
	return &RevokeAllForSubjectCommand{service: service}
}

func (c *RevokeAllForSubjectCommand) Execute(ctx context.Context, msg RevokeAllForSubjectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: revoke service is required")
	}
	out, err := c.service.RevokeAllForSubject(ctx, msg.UserID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RegisterClientCommand struct {
	registry ClientRegistry
}

func NewRegisterClientCommand(registry ClientRegistry) *RegisterClientCommand {
	return &RegisterClientCommand{registry: registry}
}

func (c *RegisterClientCommand) Execute(ctx context.Context, msg RegisterClientMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: client registry is required")
	}
	out, err := c.registry.Create(ctx, msg.Input)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
