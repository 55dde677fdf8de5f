package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type InteractionState string

const (
	InteractionAwaitingLogin   InteractionState = "awaiting_login"
	InteractionAwaitingConsent InteractionState = "awaiting_consent"
	InteractionFinished        InteractionState = "finished"
	InteractionAborted         InteractionState = "aborted"
	InteractionInvalid         InteractionState = "invalid"
)

const accessDeniedDescription = "End-user denied the authorization request"

type ScopeDescription struct {
	Scope       string
	Description string
}

// InteractionView is what the login and consent screens render.
type InteractionView struct {
	ID           string
	State        InteractionState
	Prompt       string
	Client       ClientDisplay
	Scopes       []ScopeDescription
	Accounts     []BankAccount
	ErrorMessage string
}

type LoginSubmission struct {
	Email    string
	Password string
	Remember bool
}

// ConsentSubmission carries the user's resource selection as submitted by
// the form: a single id, a list, or nothing at all.
type ConsentSubmission struct {
	AccountIDs any
}

type ConsentResult struct {
	GrantID   string
	ConsentID string
}

// InteractionService mediates the two prompts the engine delegates to this
// module before it will issue tokens.
type InteractionService struct {
	engine   Engine
	clients  ClientResolver
	subjects SubjectResolver
	consents *ConsentService
	guard    LoginGuard
	config   Config
	logger   Logger
}

func NewInteractionService(
	config Config,
	engine Engine,
	clients ClientResolver,
	subjects SubjectResolver,
	consents *ConsentService,
	logger Logger,
) (*InteractionService, error) {
	if engine == nil {
		return nil, fmt.Errorf("core: protocol engine is required")
	}
	if clients == nil {
		return nil, fmt.Errorf("core: client resolver is required")
	}
	if subjects == nil {
		return nil, fmt.Errorf("core: subject resolver is required")
	}
	if consents == nil {
		return nil, fmt.Errorf("core: consent service is required")
	}
	return &InteractionService{
		engine:   engine,
		clients:  clients,
		subjects: subjects,
		consents: consents,
		config:   config,
		logger:   logger,
	}, nil
}

// SetLoginGuard installs an optional credential attempt throttle. A nil
// guard leaves submissions unthrottled.
func (s *InteractionService) SetLoginGuard(guard LoginGuard) {
	if s == nil {
		return
	}
	s.guard = guard
}

// Details resolves an interaction into the view the next prompt renders.
func (s *InteractionService) Details(ctx context.Context, interactionID string) (InteractionView, error) {
	details, err := s.interaction(ctx, interactionID)
	if err != nil {
		return InteractionView{ID: strings.TrimSpace(interactionID), State: InteractionInvalid}, err
	}

	switch details.Prompt {
	case PromptLogin:
		return s.loginView(ctx, details, ""), nil
	case PromptConsent:
		return s.consentView(ctx, details)
	default:
		return InteractionView{ID: details.ID, State: InteractionInvalid},
			fmt.Errorf("%w: %q", ErrUnknownPrompt, details.Prompt)
	}
}

// SubmitLogin verifies the credential and, on success, hands the engine a
// login result. A failed verification re-renders the login state without
// transitioning and without disclosing whether the email exists.
func (s *InteractionService) SubmitLogin(ctx context.Context, interactionID string, submission LoginSubmission) (InteractionView, error) {
	details, err := s.interaction(ctx, interactionID)
	if err != nil {
		return InteractionView{ID: strings.TrimSpace(interactionID), State: InteractionInvalid}, err
	}

	attemptKey := strings.ToLower(strings.TrimSpace(submission.Email))
	if s.guard != nil {
		if guardErr := s.guard.BeforeAttempt(ctx, attemptKey); guardErr != nil {
			if errors.Is(guardErr, ErrTooManyAttempts) {
				return InteractionView{ID: details.ID, State: InteractionAwaitingLogin}, guardErr
			}
			// A guard bookkeeping failure must not lock every user out.
			s.logInfo("login guard check failed", "interaction_id", details.ID, "error", guardErr)
		}
	}

	subject, err := s.subjects.VerifyCredential(ctx, submission.Email, submission.Password)
	if s.guard != nil {
		if guardErr := s.guard.AfterAttempt(ctx, attemptKey, err == nil); guardErr != nil {
			s.logInfo("login guard update failed", "interaction_id", details.ID, "error", guardErr)
		}
	}
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return s.loginView(ctx, details, "Invalid email or password"), nil
		}
		return InteractionView{ID: details.ID, State: InteractionInvalid}, err
	}

	if err := s.engine.FinishLogin(ctx, details.ID, LoginResult{
		AccountRef: subject.ExternalRef,
		Remember:   submission.Remember,
	}); err != nil {
		return InteractionView{ID: details.ID, State: InteractionInvalid}, err
	}

	s.logInfo("login completed", "interaction_id", details.ID, "client_id", details.ClientID)
	return InteractionView{
		ID:     details.ID,
		State:  InteractionAwaitingConsent,
		Prompt: PromptConsent,
	}, nil
}

// ConfirmConsent records the approval durably, constructs the engine's
// grant, and hands the grant id back so the engine can finish issuance.
func (s *InteractionService) ConfirmConsent(ctx context.Context, interactionID string, submission ConsentSubmission) (ConsentResult, error) {
	details, err := s.interaction(ctx, interactionID)
	if err != nil {
		return ConsentResult{}, err
	}

	// Interaction details may have been re-issued since login; resolve the
	// subject again. A session whose account disappeared mid-flow fails
	// outward instead of granting for a non-existent subject.
	subject, err := s.subjects.ResolveByExternalRef(ctx, details.SessionAccountRef)
	if err != nil {
		return ConsentResult{}, err
	}

	scopes := NormalizeScopes(details.RequestedScopes)
	accountIDs := NormalizeResourceIDs(submission.AccountIDs)
	grantID := uuid.NewString()

	consent, err := s.consents.Create(ctx, CreateConsentInput{
		GrantID:    grantID,
		UserID:     subject.ID,
		ClientID:   details.ClientID,
		Scopes:     scopes,
		AccountIDs: accountIDs,
	})
	if err != nil {
		return ConsentResult{}, err
	}

	grant := EngineGrant{
		ID:         grantID,
		AccountRef: subject.ExternalRef,
		ClientID:   details.ClientID,
		Scopes:     scopes,
	}
	if indicator := strings.TrimSpace(details.ResourceIndicator); indicator != "" {
		grant.ResourceScopes = map[string][]string{
			indicator: append([]string(nil), scopes...),
		}
	}
	if err := s.engine.SaveGrant(ctx, grant); err != nil {
		return ConsentResult{}, err
	}
	if err := s.engine.FinishConsent(ctx, details.ID, grantID); err != nil {
		return ConsentResult{}, err
	}

	s.logInfo("consent recorded",
		"interaction_id", details.ID,
		"client_id", details.ClientID,
		"grant_id", grantID,
		"scope_count", len(scopes),
		"account_count", len(accountIDs),
	)
	return ConsentResult{GrantID: grantID, ConsentID: consent.ID}, nil
}

// Deny aborts the interaction with a structured access_denied result. No
// consent is written.
func (s *InteractionService) Deny(ctx context.Context, interactionID string) error {
	details, err := s.interaction(ctx, interactionID)
	if err != nil {
		return err
	}
	if err := s.engine.FinishDenied(ctx, details.ID, "access_denied", accessDeniedDescription); err != nil {
		return err
	}
	s.logInfo("consent denied", "interaction_id", details.ID, "client_id", details.ClientID)
	return nil
}

func (s *InteractionService) interaction(ctx context.Context, interactionID string) (InteractionDetails, error) {
	interactionID = strings.TrimSpace(interactionID)
	if interactionID == "" {
		return InteractionDetails{}, fmt.Errorf("core: interaction id is required")
	}
	details, err := s.engine.Interaction(ctx, interactionID)
	if err != nil {
		return InteractionDetails{}, fmt.Errorf("%w: %s", ErrInteractionNotFound, interactionID)
	}
	return details, nil
}

func (s *InteractionService) loginView(ctx context.Context, details InteractionDetails, errorMessage string) InteractionView {
	return InteractionView{
		ID:           details.ID,
		State:        InteractionAwaitingLogin,
		Prompt:       PromptLogin,
		Client:       s.resolveClientDisplay(ctx, details.ClientID),
		ErrorMessage: errorMessage,
	}
}

func (s *InteractionService) consentView(ctx context.Context, details InteractionDetails) (InteractionView, error) {
	subject, err := s.subjects.ResolveByExternalRef(ctx, details.SessionAccountRef)
	if err != nil {
		return InteractionView{ID: details.ID, State: InteractionInvalid}, err
	}
	accounts, err := s.subjects.Accounts(ctx, subject.ID)
	if err != nil {
		return InteractionView{ID: details.ID, State: InteractionInvalid}, err
	}

	return InteractionView{
		ID:       details.ID,
		State:    InteractionAwaitingConsent,
		Prompt:   PromptConsent,
		Client:   s.resolveClientDisplay(ctx, details.ClientID),
		Scopes:   s.describeScopes(details.RequestedScopes),
		Accounts: accounts,
	}, nil
}

func (s *InteractionService) resolveClientDisplay(ctx context.Context, clientID string) ClientDisplay {
	client, found, err := s.clients.Resolve(ctx, clientID)
	if err != nil || !found {
		return UnknownClientDisplay(clientID)
	}
	return ClientDisplay{
		ClientID: client.ClientID,
		Name:     client.Name,
		LogoURI:  client.LogoURI,
		Known:    true,
	}
}

// describeScopes filters the requested list down to scopes with a known
// human-readable description; unknown scopes are not shown on the consent
// screen.
func (s *InteractionService) describeScopes(requested []string) []ScopeDescription {
	out := make([]ScopeDescription, 0, len(requested))
	for _, scope := range NormalizeScopes(requested) {
		description, ok := s.config.ScopeDescriptions[scope]
		if !ok {
			continue
		}
		out = append(out, ScopeDescription{Scope: scope, Description: description})
	}
	return out
}

// NormalizeResourceIDs accepts the consent form's account selection as a
// scalar, a list, or nothing, and always yields a list, possibly empty.
func NormalizeResourceIDs(value any) []string {
	switch typed := value.(type) {
	case nil:
		return []string{}
	case string:
		if trimmed := strings.TrimSpace(typed); trimmed != "" {
			return []string{trimmed}
		}
		return []string{}
	case []string:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if trimmed := strings.TrimSpace(fmt.Sprint(item)); trimmed != "" && trimmed != "<nil>" {
				out = append(out, trimmed)
			}
		}
		return out
	default:
		if trimmed := strings.TrimSpace(fmt.Sprint(typed)); trimmed != "" && trimmed != "<nil>" {
			return []string{trimmed}
		}
		return []string{}
	}
}

func (s *InteractionService) logInfo(message string, args ...any) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Info(message, args...)
}
