package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// ArtifactStore is the persistence contract the protocol engine consumes,
// parameterized by artifact kind. Instances hold no in-process state and are
// safe to create per kind per request.
type ArtifactStore interface {
	Kind() ArtifactKind

	// Upsert writes or overwrites the record for kind:id. A zero expiresIn
	// leaves the record without expiry; overwrite is never an error.
	Upsert(ctx context.Context, id string, payload ArtifactPayload, expiresIn time.Duration) error

	// Find returns the payload for kind:id. A missing or expired record
	// reports absent, never an error.
	Find(ctx context.Context, id string) (ArtifactPayload, bool, error)

	FindByUserCode(ctx context.Context, userCode string) (ArtifactPayload, bool, error)

	FindByUID(ctx context.Context, uid string) (ArtifactPayload, bool, error)

	// Consume marks the record used without deleting it. Consuming a
	// missing record is an error.
	Consume(ctx context.Context, id string) error

	// Destroy hard-deletes the record. Destroying a missing record is a
	// no-op so retried revocations stay safe.
	Destroy(ctx context.Context, id string) error

	// RevokeByGrantID deletes every record across all kinds whose grant id
	// matches; used for full-session teardown.
	RevokeByGrantID(ctx context.Context, grantID string) error
}

// ArtifactStoreFactory hands the engine a store per artifact kind.
type ArtifactStoreFactory interface {
	Artifacts(kind ArtifactKind) ArtifactStore
}

// GrantRevoker is the slice of the artifact store the consent service needs
// to tear live tokens down with a consent.
type GrantRevoker interface {
	RevokeByGrantID(ctx context.Context, grantID string) error
}

type CreateClientInput struct {
	ClientID               string
	Secret                 string
	Name                   string
	RedirectURIs           []string
	PostLogoutRedirectURIs []string
	GrantTypes             []string
	ResponseTypes          []string
	Scope                  string
	LogoURI                string
	PolicyURI              string
	TOSURI                 string
	Contacts               []string
	Active                 bool
}

type ClientStore interface {
	Create(ctx context.Context, in CreateClientInput) (Client, error)
	Get(ctx context.Context, clientID string) (Client, error)
	List(ctx context.Context) ([]Client, error)
	Update(ctx context.Context, clientID string, in CreateClientInput) (Client, error)
	Delete(ctx context.Context, clientID string) error
}

// ClientResolver is the explicit lookup strategy the engine is configured
// with: check cache, else query store, else absent. Only active clients
// resolve.
type ClientResolver interface {
	Resolve(ctx context.Context, clientID string) (Client, bool, error)
}

type CreateConsentInput struct {
	GrantID    string
	UserID     string
	ClientID   string
	Scopes     []string
	AccountIDs []string
	ExpiresAt  *time.Time
}

type ConsentStore interface {
	Create(ctx context.Context, in CreateConsentInput) (Consent, error)
	Get(ctx context.Context, id string) (Consent, error)

	// ListActive returns non-revoked consents enriched with client and
	// subject display metadata. An empty userID lists every subject.
	ListActive(ctx context.Context, userID string) ([]ConsentSummary, error)

	MarkRevoked(ctx context.Context, id string, at time.Time) error
}

// SubjectStore is the persistence contract the identity resolver reads.
type SubjectStore interface {
	GetByID(ctx context.Context, id string) (Subject, error)
	GetByExternalRef(ctx context.Context, externalRef string) (Subject, error)
	GetByEmail(ctx context.Context, email string) (Subject, error)
	CredentialHash(ctx context.Context, subjectID string) ([]byte, error)
	ListAccounts(ctx context.Context, subjectID string) ([]BankAccount, error)
}

// SubjectResolver maps between the engine's opaque account reference and the
// durable internal subject record.
type SubjectResolver interface {
	ResolveByID(ctx context.Context, id string) (Subject, error)
	ResolveByExternalRef(ctx context.Context, externalRef string) (Subject, error)
	VerifyCredential(ctx context.Context, email string, password string) (Subject, error)
	Accounts(ctx context.Context, subjectID string) ([]BankAccount, error)
}

// LoginGuard throttles credential attempts ahead of verification. A guard
// that refuses an attempt returns an error wrapping ErrTooManyAttempts;
// AfterAttempt records the outcome so consecutive failures back off.
type LoginGuard interface {
	BeforeAttempt(ctx context.Context, email string) error
	AfterAttempt(ctx context.Context, email string, succeeded bool) error
}

// InteractionDetails is the engine's handle for a paused authorization
// request awaiting a login or consent decision.
type InteractionDetails struct {
	ID                string
	Prompt            string
	ClientID          string
	SessionAccountRef string
	RequestedScopes   []string
	ResourceIndicator string
}

const (
	PromptLogin   = "login"
	PromptConsent = "consent"
)

type LoginResult struct {
	AccountRef string
	Remember   bool
}

// EngineGrant is the in-engine-memory grant object this core constructs on
// consent confirmation. ResourceScopes projects the approved scope set onto
// a resource audience when an indicator was requested.
type EngineGrant struct {
	ID             string
	AccountRef     string
	ClientID       string
	Scopes         []string
	ResourceScopes map[string][]string
}

// Engine is the surface of the external OAuth2/OIDC protocol engine this
// core mediates login and consent for. The engine owns interaction expiry;
// an unresolvable interaction id surfaces as an error here.
type Engine interface {
	Interaction(ctx context.Context, id string) (InteractionDetails, error)
	SaveGrant(ctx context.Context, grant EngineGrant) error
	FinishLogin(ctx context.Context, interactionID string, result LoginResult) error
	FinishConsent(ctx context.Context, interactionID string, grantID string) error
	FinishDenied(ctx context.Context, interactionID string, errorCode string, description string) error
}

// ChallengeStore keeps in-flight authentication ceremony challenges, keyed
// by email or ChallengeKeyGlobal when the email is not yet known. Entries
// are short-lived and consumed on first read.
type ChallengeStore interface {
	Put(ctx context.Context, key string, value []byte) error
	Take(ctx context.Context, key string) ([]byte, bool, error)
}

const ChallengeKeyGlobal = "__global__"
