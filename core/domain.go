package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInteractionNotFound = errors.New("core: interaction not found")
	ErrUnknownPrompt       = errors.New("core: unknown interaction prompt")
	ErrInvalidCredentials  = errors.New("core: invalid email or password")
	ErrTooManyAttempts     = errors.New("core: too many login attempts")
	ErrSubjectNotFound     = errors.New("core: subject not found")
	ErrClientNotFound      = errors.New("core: client not found")
	ErrConsentNotFound     = errors.New("core: consent not found")
	ErrArtifactNotFound    = errors.New("core: artifact not found")
	ErrAlreadyExists       = errors.New("core: resource already exists")
)

// ArtifactKind enumerates every protocol object the engine persists through
// the artifact store. The names match the engine's model names verbatim so
// the composite key kind:id round-trips without translation.
type ArtifactKind string

const (
	KindSession                          ArtifactKind = "Session"
	KindAccessToken                      ArtifactKind = "AccessToken"
	KindAuthorizationCode                ArtifactKind = "AuthorizationCode"
	KindRefreshToken                     ArtifactKind = "RefreshToken"
	KindDeviceCode                       ArtifactKind = "DeviceCode"
	KindClientCredentials                ArtifactKind = "ClientCredentials"
	KindClient                           ArtifactKind = "Client"
	KindInitialAccessToken               ArtifactKind = "InitialAccessToken"
	KindRegistrationAccessToken          ArtifactKind = "RegistrationAccessToken"
	KindInteraction                      ArtifactKind = "Interaction"
	KindReplayDetection                  ArtifactKind = "ReplayDetection"
	KindPushedAuthorizationRequest       ArtifactKind = "PushedAuthorizationRequest"
	KindGrant                            ArtifactKind = "Grant"
	KindBackchannelAuthenticationRequest ArtifactKind = "BackchannelAuthenticationRequest"
)

func ArtifactKinds() []ArtifactKind {
	return []ArtifactKind{
		KindSession,
		KindAccessToken,
		KindAuthorizationCode,
		KindRefreshToken,
		KindDeviceCode,
		KindClientCredentials,
		KindClient,
		KindInitialAccessToken,
		KindRegistrationAccessToken,
		KindInteraction,
		KindReplayDetection,
		KindPushedAuthorizationRequest,
		KindGrant,
		KindBackchannelAuthenticationRequest,
	}
}

func (k ArtifactKind) Validate() error {
	for _, known := range ArtifactKinds() {
		if k == known {
			return nil
		}
	}
	return fmt.Errorf("core: invalid artifact kind %q", string(k))
}

// Artifact is one persisted protocol object. The payload is owned by the
// engine; grant id, user code, and uid are denormalized out of it at write
// time so lookups never deserialize payloads.
type Artifact struct {
	Kind       ArtifactKind
	ID         string
	Payload    ArtifactPayload
	GrantID    string
	UserCode   string
	UID        string
	ExpiresAt  *time.Time
	ConsumedAt *time.Time
}

// Client is a registered relying party.
type Client struct {
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
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// ClientDisplay is the subset of client metadata the interaction screens
// render. A client that cannot be resolved renders as the placeholder.
type ClientDisplay struct {
	ClientID string
	Name     string
	LogoURI  string
	Known    bool
}

const UnknownClientName = "Unknown Application"

func UnknownClientDisplay(clientID string) ClientDisplay {
	return ClientDisplay{
		ClientID: strings.TrimSpace(clientID),
		Name:     UnknownClientName,
	}
}

// Consent is the durable record of a user's approval. It outlives the
// engine's ephemeral artifacts and is the anchor revocation operates on.
type Consent struct {
	ID         string
	GrantID    string
	UserID     string
	ClientID   string
	Scopes     []string
	AccountIDs []string
	ExpiresAt  *time.Time
	RevokedAt  *time.Time
	CreatedAt  time.Time
}

func (c Consent) Active() bool {
	if c.RevokedAt != nil {
		return false
	}
	if c.ExpiresAt != nil && time.Now().UTC().After(*c.ExpiresAt) {
		return false
	}
	return true
}

// ConsentSummary enriches a consent with display metadata and a live token
// count for administrative review.
type ConsentSummary struct {
	Consent
	ClientName   string
	SubjectName  string
	SubjectEmail string
	LiveTokens   int
}

// Subject is the internal user record. ExternalRef is the stable identifier
// asserted to relying parties as the sub claim; it never changes even when
// internal storage keys do.
type Subject struct {
	ID          string
	ExternalRef string
	Email       string
	FullName    string
	GivenName   string
	FamilyName  string
	Birthdate   string
	Phone       string
	Address     Address
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Address struct {
	Street     string
	City       string
	Region     string
	PostalCode string
	Country    string
}

func (a Address) Empty() bool {
	return strings.TrimSpace(a.Street) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.Region) == "" &&
		strings.TrimSpace(a.PostalCode) == "" &&
		strings.TrimSpace(a.Country) == ""
}

func (a Address) Map() map[string]any {
	formatted := strings.TrimSpace(strings.Join([]string{a.Street, a.City, a.Region, a.PostalCode, a.Country}, ", "))
	return map[string]any{
		"formatted":      formatted,
		"street_address": strings.TrimSpace(a.Street),
		"locality":       strings.TrimSpace(a.City),
		"region":         strings.TrimSpace(a.Region),
		"postal_code":    strings.TrimSpace(a.PostalCode),
		"country":        strings.TrimSpace(a.Country),
	}
}

// BankAccount is a resource instance the user can grant a client access to.
type BankAccount struct {
	ID        string
	SubjectID string
	Name      string
	Number    string
	Type      string
}

// TokenUse distinguishes which token a claim set is being computed for.
type TokenUse string

const (
	TokenUseID     TokenUse = "id_token"
	TokenUseAccess TokenUse = "access_token"
)

// ResourceServerInfo describes the audience restriction applied to an access
// token issued for a resource indicator.
type ResourceServerInfo struct {
	Audience    string
	Scope       string
	TokenFormat string
}

const ResourceTokenFormatJWT = "jwt"
