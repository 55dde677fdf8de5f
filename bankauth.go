// Package bankauth is the authorization core of the demo bank: artifact
// persistence for the OAuth2/OIDC protocol engine, the login/consent
// interaction flow, the durable consent ledger with cascading revocation,
// and claims/resource projection.
package bankauth

import "github.com/goliatone/go-bankauth/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type ArtifactKind = core.ArtifactKind
type ArtifactStore = core.ArtifactStore
type ArtifactStoreFactory = core.ArtifactStoreFactory
type ArtifactPayload = core.ArtifactPayload
type ChallengeStore = core.ChallengeStore
type Client = core.Client
type ClientResolver = core.ClientResolver
type ClientStore = core.ClientStore
type Consent = core.Consent
type ConsentStore = core.ConsentStore
type ConsentSummary = core.ConsentSummary
type Engine = core.Engine
type EngineGrant = core.EngineGrant
type Subject = core.Subject
type SubjectResolver = core.SubjectResolver

type LoginGuard = core.LoginGuard

type InteractionView = core.InteractionView
type LoginSubmission = core.LoginSubmission
type ConsentSubmission = core.ConsentSubmission
type ConsentResult = core.ConsentResult

var (
	WithLogger               = core.WithLogger
	WithLoggerProvider       = core.WithLoggerProvider
	WithMetricsRecorder      = core.WithMetricsRecorder
	WithErrorFactory         = core.WithErrorFactory
	WithErrorMapper          = core.WithErrorMapper
	WithConfigProvider       = core.WithConfigProvider
	WithOptionsResolver      = core.WithOptionsResolver
	WithEngine               = core.WithEngine
	WithArtifactStoreFactory = core.WithArtifactStoreFactory
	WithClientResolver       = core.WithClientResolver
	WithClientStore          = core.WithClientStore
	WithConsentStore         = core.WithConsentStore
	WithSubjectResolver      = core.WithSubjectResolver
	WithChallengeStore       = core.WithChallengeStore
	WithLoginGuard           = core.WithLoginGuard
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
