package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service is the authorization core: it owns the consent ledger, the
// interaction prompts, and the hooks the external protocol engine calls
// back into during token issuance.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	engine          Engine
	artifacts       ArtifactStoreFactory
	clients         ClientResolver
	clientStore     ClientStore
	consentStore    ConsentStore
	subjects        SubjectResolver
	challenges      ChallengeStore
	loginGuard      LoginGuard

	consents     *ConsentService
	interactions *InteractionService
	projector    *ClaimsProjector
	hooks        *EngineHooks
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	Engine          Engine
	Artifacts       ArtifactStoreFactory
	Clients         ClientResolver
	ClientStore     ClientStore
	ConsentStore    ConsentStore
	Subjects        SubjectResolver
	Challenges      ChallengeStore
	LoginGuard      LoginGuard
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("bankauth", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("bankauth"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.artifacts == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: artifact store factory is required"))
	}
	if builder.consents == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: consent store is required"))
	}
	if builder.subjects == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: subject resolver is required"))
	}
	if builder.clients == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: client resolver is required"))
	}
	if builder.challenges == nil {
		builder.challenges = NewMemoryChallengeStore(finalConfig.ChallengeTTL)
	}

	consents, err := NewConsentService(builder.consents, grantRevokerFunc(func(ctx context.Context, grantID string) error {
		return revokeGrantEverywhere(ctx, builder.artifacts, grantID)
	}), logger)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	projector, err := NewClaimsProjector(builder.subjects)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	hooks, err := NewEngineHooks(finalConfig, builder.clients, projector, logger)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	service := &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		engine:          builder.engine,
		artifacts:       builder.artifacts,
		clients:         builder.clients,
		clientStore:     builder.clientStore,
		consentStore:    builder.consents,
		subjects:        builder.subjects,
		challenges:      builder.challenges,
		loginGuard:      builder.loginGuard,
		consents:        consents,
		projector:       projector,
		hooks:           hooks,
	}

	if builder.engine != nil {
		interactions, err := NewInteractionService(
			finalConfig,
			builder.engine,
			builder.clients,
			builder.subjects,
			consents,
			logger,
		)
		if err != nil {
			return nil, mapBuildError(builder.errorMapper, err)
		}
		interactions.SetLoginGuard(builder.loginGuard)
		service.interactions = interactions
	}

	return service, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

type grantRevokerFunc func(ctx context.Context, grantID string) error

func (f grantRevokerFunc) RevokeByGrantID(ctx context.Context, grantID string) error {
	return f(ctx, grantID)
}

// revokeGrantEverywhere sweeps every artifact kind for records tied to the
// grant. Individual stores already treat missing rows as a no-op.
func revokeGrantEverywhere(ctx context.Context, factory ArtifactStoreFactory, grantID string) error {
	grantID = strings.TrimSpace(grantID)
	if grantID == "" {
		return fmt.Errorf("core: grant id is required")
	}
	for _, kind := range ArtifactKinds() {
		store := factory.Artifacts(kind)
		if store == nil {
			continue
		}
		if err := store.RevokeByGrantID(ctx, grantID); err != nil {
			return fmt.Errorf("core: revoke %s artifacts: %w", kind, err)
		}
	}
	return nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		Engine:          s.engine,
		Artifacts:       s.artifacts,
		Clients:         s.clients,
		ClientStore:     s.clientStore,
		ConsentStore:    s.consentStore,
		Subjects:        s.subjects,
		Challenges:      s.challenges,
		LoginGuard:      s.loginGuard,
	}
}

func (s *Service) Consents() *ConsentService {
	if s == nil {
		return nil
	}
	return s.consents
}

func (s *Service) Interactions() *InteractionService {
	if s == nil {
		return nil
	}
	return s.interactions
}

func (s *Service) Hooks() *EngineHooks {
	if s == nil {
		return nil
	}
	return s.hooks
}

func (s *Service) Claims() *ClaimsProjector {
	if s == nil {
		return nil
	}
	return s.projector
}

func (s *Service) Artifacts(kind ArtifactKind) ArtifactStore {
	if s == nil || s.artifacts == nil {
		return nil
	}
	return s.artifacts.Artifacts(kind)
}

func (s *Service) Challenges() ChallengeStore {
	if s == nil {
		return nil
	}
	return s.challenges
}

// InteractionDetails resolves the view for an interaction prompt.
func (s *Service) InteractionDetails(ctx context.Context, interactionID string) (view InteractionView, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "interaction_details", err, map[string]any{
			"interaction_id": interactionID,
		})
	}()
	interactions, err := s.requireInteractions()
	if err != nil {
		return InteractionView{}, err
	}
	view, err = interactions.Details(ctx, interactionID)
	return view, s.mapError(err)
}

func (s *Service) SubmitLogin(ctx context.Context, interactionID string, submission LoginSubmission) (view InteractionView, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "submit_login", err, map[string]any{
			"interaction_id": interactionID,
		})
	}()
	interactions, err := s.requireInteractions()
	if err != nil {
		return InteractionView{}, err
	}
	view, err = interactions.SubmitLogin(ctx, interactionID, submission)
	return view, s.mapError(err)
}

func (s *Service) ConfirmConsent(ctx context.Context, interactionID string, submission ConsentSubmission) (result ConsentResult, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "confirm_consent", err, map[string]any{
			"interaction_id": interactionID,
			"grant_id":       result.GrantID,
		})
	}()
	interactions, err := s.requireInteractions()
	if err != nil {
		return ConsentResult{}, err
	}
	result, err = interactions.ConfirmConsent(ctx, interactionID, submission)
	return result, s.mapError(err)
}

func (s *Service) DenyConsent(ctx context.Context, interactionID string) (err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "deny_consent", err, map[string]any{
			"interaction_id": interactionID,
		})
	}()
	interactions, err := s.requireInteractions()
	if err != nil {
		return err
	}
	return s.mapError(interactions.Deny(ctx, interactionID))
}

func (s *Service) ListActiveConsents(ctx context.Context, userID string) (summaries []ConsentSummary, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "list_active_consents", err, map[string]any{
			"user_id": userID,
		})
	}()
	summaries, err = s.consents.ListActive(ctx, userID)
	return summaries, s.mapError(err)
}

func (s *Service) RevokeConsent(ctx context.Context, consentID string) (consent Consent, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "revoke_consent", err, map[string]any{
			"consent_id": consentID,
			"grant_id":   consent.GrantID,
		})
	}()
	consent, err = s.consents.Revoke(ctx, consentID)
	return consent, s.mapError(err)
}

func (s *Service) RevokeAllForSubject(ctx context.Context, userID string) (revoked int, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "revoke_all_for_subject", err, map[string]any{
			"user_id": userID,
			"count":   revoked,
		})
	}()
	revoked, err = s.consents.RevokeAllForSubject(ctx, userID)
	return revoked, s.mapError(err)
}

func (s *Service) requireInteractions() (*InteractionService, error) {
	if s == nil || s.interactions == nil {
		return nil, fmt.Errorf("core: protocol engine is not configured")
	}
	return s.interactions, nil
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
