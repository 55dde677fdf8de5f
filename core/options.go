package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig   Config
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
	consents        ConsentStore
	subjects        SubjectResolver
	challenges      ChallengeStore
	loginGuard      LoginGuard
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *serviceBuilder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithEngine(engine Engine) Option {
	return func(b *serviceBuilder) {
		b.engine = engine
	}
}

func WithArtifactStoreFactory(factory ArtifactStoreFactory) Option {
	return func(b *serviceBuilder) {
		b.artifacts = factory
	}
}

func WithClientResolver(resolver ClientResolver) Option {
	return func(b *serviceBuilder) {
		b.clients = resolver
	}
}

func WithClientStore(store ClientStore) Option {
	return func(b *serviceBuilder) {
		b.clientStore = store
	}
}

func WithConsentStore(store ConsentStore) Option {
	return func(b *serviceBuilder) {
		b.consents = store
	}
}

func WithSubjectResolver(resolver SubjectResolver) Option {
	return func(b *serviceBuilder) {
		b.subjects = resolver
	}
}

func WithChallengeStore(store ChallengeStore) Option {
	return func(b *serviceBuilder) {
		b.challenges = store
	}
}

func WithLoginGuard(guard LoginGuard) Option {
	return func(b *serviceBuilder) {
		b.loginGuard = guard
	}
}

func defaultServiceBuilder(runtime Config) serviceBuilder {
	loggerProvider, logger := glog.Resolve("bankauth", nil, nil)
	return serviceBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		configProvider:  NewCfgxConfigProvider(nil),
		optionsResolver: GoOptionsResolver{},
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return authErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.InteractionBasePath) != "" {
		layer["interaction_base_path"] = cfg.InteractionBasePath
	}
	if includeZero || cfg.ChallengeTTL > 0 {
		layer["challenge_ttl"] = cfg.ChallengeTTL
	}
	if includeZero || strings.TrimSpace(cfg.DefaultResource.Audience) != "" {
		layer["default_resource"] = map[string]any{
			"audience": cfg.DefaultResource.Audience,
			"scope":    cfg.DefaultResource.Scope,
		}
	}
	if includeZero || len(cfg.Resources) > 0 {
		resources := make([]map[string]any, 0, len(cfg.Resources))
		for _, resource := range cfg.Resources {
			resources = append(resources, map[string]any{
				"audience": resource.Audience,
				"scope":    resource.Scope,
			})
		}
		layer["resources"] = resources
	}
	if includeZero || len(cfg.ScopeDescriptions) > 0 {
		descriptions := make(map[string]any, len(cfg.ScopeDescriptions))
		for scope, description := range cfg.ScopeDescriptions {
			descriptions[scope] = description
		}
		layer["scope_descriptions"] = descriptions
	}
	return layer
}
