package sqlstore

import (
	"fmt"
	"time"

	"github.com/goliatone/go-bankauth/core"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

// RepositoryFactory builds and hands out the SQL-backed stores over a shared
// bun connection. It implements core.ArtifactStoreFactory, so it can be
// handed to the service as the artifact backend directly.
type RepositoryFactory struct {
	db           *bun.DB
	challengeTTL time.Duration

	clientStore    *ClientStore
	consentStore   *ConsentStore
	userStore      *UserStore
	challengeStore *ChallengeStore
	artifactStores map[core.ArtifactKind]*ArtifactStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// WithChallengeTTL sets the lifetime applied to persisted login challenges.
// It must be called before BuildStores to take effect.
func (f *RepositoryFactory) WithChallengeTTL(ttl time.Duration) *RepositoryFactory {
	if f != nil && ttl > 0 {
		f.challengeTTL = ttl
	}
	return f
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.clientStore != nil && f.consentStore != nil {
		return nil
	}
	return f.initStores()
}

// Artifacts returns the store for the given artifact kind, or nil when the
// kind is unknown or the factory has not been built.
func (f *RepositoryFactory) Artifacts(kind core.ArtifactKind) core.ArtifactStore {
	if f == nil {
		return nil
	}
	store, ok := f.artifactStores[kind]
	if !ok {
		return nil
	}
	return store
}

func (f *RepositoryFactory) ClientStore() core.ClientStore {
	if f == nil {
		return nil
	}
	return f.clientStore
}

func (f *RepositoryFactory) ConsentStore() core.ConsentStore {
	if f == nil {
		return nil
	}
	return f.consentStore
}

func (f *RepositoryFactory) UserStore() core.SubjectStore {
	if f == nil {
		return nil
	}
	return f.userStore
}

func (f *RepositoryFactory) ChallengeStore() core.ChallengeStore {
	if f == nil {
		return nil
	}
	return f.challengeStore
}

// ClientResolver returns the active-client lookup strategy backed by the
// client store.
func (f *RepositoryFactory) ClientResolver() core.ClientResolver {
	if f == nil || f.clientStore == nil {
		return nil
	}
	resolver, err := NewStoreClientResolver(f.clientStore)
	if err != nil {
		return nil
	}
	return resolver
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	clientStore, err := NewClientStore(f.db)
	if err != nil {
		return err
	}
	f.clientStore = clientStore

	consentStore, err := NewConsentStore(f.db)
	if err != nil {
		return err
	}
	f.consentStore = consentStore

	userStore, err := NewUserStore(f.db)
	if err != nil {
		return err
	}
	f.userStore = userStore

	challengeStore, err := NewChallengeStore(f.db, f.challengeTTL)
	if err != nil {
		return err
	}
	f.challengeStore = challengeStore

	f.artifactStores = make(map[core.ArtifactKind]*ArtifactStore, len(core.ArtifactKinds()))
	for _, kind := range core.ArtifactKinds() {
		store, err := NewArtifactStore(f.db, kind)
		if err != nil {
			return err
		}
		f.artifactStores[kind] = store
	}

	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
