package core

import (
	"context"
	"sync"
	"testing"
	"time"
)

type memArtifactStore struct {
	mu      sync.Mutex
	kind    ArtifactKind
	records map[string]ArtifactPayload
}

func (s *memArtifactStore) Kind() ArtifactKind { return s.kind }

func (s *memArtifactStore) Upsert(_ context.Context, id string, payload ArtifactPayload, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = payload
	return nil
}

func (s *memArtifactStore) Find(_ context.Context, id string) (ArtifactPayload, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.records[id]
	return payload, ok, nil
}

func (s *memArtifactStore) FindByUserCode(_ context.Context, userCode string) (ArtifactPayload, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, payload := range s.records {
		if payload.UserCode() == userCode {
			return payload, true, nil
		}
	}
	return ArtifactPayload{}, false, nil
}

func (s *memArtifactStore) FindByUID(_ context.Context, uid string) (ArtifactPayload, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, payload := range s.records {
		if payload.UID() == uid {
			return payload, true, nil
		}
	}
	return ArtifactPayload{}, false, nil
}

func (s *memArtifactStore) Consume(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrArtifactNotFound
	}
	return nil
}

func (s *memArtifactStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *memArtifactStore) RevokeByGrantID(_ context.Context, grantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, payload := range s.records {
		if payload.GrantID() == grantID {
			delete(s.records, id)
		}
	}
	return nil
}

type memArtifactFactory struct {
	mu     sync.Mutex
	stores map[ArtifactKind]*memArtifactStore
}

func newMemArtifactFactory() *memArtifactFactory {
	return &memArtifactFactory{stores: map[ArtifactKind]*memArtifactStore{}}
}

func (f *memArtifactFactory) Artifacts(kind ArtifactKind) ArtifactStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	store, ok := f.stores[kind]
	if !ok {
		store = &memArtifactStore{kind: kind, records: map[string]ArtifactPayload{}}
		f.stores[kind] = store
	}
	return store
}

func newServiceFixture(t *testing.T, extra ...Option) (*Service, *memArtifactFactory, *memConsentStore) {
	t.Helper()
	factory := newMemArtifactFactory()
	consents := newMemConsentStore()
	subject := newTestSubject()
	subjects := newStubSubjects(subject)
	subjects.passwords[subject.Email] = "correct-horse"

	options := []Option{
		WithArtifactStoreFactory(factory),
		WithConsentStore(consents),
		WithSubjectResolver(subjects),
		WithClientResolver(&stubClients{clients: map[string]Client{
			"web_banking": {ClientID: "web_banking", Name: "Web Banking"},
		}}),
	}
	options = append(options, extra...)

	svc, err := NewService(Config{}, options...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, factory, consents
}

func TestNewService_RequiresStores(t *testing.T) {
	if _, err := NewService(Config{}); err == nil {
		t.Fatalf("expected error without stores")
	}

	if _, err := NewService(Config{},
		WithArtifactStoreFactory(newMemArtifactFactory()),
	); err == nil {
		t.Fatalf("expected error without consent store")
	}
}

func TestNewService_AppliesConfigDefaults(t *testing.T) {
	svc, _, _ := newServiceFixture(t)

	cfg := svc.Config()
	if cfg.ServiceName != "bankauth" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.DefaultResource.Audience == "" {
		t.Fatalf("expected default audience")
	}
	if svc.Challenges() == nil {
		t.Fatalf("expected default challenge store")
	}
}

func TestNewService_RuntimeConfigOverrides(t *testing.T) {
	factory := newMemArtifactFactory()
	svc, err := NewService(Config{ServiceName: "bankauth-edge", ChallengeTTL: time.Minute},
		WithArtifactStoreFactory(factory),
		WithConsentStore(newMemConsentStore()),
		WithSubjectResolver(newStubSubjects(newTestSubject())),
		WithClientResolver(&stubClients{}),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	cfg := svc.Config()
	if cfg.ServiceName != "bankauth-edge" {
		t.Fatalf("expected runtime override, got %q", cfg.ServiceName)
	}
	if cfg.ChallengeTTL != time.Minute {
		t.Fatalf("expected runtime ttl, got %v", cfg.ChallengeTTL)
	}
	// Untouched fields keep their defaults.
	if cfg.InteractionBasePath != "/interaction" {
		t.Fatalf("expected default interaction base path, got %q", cfg.InteractionBasePath)
	}
}

func TestService_RevokeConsentSweepsAllArtifactKinds(t *testing.T) {
	svc, factory, _ := newServiceFixture(t)
	ctx := context.Background()

	grantPayload := MustArtifactPayload(map[string]any{"grantId": "grant_1"})
	otherPayload := MustArtifactPayload(map[string]any{"grantId": "grant_other"})
	for _, kind := range []ArtifactKind{KindAccessToken, KindRefreshToken, KindDeviceCode} {
		store := factory.Artifacts(kind)
		if err := store.Upsert(ctx, "artifact_"+string(kind), grantPayload, time.Hour); err != nil {
			t.Fatalf("seed %s: %v", kind, err)
		}
		if err := store.Upsert(ctx, "other_"+string(kind), otherPayload, time.Hour); err != nil {
			t.Fatalf("seed other %s: %v", kind, err)
		}
	}

	consent, err := svc.Consents().Create(ctx, CreateConsentInput{
		GrantID:  "grant_1",
		UserID:   "user_1",
		ClientID: "web_banking",
	})
	if err != nil {
		t.Fatalf("create consent: %v", err)
	}

	if _, err := svc.RevokeConsent(ctx, consent.ID); err != nil {
		t.Fatalf("revoke consent: %v", err)
	}

	for _, kind := range []ArtifactKind{KindAccessToken, KindRefreshToken, KindDeviceCode} {
		store := factory.Artifacts(kind)
		if _, found, _ := store.Find(ctx, "artifact_"+string(kind)); found {
			t.Fatalf("expected %s artifact for grant_1 to be destroyed", kind)
		}
		if _, found, _ := store.Find(ctx, "other_"+string(kind)); !found {
			t.Fatalf("expected %s artifact for other grant to survive", kind)
		}
	}
}

func TestService_InteractionOperationsRequireEngine(t *testing.T) {
	svc, _, _ := newServiceFixture(t)

	if _, err := svc.InteractionDetails(context.Background(), "intx_1"); err == nil {
		t.Fatalf("expected error without a configured engine")
	}
}

func TestService_EndToEndInteractionFlow(t *testing.T) {
	subject := newTestSubject()
	engine := newStubEngine(
		InteractionDetails{
			ID:       "intx_login",
			Prompt:   PromptLogin,
			ClientID: "web_banking",
		},
		InteractionDetails{
			ID:                "intx_consent",
			Prompt:            PromptConsent,
			ClientID:          "web_banking",
			SessionAccountRef: subject.ExternalRef,
			RequestedScopes:   []string{"openid", "fdx:transactions:read"},
			ResourceIndicator: "https://api.bank.local/fdx",
		},
	)
	svc, _, consents := newServiceFixture(t, WithEngine(engine))
	ctx := context.Background()

	view, err := svc.SubmitLogin(ctx, "intx_login", LoginSubmission{
		Email:    subject.Email,
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("submit login: %v", err)
	}
	if view.State != InteractionAwaitingConsent {
		t.Fatalf("expected awaiting_consent after login, got %s", view.State)
	}

	result, err := svc.ConfirmConsent(ctx, "intx_consent", ConsentSubmission{AccountIDs: "acc_1"})
	if err != nil {
		t.Fatalf("confirm consent: %v", err)
	}

	summaries, err := svc.ListActiveConsents(ctx, subject.ID)
	if err != nil {
		t.Fatalf("list consents: %v", err)
	}
	if len(summaries) != 1 || summaries[0].GrantID != result.GrantID {
		t.Fatalf("expected the new consent in the ledger, got %+v", summaries)
	}

	if _, err := svc.RevokeConsent(ctx, result.ConsentID); err != nil {
		t.Fatalf("revoke consent: %v", err)
	}
	remaining, err := consents.ListActive(ctx, subject.ID)
	if err != nil {
		t.Fatalf("list after revoke: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no active consents after revoke, got %+v", remaining)
	}
}
