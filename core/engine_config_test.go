package core

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
)

func newHooksFixture(t *testing.T, clients ClientResolver) *EngineHooks {
	t.Helper()
	projector, err := NewClaimsProjector(newStubSubjects(newTestSubject()))
	if err != nil {
		t.Fatalf("new claims projector: %v", err)
	}
	hooks, err := NewEngineHooks(DefaultConfig(), clients, projector, nil)
	if err != nil {
		t.Fatalf("new engine hooks: %v", err)
	}
	return hooks
}

func TestEngineHooks_InteractionURL(t *testing.T) {
	hooks := newHooksFixture(t, &stubClients{})

	if got := hooks.InteractionURL("intx_1"); got != "/interaction/intx_1" {
		t.Fatalf("expected /interaction/intx_1, got %q", got)
	}
}

func TestEngineHooks_ResolveClientFallsBack(t *testing.T) {
	hooks := newHooksFixture(t, &stubClients{clients: map[string]Client{}})

	display := hooks.ResolveClient(context.Background(), "ghost")
	if display.Known {
		t.Fatalf("expected unknown client, got %+v", display)
	}
	if display.Name != UnknownClientName {
		t.Fatalf("expected placeholder name, got %q", display.Name)
	}
}

func TestEngineHooks_ResourceInfoFallback(t *testing.T) {
	hooks := newHooksFixture(t, &stubClients{})

	info := hooks.ResourceInfo(context.Background(), "https://unknown.example.com")
	if info.Audience != DefaultConfig().DefaultResource.Audience {
		t.Fatalf("expected default audience, got %q", info.Audience)
	}
	if info.TokenFormat != ResourceTokenFormatJWT {
		t.Fatalf("expected jwt token format, got %q", info.TokenFormat)
	}
	if info.Scope == "" {
		t.Fatalf("expected non-empty default scope")
	}
}

func TestEngineHooks_RenderError(t *testing.T) {
	hooks := newHooksFixture(t, &stubClients{})

	recorder := httptest.NewRecorder()
	hooks.RenderError(recorder, 0, " ")
	if recorder.Code != 500 {
		t.Fatalf("expected 500 default, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "unexpected error") {
		t.Fatalf("expected generic message, got %q", recorder.Body.String())
	}
}
