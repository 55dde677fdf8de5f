package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// EngineHooks is the named-method configuration surface handed to the
// protocol engine at construction time. Each hook has a narrow input/output
// contract and can be exercised without the engine.
type EngineHooks struct {
	config    Config
	clients   ClientResolver
	projector *ClaimsProjector
	logger    Logger
}

func NewEngineHooks(config Config, clients ClientResolver, projector *ClaimsProjector, logger Logger) (*EngineHooks, error) {
	if clients == nil {
		return nil, fmt.Errorf("core: client resolver is required")
	}
	if projector == nil {
		return nil, fmt.Errorf("core: claims projector is required")
	}
	return &EngineHooks{
		config:    config,
		clients:   clients,
		projector: projector,
		logger:    logger,
	}, nil
}

// InteractionURL maps an interaction id onto the route this module renders.
func (h *EngineHooks) InteractionURL(interactionID string) string {
	base := strings.TrimRight(strings.TrimSpace(h.config.InteractionBasePath), "/")
	if base == "" {
		base = "/interaction"
	}
	return base + "/" + strings.TrimSpace(interactionID)
}

// ResolveClient fetches client display metadata for the engine, degrading to
// the Unknown Application placeholder when the client cannot be resolved.
func (h *EngineHooks) ResolveClient(ctx context.Context, clientID string) ClientDisplay {
	if h == nil || h.clients == nil {
		return UnknownClientDisplay(clientID)
	}
	client, found, err := h.clients.Resolve(ctx, clientID)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("client resolution failed", "client_id", clientID, "error", err.Error())
		}
		return UnknownClientDisplay(clientID)
	}
	if !found {
		return UnknownClientDisplay(clientID)
	}
	return ClientDisplay{
		ClientID: client.ClientID,
		Name:     client.Name,
		LogoURI:  client.LogoURI,
		Known:    true,
	}
}

// Claims is invoked by the engine per token issuance.
func (h *EngineHooks) Claims(
	ctx context.Context,
	use TokenUse,
	accountRef string,
	scopes []string,
	grant ArtifactPayload,
) (map[string]any, error) {
	if h == nil || h.projector == nil {
		return nil, fmt.Errorf("core: engine hooks are not configured")
	}
	return h.projector.Project(ctx, use, accountRef, scopes, grant)
}

// ResourceInfo is invoked by the engine per resource indicator. Unknown or
// mistyped indicators fall back to the default audience instead of failing
// the request.
func (h *EngineHooks) ResourceInfo(_ context.Context, indicator string) ResourceServerInfo {
	resource := h.config.ResourceFor(indicator)
	return ResourceServerInfo{
		Audience:    resource.Audience,
		Scope:       resource.Scope,
		TokenFormat: ResourceTokenFormatJWT,
	}
}

// RenderError writes the engine's error page: a generic message, never a
// stack trace.
func (h *EngineHooks) RenderError(w http.ResponseWriter, status int, message string) {
	if strings.TrimSpace(message) == "" {
		message = "An unexpected error occurred"
	}
	if status <= 0 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintln(w, message)
}
