// Package admin exposes the operator-facing HTTP surface of the
// authorization core: review active consents and tear them down. It is not
// an end-user surface and carries no authentication of its own; mount it
// behind the deployment's operator auth middleware.
package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-bankauth/core"
)

const defaultConsentsPath = "/admin/consents"

// ConsentAdmin is the slice of the authorization core the admin surface
// drives. The concrete implementation is *core.Service.
type ConsentAdmin interface {
	ListActiveConsents(ctx context.Context, userID string) ([]core.ConsentSummary, error)
	RevokeConsent(ctx context.Context, consentID string) (core.Consent, error)
	RevokeAllForSubject(ctx context.Context, userID string) (int, error)
}

type Handler struct {
	service      ConsentAdmin
	consentsPath string
	logger       core.Logger
}

type Option func(*Handler)

func WithLogger(logger core.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithConsentsPath overrides where revocation responses redirect back to.
func WithConsentsPath(path string) Option {
	return func(h *Handler) {
		trimmed := strings.TrimSpace(path)
		if trimmed != "" {
			h.consentsPath = trimmed
		}
	}
}

func NewHandler(service ConsentAdmin, opts ...Option) (*Handler, error) {
	if service == nil {
		return nil, fmt.Errorf("admin: consent service is required")
	}
	handler := &Handler{
		service:      service,
		consentsPath: defaultConsentsPath,
		logger:       glog.Nop(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(handler)
	}
	return handler, nil
}

// Register mounts the admin routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/consents", h.handleListConsents)
	mux.HandleFunc("POST /admin/consents/{id}/revoke", h.handleRevokeConsent)
	mux.HandleFunc("POST /admin/subjects/{id}/revoke", h.handleRevokeSubject)
}

type consentEntry struct {
	ID           string     `json:"id"`
	GrantID      string     `json:"grant_id"`
	UserID       string     `json:"user_id"`
	ClientID     string     `json:"client_id"`
	ClientName   string     `json:"client_name"`
	SubjectName  string     `json:"subject_name,omitempty"`
	SubjectEmail string     `json:"subject_email,omitempty"`
	Scopes       []string   `json:"scopes"`
	AccountIDs   []string   `json:"account_ids"`
	LiveTokens   int        `json:"live_tokens"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

type consentListResponse struct {
	Consents []consentEntry `json:"consents"`
	Total    int            `json:"total"`
}

func (h *Handler) handleListConsents(w http.ResponseWriter, r *http.Request) {
	subject := strings.TrimSpace(r.URL.Query().Get("subject"))

	summaries, err := h.service.ListActiveConsents(r.Context(), subject)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response := consentListResponse{
		Consents: make([]consentEntry, 0, len(summaries)),
		Total:    len(summaries),
	}
	for _, summary := range summaries {
		response.Consents = append(response.Consents, consentEntry{
			ID:           summary.ID,
			GrantID:      summary.GrantID,
			UserID:       summary.UserID,
			ClientID:     summary.ClientID,
			ClientName:   summary.ClientName,
			SubjectName:  summary.SubjectName,
			SubjectEmail: summary.SubjectEmail,
			Scopes:       summary.Scopes,
			AccountIDs:   summary.AccountIDs,
			LiveTokens:   summary.LiveTokens,
			CreatedAt:    summary.CreatedAt,
			ExpiresAt:    summary.ExpiresAt,
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("admin: encode consent list", "error", err)
	}
}

func (h *Handler) handleRevokeConsent(w http.ResponseWriter, r *http.Request) {
	consentID := strings.TrimSpace(r.PathValue("id"))

	consent, err := h.service.RevokeConsent(r.Context(), consentID)
	if err != nil {
		if isNotFound(err) {
			h.redirect(w, r, "Consent not found")
			return
		}
		h.logger.Error("admin: revoke consent", "consent_id", consentID, "error", err)
		h.redirect(w, r, "Unable to revoke access")
		return
	}
	h.redirect(w, r, fmt.Sprintf("Access for %s revoked", displayClient(consent.ClientID)))
}

func (h *Handler) handleRevokeSubject(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.PathValue("id"))

	revoked, err := h.service.RevokeAllForSubject(r.Context(), userID)
	if err != nil {
		if isNotFound(err) {
			h.redirect(w, r, "Subject not found")
			return
		}
		h.logger.Error("admin: revoke subject consents", "user_id", userID, "error", err)
		h.redirect(w, r, "Unable to revoke access")
		return
	}
	if revoked == 0 {
		h.redirect(w, r, "No active consents to revoke")
		return
	}
	h.redirect(w, r, fmt.Sprintf("Revoked %d consents", revoked))
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, message string) {
	target := h.consentsPath + "?msg=" + url.QueryEscape(message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		rich = goerrors.New("internal error", goerrors.CategoryInternal).
			WithCode(http.StatusInternalServerError).
			WithTextCode(core.AuthErrorInternal)
	}
	status := rich.Code
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("admin: request failed", "path", r.URL.Path, "error", err)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	payload := map[string]any{
		"error": map[string]any{
			"message":   rich.Message,
			"text_code": rich.TextCode,
		},
	}
	if encodeErr := json.NewEncoder(w).Encode(payload); encodeErr != nil {
		h.logger.Error("admin: encode error response", "error", encodeErr)
	}
}

func isNotFound(err error) bool {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryNotFound
	}
	return false
}

func displayClient(clientID string) string {
	trimmed := strings.TrimSpace(clientID)
	if trimmed == "" {
		return "client"
	}
	return trimmed
}
