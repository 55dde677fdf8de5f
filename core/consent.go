package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ConsentService owns the durable consent ledger and its revocation
// cascade. Revocation destroys live tokens before the ledger row is marked,
// so a crash between the two steps leaves an over-revoked state rather than
// orphaned live tokens.
type ConsentService struct {
	store     ConsentStore
	artifacts GrantRevoker
	logger    Logger
}

func NewConsentService(store ConsentStore, artifacts GrantRevoker, logger Logger) (*ConsentService, error) {
	if store == nil {
		return nil, fmt.Errorf("core: consent store is required")
	}
	if artifacts == nil {
		return nil, fmt.Errorf("core: grant revoker is required")
	}
	return &ConsentService{
		store:     store,
		artifacts: artifacts,
		logger:    logger,
	}, nil
}

func (s *ConsentService) Create(ctx context.Context, in CreateConsentInput) (Consent, error) {
	in.GrantID = strings.TrimSpace(in.GrantID)
	in.UserID = strings.TrimSpace(in.UserID)
	in.ClientID = strings.TrimSpace(in.ClientID)
	if in.GrantID == "" {
		return Consent{}, fmt.Errorf("core: grant id is required")
	}
	if in.UserID == "" {
		return Consent{}, fmt.Errorf("core: user id is required")
	}
	if in.ClientID == "" {
		return Consent{}, fmt.Errorf("core: client id is required")
	}
	in.Scopes = NormalizeScopes(in.Scopes)
	if in.AccountIDs == nil {
		in.AccountIDs = []string{}
	}
	return s.store.Create(ctx, in)
}

func (s *ConsentService) Get(ctx context.Context, id string) (Consent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Consent{}, fmt.Errorf("core: consent id is required")
	}
	return s.store.Get(ctx, id)
}

// ListActive lists non-revoked consents with display metadata; empty userID
// means all subjects.
func (s *ConsentService) ListActive(ctx context.Context, userID string) ([]ConsentSummary, error) {
	return s.store.ListActive(ctx, strings.TrimSpace(userID))
}

// Revoke tears down a single consent: every token tied to its grant is
// destroyed first, then the ledger row is marked revoked. Revoking an
// already-revoked consent is a no-op.
func (s *ConsentService) Revoke(ctx context.Context, consentID string) (Consent, error) {
	consentID = strings.TrimSpace(consentID)
	if consentID == "" {
		return Consent{}, fmt.Errorf("core: consent id is required")
	}

	consent, err := s.store.Get(ctx, consentID)
	if err != nil {
		return Consent{}, err
	}
	if consent.RevokedAt != nil {
		return consent, nil
	}

	if err := s.artifacts.RevokeByGrantID(ctx, consent.GrantID); err != nil {
		return Consent{}, fmt.Errorf("core: revoke tokens for grant %s: %w", consent.GrantID, err)
	}

	now := time.Now().UTC()
	if err := s.store.MarkRevoked(ctx, consent.ID, now); err != nil {
		return Consent{}, err
	}
	consent.RevokedAt = &now

	s.logInfo("consent revoked",
		"consent_id", consent.ID,
		"grant_id", consent.GrantID,
		"client_id", consent.ClientID,
	)
	return consent, nil
}

// RevokeAllForSubject revokes every active consent a subject holds and
// reports how many were torn down.
func (s *ConsentService) RevokeAllForSubject(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, fmt.Errorf("core: user id is required")
	}

	summaries, err := s.store.ListActive(ctx, userID)
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, summary := range summaries {
		if _, err := s.Revoke(ctx, summary.ID); err != nil {
			return revoked, err
		}
		revoked++
	}

	s.logInfo("subject consents revoked", "user_id", userID, "count", revoked)
	return revoked, nil
}

func (s *ConsentService) logInfo(message string, args ...any) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Info(message, args...)
}
