package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const (
	ScopeOpenID  = "openid"
	ScopeProfile = "profile"
	ScopeEmail   = "email"
	ScopeAddress = "address"
)

// CardTokenClaim carries the short-lived payment instrument reference on
// access tokens whose grant payload attached one.
const CardTokenClaim = "card_token"

// ClaimsProjector computes the claim set embedded in an issued token from
// the granted scopes and the subject's stored profile.
type ClaimsProjector struct {
	subjects SubjectResolver
}

func NewClaimsProjector(subjects SubjectResolver) (*ClaimsProjector, error) {
	if subjects == nil {
		return nil, fmt.Errorf("core: subject resolver is required")
	}
	return &ClaimsProjector{subjects: subjects}, nil
}

// Project returns the claims for one token. The card reference, when the
// grant payload carries one, lands on access tokens only; identity claims
// are included per scope and only where the profile has data.
func (p *ClaimsProjector) Project(
	ctx context.Context,
	use TokenUse,
	accountRef string,
	scopes []string,
	grant ArtifactPayload,
) (map[string]any, error) {
	if p == nil || p.subjects == nil {
		return nil, fmt.Errorf("core: claims projector is not configured")
	}
	accountRef = strings.TrimSpace(accountRef)
	if accountRef == "" {
		return nil, fmt.Errorf("core: account reference is required")
	}

	subject, err := p.subjects.ResolveByExternalRef(ctx, accountRef)
	if err != nil {
		return nil, err
	}

	claims := map[string]any{
		"sub": subject.ExternalRef,
	}
	scopeSet := toScopeSet(scopes)

	if _, ok := scopeSet[ScopeProfile]; ok {
		putClaim(claims, "name", subject.FullName)
		putClaim(claims, "given_name", subject.GivenName)
		putClaim(claims, "family_name", subject.FamilyName)
		putClaim(claims, "birthdate", subject.Birthdate)
	}
	if _, ok := scopeSet[ScopeEmail]; ok {
		if strings.TrimSpace(subject.Email) != "" {
			claims["email"] = strings.TrimSpace(subject.Email)
			// Simulation: addresses are considered verified as soon as
			// they exist.
			claims["email_verified"] = true
		}
	}
	if _, ok := scopeSet[ScopeAddress]; ok {
		putClaim(claims, "phone_number", subject.Phone)
		if !subject.Address.Empty() {
			claims["address"] = subject.Address.Map()
		}
	}

	if use == TokenUseAccess {
		if cardToken := grant.CardToken(); cardToken != "" {
			claims[CardTokenClaim] = cardToken
		}
	}

	return claims, nil
}

// NormalizeScopes lowercases, trims, dedupes, and sorts a scope list.
func NormalizeScopes(values []string) []string {
	set := toScopeSet(values)
	out := make([]string, 0, len(set))
	for scope := range set {
		out = append(out, scope)
	}
	sort.Strings(out)
	return out
}

func toScopeSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(strings.ToLower(value))
		if trimmed == "" {
			continue
		}
		set[trimmed] = struct{}{}
	}
	return set
}

func putClaim(claims map[string]any, name string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		claims[name] = trimmed
	}
}
