package core

import (
	"context"
	"testing"
)

func newProjectorFixture(t *testing.T, subject Subject) *ClaimsProjector {
	t.Helper()
	projector, err := NewClaimsProjector(newStubSubjects(subject))
	if err != nil {
		t.Fatalf("new claims projector: %v", err)
	}
	return projector
}

func TestClaimsProjector_SubjectOnly(t *testing.T) {
	subject := newTestSubject()
	projector := newProjectorFixture(t, subject)

	claims, err := projector.Project(context.Background(), TokenUseID, subject.ExternalRef, []string{"openid"}, ArtifactPayload{})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if claims["sub"] != subject.ExternalRef {
		t.Fatalf("expected sub %q, got %v", subject.ExternalRef, claims["sub"])
	}
	if _, ok := claims["name"]; ok {
		t.Fatalf("expected no profile claims without the profile scope")
	}
	if _, ok := claims["email"]; ok {
		t.Fatalf("expected no email claim without the email scope")
	}
}

func TestClaimsProjector_ProfileAndEmailScopes(t *testing.T) {
	subject := newTestSubject()
	projector := newProjectorFixture(t, subject)

	claims, err := projector.Project(context.Background(), TokenUseID, subject.ExternalRef,
		[]string{"openid", "profile", "email"}, ArtifactPayload{})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if claims["name"] != subject.FullName {
		t.Fatalf("expected name claim, got %v", claims["name"])
	}
	if claims["given_name"] != subject.GivenName || claims["family_name"] != subject.FamilyName {
		t.Fatalf("expected given/family name claims, got %v", claims)
	}
	if claims["birthdate"] != subject.Birthdate {
		t.Fatalf("expected birthdate claim, got %v", claims["birthdate"])
	}
	if claims["email"] != subject.Email {
		t.Fatalf("expected email claim, got %v", claims["email"])
	}
	if claims["email_verified"] != true {
		t.Fatalf("expected email_verified true, got %v", claims["email_verified"])
	}
}

func TestClaimsProjector_SkipsAbsentProfileFields(t *testing.T) {
	subject := newTestSubject()
	subject.Birthdate = ""
	subject.Email = ""
	projector := newProjectorFixture(t, subject)

	claims, err := projector.Project(context.Background(), TokenUseID, subject.ExternalRef,
		[]string{"openid", "profile", "email"}, ArtifactPayload{})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if _, ok := claims["birthdate"]; ok {
		t.Fatalf("expected absent birthdate to be omitted")
	}
	if _, ok := claims["email"]; ok {
		t.Fatalf("expected absent email to be omitted")
	}
	if _, ok := claims["email_verified"]; ok {
		t.Fatalf("expected email_verified omitted without an email")
	}
}

func TestClaimsProjector_AddressScope(t *testing.T) {
	subject := newTestSubject()
	subject.Phone = "+1-555-0100"
	subject.Address = Address{Street: "1 Main St", City: "Springfield", Region: "IL", PostalCode: "62704", Country: "US"}
	projector := newProjectorFixture(t, subject)

	claims, err := projector.Project(context.Background(), TokenUseID, subject.ExternalRef,
		[]string{"openid", "address"}, ArtifactPayload{})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if claims["phone_number"] != subject.Phone {
		t.Fatalf("expected phone_number claim, got %v", claims["phone_number"])
	}
	address, ok := claims["address"].(map[string]any)
	if !ok {
		t.Fatalf("expected structured address claim, got %T", claims["address"])
	}
	if address["locality"] != "Springfield" {
		t.Fatalf("expected locality in address claim, got %v", address)
	}
}

func TestClaimsProjector_CardTokenOnAccessTokensOnly(t *testing.T) {
	subject := newTestSubject()
	projector := newProjectorFixture(t, subject)
	grant := MustArtifactPayload(map[string]any{"cardToken": "tok_card_123"})

	accessClaims, err := projector.Project(context.Background(), TokenUseAccess, subject.ExternalRef, []string{"openid"}, grant)
	if err != nil {
		t.Fatalf("project access: %v", err)
	}
	if accessClaims[CardTokenClaim] != "tok_card_123" {
		t.Fatalf("expected card token on access token, got %v", accessClaims[CardTokenClaim])
	}

	idClaims, err := projector.Project(context.Background(), TokenUseID, subject.ExternalRef, []string{"openid"}, grant)
	if err != nil {
		t.Fatalf("project id: %v", err)
	}
	if _, ok := idClaims[CardTokenClaim]; ok {
		t.Fatalf("card token must never land on id tokens")
	}
}

func TestClaimsProjector_MissingSubject(t *testing.T) {
	projector := newProjectorFixture(t, newTestSubject())

	if _, err := projector.Project(context.Background(), TokenUseID, "acct_missing", []string{"openid"}, ArtifactPayload{}); err == nil {
		t.Fatalf("expected error for unknown account ref")
	}
}

func TestNormalizeScopes(t *testing.T) {
	got := NormalizeScopes([]string{" OpenID", "profile", "openid", "", "  "})
	if len(got) != 2 {
		t.Fatalf("expected deduped scopes, got %v", got)
	}
	if got[0] != "openid" || got[1] != "profile" {
		t.Fatalf("expected sorted normalized scopes, got %v", got)
	}
}
