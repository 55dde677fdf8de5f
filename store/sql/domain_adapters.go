package sqlstore

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-bankauth/core"
)

func newClientRecord(in core.CreateClientInput, now time.Time) *clientRecord {
	return &clientRecord{
		ID:                     uuid.NewString(),
		ClientID:               strings.TrimSpace(in.ClientID),
		Secret:                 in.Secret,
		Name:                   strings.TrimSpace(in.Name),
		RedirectURIs:           copyStrings(in.RedirectURIs),
		PostLogoutRedirectURIs: copyStrings(in.PostLogoutRedirectURIs),
		GrantTypes:             copyStrings(in.GrantTypes),
		ResponseTypes:          copyStrings(in.ResponseTypes),
		Scope:                  strings.TrimSpace(in.Scope),
		LogoURI:                strings.TrimSpace(in.LogoURI),
		PolicyURI:              strings.TrimSpace(in.PolicyURI),
		TOSURI:                 strings.TrimSpace(in.TOSURI),
		Contacts:               copyStrings(in.Contacts),
		Active:                 in.Active,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

func (r *clientRecord) toDomain() core.Client {
	if r == nil {
		return core.Client{}
	}
	return core.Client{
		ClientID:               r.ClientID,
		Secret:                 r.Secret,
		Name:                   r.Name,
		RedirectURIs:           copyStrings(r.RedirectURIs),
		PostLogoutRedirectURIs: copyStrings(r.PostLogoutRedirectURIs),
		GrantTypes:             copyStrings(r.GrantTypes),
		ResponseTypes:          copyStrings(r.ResponseTypes),
		Scope:                  r.Scope,
		LogoURI:                r.LogoURI,
		PolicyURI:              r.PolicyURI,
		TOSURI:                 r.TOSURI,
		Contacts:               copyStrings(r.Contacts),
		Active:                 r.Active,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
}

func newConsentRecord(in core.CreateConsentInput, now time.Time) *consentRecord {
	record := &consentRecord{
		ID:         uuid.NewString(),
		GrantID:    strings.TrimSpace(in.GrantID),
		UserID:     strings.TrimSpace(in.UserID),
		ClientID:   strings.TrimSpace(in.ClientID),
		Scopes:     copyStrings(in.Scopes),
		AccountIDs: copyStrings(in.AccountIDs),
		CreatedAt:  now,
	}
	if in.ExpiresAt != nil {
		expiresAt := in.ExpiresAt.UTC()
		record.ExpiresAt = &expiresAt
	}
	return record
}

func (r *consentRecord) toDomain() core.Consent {
	if r == nil {
		return core.Consent{}
	}
	consent := core.Consent{
		ID:         r.ID,
		GrantID:    r.GrantID,
		UserID:     r.UserID,
		ClientID:   r.ClientID,
		Scopes:     copyStrings(r.Scopes),
		AccountIDs: copyStrings(r.AccountIDs),
		CreatedAt:  r.CreatedAt,
	}
	consent.ExpiresAt = copyTimePointer(r.ExpiresAt)
	consent.RevokedAt = copyTimePointer(r.RevokedAt)
	return consent
}

func newUserRecord(subject core.Subject, passwordHash []byte) *userRecord {
	id := strings.TrimSpace(subject.ID)
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	return &userRecord{
		ID:            id,
		ExternalRef:   strings.TrimSpace(subject.ExternalRef),
		Email:         strings.ToLower(strings.TrimSpace(subject.Email)),
		PasswordHash:  append([]byte(nil), passwordHash...),
		FullName:      strings.TrimSpace(subject.FullName),
		GivenName:     strings.TrimSpace(subject.GivenName),
		FamilyName:    strings.TrimSpace(subject.FamilyName),
		Birthdate:     strings.TrimSpace(subject.Birthdate),
		Phone:         strings.TrimSpace(subject.Phone),
		StreetAddress: strings.TrimSpace(subject.Address.Street),
		City:          strings.TrimSpace(subject.Address.City),
		Region:        strings.TrimSpace(subject.Address.Region),
		PostalCode:    strings.TrimSpace(subject.Address.PostalCode),
		Country:       strings.TrimSpace(subject.Address.Country),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func newAccountRecord(account core.BankAccount) *accountRecord {
	id := strings.TrimSpace(account.ID)
	if id == "" {
		id = uuid.NewString()
	}
	return &accountRecord{
		ID:        id,
		UserID:    strings.TrimSpace(account.SubjectID),
		Name:      strings.TrimSpace(account.Name),
		Number:    strings.TrimSpace(account.Number),
		Type:      strings.TrimSpace(account.Type),
		CreatedAt: time.Now().UTC(),
	}
}

func (r *userRecord) toDomain() core.Subject {
	if r == nil {
		return core.Subject{}
	}
	return core.Subject{
		ID:          r.ID,
		ExternalRef: r.ExternalRef,
		Email:       r.Email,
		FullName:    r.FullName,
		GivenName:   r.GivenName,
		FamilyName:  r.FamilyName,
		Birthdate:   r.Birthdate,
		Phone:       r.Phone,
		Address: core.Address{
			Street:     r.StreetAddress,
			City:       r.City,
			Region:     r.Region,
			PostalCode: r.PostalCode,
			Country:    r.Country,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *accountRecord) toDomain() core.BankAccount {
	if r == nil {
		return core.BankAccount{}
	}
	return core.BankAccount{
		ID:        r.ID,
		SubjectID: r.UserID,
		Name:      r.Name,
		Number:    r.Number,
		Type:      r.Type,
	}
}

// copyStrings always yields a non-nil slice so jsonb columns marshal to []
// instead of null.
func copyStrings(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	return append([]string(nil), in...)
}

func copyTimePointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := *input
	return &value
}
