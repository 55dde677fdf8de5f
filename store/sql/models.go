package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type artifactRecord struct {
	bun.BaseModel `bun:"table:auth_artifacts,alias:aa"`

	Kind       string     `bun:"kind,pk"`
	ID         string     `bun:"id,pk"`
	Payload    []byte     `bun:"payload,notnull"`
	GrantID    string     `bun:"grant_id"`
	UserCode   string     `bun:"user_code"`
	UID        string     `bun:"uid"`
	ExpiresAt  *time.Time `bun:"expires_at,nullzero"`
	ConsumedAt *time.Time `bun:"consumed_at,nullzero"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type clientRecord struct {
	bun.BaseModel `bun:"table:auth_clients,alias:ac"`

	ID                     string    `bun:"id,pk"`
	ClientID               string    `bun:"client_id,notnull,unique"`
	Secret                 string    `bun:"secret,notnull"`
	Name                   string    `bun:"name,notnull"`
	RedirectURIs           []string  `bun:"redirect_uris,type:jsonb,notnull"`
	PostLogoutRedirectURIs []string  `bun:"post_logout_redirect_uris,type:jsonb,notnull"`
	GrantTypes             []string  `bun:"grant_types,type:jsonb,notnull"`
	ResponseTypes          []string  `bun:"response_types,type:jsonb,notnull"`
	Scope                  string    `bun:"scope"`
	LogoURI                string    `bun:"logo_uri"`
	PolicyURI              string    `bun:"policy_uri"`
	TOSURI                 string    `bun:"tos_uri"`
	Contacts               []string  `bun:"contacts,type:jsonb,notnull"`
	Active                 bool      `bun:"active,notnull"`
	CreatedAt              time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt              time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type consentRecord struct {
	bun.BaseModel `bun:"table:auth_consents,alias:acn"`

	ID         string     `bun:"id,pk"`
	GrantID    string     `bun:"grant_id,notnull,unique"`
	UserID     string     `bun:"user_id,notnull"`
	ClientID   string     `bun:"client_id,notnull"`
	Scopes     []string   `bun:"scopes,type:jsonb,notnull"`
	AccountIDs []string   `bun:"account_ids,type:jsonb,notnull"`
	ExpiresAt  *time.Time `bun:"expires_at,nullzero"`
	RevokedAt  *time.Time `bun:"revoked_at,nullzero"`
	CreatedAt  time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type userRecord struct {
	bun.BaseModel `bun:"table:auth_users,alias:au"`

	ID            string    `bun:"id,pk"`
	ExternalRef   string    `bun:"external_ref,notnull,unique"`
	Email         string    `bun:"email,notnull,unique"`
	PasswordHash  []byte    `bun:"password_hash"`
	FullName      string    `bun:"full_name"`
	GivenName     string    `bun:"given_name"`
	FamilyName    string    `bun:"family_name"`
	Birthdate     string    `bun:"birthdate"`
	Phone         string    `bun:"phone"`
	StreetAddress string    `bun:"street_address"`
	City          string    `bun:"city"`
	Region        string    `bun:"region"`
	PostalCode    string    `bun:"postal_code"`
	Country       string    `bun:"country"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

type accountRecord struct {
	bun.BaseModel `bun:"table:auth_accounts,alias:aac"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	Name      string    `bun:"name,notnull"`
	Number    string    `bun:"number,notnull"`
	Type      string    `bun:"type,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type challengeRecord struct {
	bun.BaseModel `bun:"table:auth_challenges,alias:ach"`

	Key       string    `bun:"key,pk"`
	Value     []byte    `bun:"value,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
