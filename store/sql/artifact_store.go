package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-bankauth/core"
)

// ArtifactStore persists one protocol artifact kind in the shared
// auth_artifacts table. The payload stays an opaque blob; the three lookup
// fields the engine searches by are denormalized into indexed columns on
// every write.
type ArtifactStore struct {
	db   *bun.DB
	kind core.ArtifactKind
}

func NewArtifactStore(db *bun.DB, kind core.ArtifactKind) (*ArtifactStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	return &ArtifactStore{db: db, kind: kind}, nil
}

func (s *ArtifactStore) Kind() core.ArtifactKind {
	if s == nil {
		return ""
	}
	return s.kind
}

// Upsert writes or overwrites the record for this kind and id. A zero ttl
// persists the artifact without expiry.
func (s *ArtifactStore) Upsert(ctx context.Context, id string, payload core.ArtifactPayload, expiresIn time.Duration) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: artifact store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: artifact id is required")
	}
	if payload.Empty() {
		return fmt.Errorf("sqlstore: artifact payload is required")
	}
	if expiresIn < 0 {
		return fmt.Errorf("sqlstore: artifact ttl is invalid")
	}

	now := time.Now().UTC()
	record := &artifactRecord{
		Kind:      string(s.kind),
		ID:        id,
		Payload:   payload.Raw(),
		GrantID:   payload.GrantID(),
		UserCode:  payload.UserCode(),
		UID:       payload.UID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if expiresIn > 0 {
		expiresAt := now.Add(expiresIn)
		record.ExpiresAt = &expiresAt
	}

	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (kind, id) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("grant_id = EXCLUDED.grant_id").
		Set("user_code = EXCLUDED.user_code").
		Set("uid = EXCLUDED.uid").
		Set("expires_at = EXCLUDED.expires_at").
		Set("consumed_at = NULL").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *ArtifactStore) Find(ctx context.Context, id string) (core.ArtifactPayload, bool, error) {
	return s.findBy(ctx, "id", id)
}

func (s *ArtifactStore) FindByUserCode(ctx context.Context, userCode string) (core.ArtifactPayload, bool, error) {
	return s.findBy(ctx, "user_code", userCode)
}

func (s *ArtifactStore) FindByUID(ctx context.Context, uid string) (core.ArtifactPayload, bool, error) {
	return s.findBy(ctx, "uid", uid)
}

// Consume marks the record used without deleting it; replay detection for
// one-time artifacts happens in the engine against the payload. Consuming a
// missing or expired record is an error.
func (s *ArtifactStore) Consume(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: artifact store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: artifact id is required")
	}

	now := time.Now().UTC()
	result, err := s.db.NewUpdate().
		Model((*artifactRecord)(nil)).
		Set("consumed_at = ?", now).
		Set("updated_at = ?", now).
		Where("kind = ?", string(s.kind)).
		Where("id = ?", id).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s %s", core.ErrArtifactNotFound, s.kind, id)
	}
	return nil
}

// Destroy hard-deletes the record. Missing records are a no-op so retried
// revocations stay safe.
func (s *ArtifactStore) Destroy(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: artifact store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: artifact id is required")
	}
	_, err := s.db.NewDelete().
		Model((*artifactRecord)(nil)).
		Where("kind = ?", string(s.kind)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// RevokeByGrantID deletes every artifact of every kind tied to the grant.
// The sweep is deliberately not scoped to the store's own kind so one call
// tears a grant's whole session down.
func (s *ArtifactStore) RevokeByGrantID(ctx context.Context, grantID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: artifact store is not configured")
	}
	grantID = strings.TrimSpace(grantID)
	if grantID == "" {
		return fmt.Errorf("sqlstore: grant id is required")
	}
	_, err := s.db.NewDelete().
		Model((*artifactRecord)(nil)).
		Where("grant_id = ?", grantID).
		Exec(ctx)
	return err
}

func (s *ArtifactStore) findBy(ctx context.Context, column string, value string) (core.ArtifactPayload, bool, error) {
	if s == nil || s.db == nil {
		return core.ArtifactPayload{}, false, fmt.Errorf("sqlstore: artifact store is not configured")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return core.ArtifactPayload{}, false, nil
	}

	record := &artifactRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.kind = ?", string(s.kind)).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Where("(?TableAlias.expires_at IS NULL OR ?TableAlias.expires_at > ?)", time.Now().UTC()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.ArtifactPayload{}, false, nil
		}
		return core.ArtifactPayload{}, false, err
	}

	payload, err := core.NewArtifactPayload(record.Payload)
	if err != nil {
		return core.ArtifactPayload{}, false, err
	}
	return payload, true, nil
}
