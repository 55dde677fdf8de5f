package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-bankauth/core"
)

const defaultChallengeTTL = 5 * time.Minute

// ChallengeStore keeps login ceremony challenges in the database so the
// ceremony survives restarts and works across stateless replicas. Entries
// are consumed on first read.
type ChallengeStore struct {
	db  *bun.DB
	ttl time.Duration
}

func NewChallengeStore(db *bun.DB, ttl time.Duration) (*ChallengeStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	if ttl <= 0 {
		ttl = defaultChallengeTTL
	}
	return &ChallengeStore{db: db, ttl: ttl}, nil
}

func (s *ChallengeStore) Put(ctx context.Context, key string, value []byte) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: challenge store is not configured")
	}
	if len(value) == 0 {
		return fmt.Errorf("sqlstore: challenge value is required")
	}

	now := time.Now().UTC()
	record := &challengeRecord{
		Key:       normalizeChallengeKey(key),
		Value:     append([]byte(nil), value...),
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	return err
}

func (s *ChallengeStore) Take(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("sqlstore: challenge store is not configured")
	}
	normalized := normalizeChallengeKey(key)

	var value []byte
	var found bool
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &challengeRecord{}
		selectErr := tx.NewSelect().
			Model(record).
			Where("?TableAlias.key = ?", normalized).
			Limit(1).
			Scan(ctx)
		if selectErr != nil {
			if errors.Is(selectErr, sql.ErrNoRows) {
				return nil
			}
			return selectErr
		}
		if _, deleteErr := tx.NewDelete().
			Model((*challengeRecord)(nil)).
			Where("key = ?", normalized).
			Exec(ctx); deleteErr != nil {
			return deleteErr
		}
		if time.Now().UTC().After(record.ExpiresAt) {
			return nil
		}
		value = append([]byte(nil), record.Value...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// PruneExpired removes stale challenge rows and reports how many were
// deleted. Intended for periodic housekeeping.
func (s *ChallengeStore) PruneExpired(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: challenge store is not configured")
	}
	result, err := s.db.NewDelete().
		Model((*challengeRecord)(nil)).
		Where("expires_at <= ?", time.Now().UTC()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func normalizeChallengeKey(key string) string {
	trimmed := strings.TrimSpace(strings.ToLower(key))
	if trimmed == "" {
		return core.ChallengeKeyGlobal
	}
	return trimmed
}
