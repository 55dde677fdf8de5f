package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-bankauth/core"
)

// liveTokenKinds are the artifact kinds counted as live tokens on a consent
// summary.
var liveTokenKinds = []string{
	string(core.KindAccessToken),
	string(core.KindRefreshToken),
}

type ConsentStore struct {
	db   *bun.DB
	repo repository.Repository[*consentRecord]
}

func NewConsentStore(db *bun.DB) (*ConsentStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*consentRecord](db, consentHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid consent repository wiring: %w", err)
		}
	}
	return &ConsentStore{db: db, repo: repo}, nil
}

func (s *ConsentStore) Create(ctx context.Context, in core.CreateConsentInput) (core.Consent, error) {
	if s == nil || s.repo == nil {
		return core.Consent{}, fmt.Errorf("sqlstore: consent store is not configured")
	}
	if strings.TrimSpace(in.GrantID) == "" {
		return core.Consent{}, fmt.Errorf("sqlstore: grant id is required")
	}
	if strings.TrimSpace(in.UserID) == "" {
		return core.Consent{}, fmt.Errorf("sqlstore: user id is required")
	}
	if strings.TrimSpace(in.ClientID) == "" {
		return core.Consent{}, fmt.Errorf("sqlstore: client id is required")
	}

	record := newConsentRecord(in, time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if isDuplicateError(err) {
			return core.Consent{}, fmt.Errorf("%w: grant %s", core.ErrAlreadyExists, strings.TrimSpace(in.GrantID))
		}
		return core.Consent{}, err
	}
	return created.toDomain(), nil
}

func (s *ConsentStore) Get(ctx context.Context, id string) (core.Consent, error) {
	if s == nil || s.db == nil {
		return core.Consent{}, fmt.Errorf("sqlstore: consent store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Consent{}, fmt.Errorf("sqlstore: consent id is required")
	}
	record := &consentRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Consent{}, fmt.Errorf("%w: %s", core.ErrConsentNotFound, id)
		}
		return core.Consent{}, err
	}
	return record.toDomain(), nil
}

// ListActive returns non-revoked consents enriched with client and subject
// display metadata plus the live token count per grant. An empty userID
// means all subjects.
func (s *ConsentStore) ListActive(ctx context.Context, userID string) ([]core.ConsentSummary, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: consent store is not configured")
	}

	query := s.db.NewSelect().
		Model((*consentRecord)(nil)).
		Where("?TableAlias.revoked_at IS NULL").
		OrderExpr("?TableAlias.created_at ASC")
	if trimmed := strings.TrimSpace(userID); trimmed != "" {
		query = query.Where("?TableAlias.user_id = ?", trimmed)
	}

	var records []*consentRecord
	if err := query.Scan(ctx, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []core.ConsentSummary{}, nil
	}

	userIDs := make([]string, 0, len(records))
	clientIDs := make([]string, 0, len(records))
	grantIDs := make([]string, 0, len(records))
	for _, record := range records {
		userIDs = append(userIDs, record.UserID)
		clientIDs = append(clientIDs, record.ClientID)
		grantIDs = append(grantIDs, record.GrantID)
	}

	users, err := s.userDisplay(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	clients, err := s.clientNames(ctx, clientIDs)
	if err != nil {
		return nil, err
	}
	tokenCounts, err := s.liveTokenCounts(ctx, grantIDs)
	if err != nil {
		return nil, err
	}

	out := make([]core.ConsentSummary, 0, len(records))
	for _, record := range records {
		summary := core.ConsentSummary{
			Consent:    record.toDomain(),
			LiveTokens: tokenCounts[record.GrantID],
		}
		if user, ok := users[record.UserID]; ok {
			summary.SubjectName = user.FullName
			summary.SubjectEmail = user.Email
		}
		if name, ok := clients[record.ClientID]; ok {
			summary.ClientName = name
		} else {
			summary.ClientName = core.UnknownClientName
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *ConsentStore) MarkRevoked(ctx context.Context, id string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: consent store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: consent id is required")
	}
	result, err := s.db.NewUpdate().
		Model((*consentRecord)(nil)).
		Set("revoked_at = ?", at.UTC()).
		Where("id = ?", id).
		Where("revoked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish a repeat revoke from a missing row.
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (s *ConsentStore) userDisplay(ctx context.Context, userIDs []string) (map[string]*userRecord, error) {
	var records []*userRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.id IN (?)", bun.In(dedupeStrings(userIDs))).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*userRecord, len(records))
	for _, record := range records {
		out[record.ID] = record
	}
	return out, nil
}

func (s *ConsentStore) clientNames(ctx context.Context, clientIDs []string) (map[string]string, error) {
	var records []*clientRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.client_id IN (?)", bun.In(dedupeStrings(clientIDs))).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(records))
	for _, record := range records {
		out[record.ClientID] = record.Name
	}
	return out, nil
}

func (s *ConsentStore) liveTokenCounts(ctx context.Context, grantIDs []string) (map[string]int, error) {
	var rows []struct {
		GrantID string `bun:"grant_id"`
		Count   int    `bun:"token_count"`
	}
	err := s.db.NewSelect().
		Model((*artifactRecord)(nil)).
		ColumnExpr("?TableAlias.grant_id AS grant_id").
		ColumnExpr("COUNT(*) AS token_count").
		Where("?TableAlias.grant_id IN (?)", bun.In(dedupeStrings(grantIDs))).
		Where("?TableAlias.kind IN (?)", bun.In(liveTokenKinds)).
		Where("(?TableAlias.expires_at IS NULL OR ?TableAlias.expires_at > ?)", time.Now().UTC()).
		GroupExpr("?TableAlias.grant_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.GrantID] = row.Count
	}
	return out, nil
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
