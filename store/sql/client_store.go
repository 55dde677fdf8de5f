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

type ClientStore struct {
	db   *bun.DB
	repo repository.Repository[*clientRecord]
}

func NewClientStore(db *bun.DB) (*ClientStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*clientRecord](db, clientHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid client repository wiring: %w", err)
		}
	}
	return &ClientStore{db: db, repo: repo}, nil
}

func (s *ClientStore) Create(ctx context.Context, in core.CreateClientInput) (core.Client, error) {
	if s == nil || s.repo == nil {
		return core.Client{}, fmt.Errorf("sqlstore: client store is not configured")
	}
	if strings.TrimSpace(in.ClientID) == "" {
		return core.Client{}, fmt.Errorf("sqlstore: client id is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return core.Client{}, fmt.Errorf("sqlstore: client name is required")
	}

	record := newClientRecord(in, time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if isDuplicateError(err) {
			return core.Client{}, fmt.Errorf("%w: client %s", core.ErrAlreadyExists, strings.TrimSpace(in.ClientID))
		}
		return core.Client{}, err
	}
	return created.toDomain(), nil
}

func (s *ClientStore) Get(ctx context.Context, clientID string) (core.Client, error) {
	record, err := s.findRecord(ctx, clientID)
	if err != nil {
		return core.Client{}, err
	}
	return record.toDomain(), nil
}

func (s *ClientStore) List(ctx context.Context) ([]core.Client, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: client store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Client, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *ClientStore) Update(ctx context.Context, clientID string, in core.CreateClientInput) (core.Client, error) {
	record, err := s.findRecord(ctx, clientID)
	if err != nil {
		return core.Client{}, err
	}

	record.Name = strings.TrimSpace(in.Name)
	record.Secret = in.Secret
	record.RedirectURIs = copyStrings(in.RedirectURIs)
	record.PostLogoutRedirectURIs = copyStrings(in.PostLogoutRedirectURIs)
	record.GrantTypes = copyStrings(in.GrantTypes)
	record.ResponseTypes = copyStrings(in.ResponseTypes)
	record.Scope = strings.TrimSpace(in.Scope)
	record.LogoURI = strings.TrimSpace(in.LogoURI)
	record.PolicyURI = strings.TrimSpace(in.PolicyURI)
	record.TOSURI = strings.TrimSpace(in.TOSURI)
	record.Contacts = copyStrings(in.Contacts)
	record.Active = in.Active
	record.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, record, repository.UpdateByID(record.ID))
	if err != nil {
		return core.Client{}, err
	}
	return updated.toDomain(), nil
}

func (s *ClientStore) Delete(ctx context.Context, clientID string) error {
	record, err := s.findRecord(ctx, clientID)
	if err != nil {
		return err
	}
	_, err = s.db.NewDelete().
		Model((*clientRecord)(nil)).
		Where("id = ?", record.ID).
		Exec(ctx)
	return err
}

func (s *ClientStore) findRecord(ctx context.Context, clientID string) (*clientRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: client store is not configured")
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, fmt.Errorf("sqlstore: client id is required")
	}
	record := &clientRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.client_id = ?", clientID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrClientNotFound, clientID)
		}
		return nil, err
	}
	return record, nil
}

// StoreClientResolver resolves active clients straight from the database.
// Wrap it in CachedClientResolver to put a read-through cache in front.
type StoreClientResolver struct {
	store *ClientStore
}

func NewStoreClientResolver(store *ClientStore) (*StoreClientResolver, error) {
	if store == nil {
		return nil, fmt.Errorf("sqlstore: client store is required")
	}
	return &StoreClientResolver{store: store}, nil
}

// Resolve returns the client when it exists and is active; disabled or
// missing clients report absent rather than an error.
func (r *StoreClientResolver) Resolve(ctx context.Context, clientID string) (core.Client, bool, error) {
	if r == nil || r.store == nil {
		return core.Client{}, false, fmt.Errorf("sqlstore: client resolver is not configured")
	}
	client, err := r.store.Get(ctx, clientID)
	if err != nil {
		if errors.Is(err, core.ErrClientNotFound) {
			return core.Client{}, false, nil
		}
		return core.Client{}, false, err
	}
	if !client.Active {
		return core.Client{}, false, nil
	}
	return client, true, nil
}

// isDuplicateError recognizes unique-constraint violations across the two
// supported dialects.
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
