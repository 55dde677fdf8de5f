package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-bankauth/core"
)

// UserStore reads subject and bank account records. Subjects are provisioned
// by seeding or upstream systems of record; this module only consumes them.
type UserStore struct {
	db       *bun.DB
	users    repository.Repository[*userRecord]
	accounts repository.Repository[*accountRecord]
}

func NewUserStore(db *bun.DB) (*UserStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	users := repository.NewRepository[*userRecord](db, userHandlers())
	if validator, ok := users.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid user repository wiring: %w", err)
		}
	}
	accounts := repository.NewRepository[*accountRecord](db, accountHandlers())
	if validator, ok := accounts.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid account repository wiring: %w", err)
		}
	}
	return &UserStore{db: db, users: users, accounts: accounts}, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (core.Subject, error) {
	record, err := s.findUser(ctx, "id", id)
	if err != nil {
		return core.Subject{}, err
	}
	return record.toDomain(), nil
}

func (s *UserStore) GetByExternalRef(ctx context.Context, externalRef string) (core.Subject, error) {
	record, err := s.findUser(ctx, "external_ref", externalRef)
	if err != nil {
		return core.Subject{}, err
	}
	return record.toDomain(), nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (core.Subject, error) {
	record, err := s.findUser(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return core.Subject{}, err
	}
	return record.toDomain(), nil
}

func (s *UserStore) CredentialHash(ctx context.Context, subjectID string) ([]byte, error) {
	record, err := s.findUser(ctx, "id", subjectID)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), record.PasswordHash...), nil
}

func (s *UserStore) ListAccounts(ctx context.Context, subjectID string) ([]core.BankAccount, error) {
	if s == nil || s.accounts == nil {
		return nil, fmt.Errorf("sqlstore: user store is not configured")
	}
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, fmt.Errorf("sqlstore: subject id is required")
	}
	records, _, err := s.accounts.List(ctx,
		repository.SelectBy("user_id", "=", subjectID),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.BankAccount, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

// CreateUser provisions a subject with a credential hash. Used by seeding
// and tests.
func (s *UserStore) CreateUser(ctx context.Context, subject core.Subject, passwordHash []byte) (core.Subject, error) {
	if s == nil || s.users == nil {
		return core.Subject{}, fmt.Errorf("sqlstore: user store is not configured")
	}
	if strings.TrimSpace(subject.ExternalRef) == "" {
		return core.Subject{}, fmt.Errorf("sqlstore: external ref is required")
	}
	if strings.TrimSpace(subject.Email) == "" {
		return core.Subject{}, fmt.Errorf("sqlstore: email is required")
	}

	record := newUserRecord(subject, passwordHash)
	created, err := s.users.Create(ctx, record)
	if err != nil {
		if isDuplicateError(err) {
			return core.Subject{}, fmt.Errorf("%w: subject %s", core.ErrAlreadyExists, strings.TrimSpace(subject.ExternalRef))
		}
		return core.Subject{}, err
	}
	return created.toDomain(), nil
}

// CreateAccount provisions a bank account for a subject. Used by seeding
// and tests.
func (s *UserStore) CreateAccount(ctx context.Context, account core.BankAccount) (core.BankAccount, error) {
	if s == nil || s.accounts == nil {
		return core.BankAccount{}, fmt.Errorf("sqlstore: user store is not configured")
	}
	if strings.TrimSpace(account.SubjectID) == "" {
		return core.BankAccount{}, fmt.Errorf("sqlstore: subject id is required")
	}
	record := newAccountRecord(account)
	created, err := s.accounts.Create(ctx, record)
	if err != nil {
		return core.BankAccount{}, err
	}
	return created.toDomain(), nil
}

func (s *UserStore) findUser(ctx context.Context, column string, value string) (*userRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: user store is not configured")
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("sqlstore: subject lookup value is required")
	}
	record := &userRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", core.ErrSubjectNotFound, value)
		}
		return nil, err
	}
	return record, nil
}
