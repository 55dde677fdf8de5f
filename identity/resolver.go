package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-bankauth/core"
)

// SubjectNotFoundError wraps a lookup failure so callers can branch on the
// sentinel while transports render a stable envelope.
type SubjectNotFoundError struct {
	Ref   string
	Cause error
}

func (e *SubjectNotFoundError) Error() string {
	message := core.ErrSubjectNotFound.Error()
	if e != nil && strings.TrimSpace(e.Ref) != "" {
		message += ": " + strings.TrimSpace(e.Ref)
	}
	if e != nil && e.Cause != nil {
		message += ": " + e.Cause.Error()
	}
	return message
}

func (e *SubjectNotFoundError) Unwrap() error {
	if e == nil {
		return nil
	}
	if e.Cause == nil {
		return core.ErrSubjectNotFound
	}
	return errors.Join(core.ErrSubjectNotFound, e.Cause)
}

func (e *SubjectNotFoundError) ToAuthError() *goerrors.Error {
	return goerrors.New("User not found", goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(core.AuthErrorSubjectNotFound)
}

func subjectNotFound(ref string, cause error) error {
	return &SubjectNotFoundError{Ref: ref, Cause: cause}
}

// Resolver maps between the protocol engine's opaque account references and
// durable subject records, and verifies login credentials against stored
// bcrypt digests.
type Resolver struct {
	store  core.SubjectStore
	logger core.Logger
}

type ResolverOption func(*Resolver)

func WithLogger(logger core.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func NewResolver(store core.SubjectStore, opts ...ResolverOption) (*Resolver, error) {
	if store == nil {
		return nil, fmt.Errorf("identity: subject store is required")
	}
	resolver := &Resolver{store: store}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(resolver)
	}
	return resolver, nil
}

func (r *Resolver) ResolveByID(ctx context.Context, id string) (core.Subject, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.Subject{}, fmt.Errorf("identity: subject id is required")
	}
	subject, err := r.store.GetByID(ctx, id)
	if err != nil {
		return core.Subject{}, r.wrapLookupError(id, err)
	}
	return subject, nil
}

func (r *Resolver) ResolveByExternalRef(ctx context.Context, externalRef string) (core.Subject, error) {
	externalRef = strings.TrimSpace(externalRef)
	if externalRef == "" {
		return core.Subject{}, fmt.Errorf("identity: external ref is required")
	}
	subject, err := r.store.GetByExternalRef(ctx, externalRef)
	if err != nil {
		return core.Subject{}, r.wrapLookupError(externalRef, err)
	}
	return subject, nil
}

// VerifyCredential checks an email/password pair. Every failure mode, a
// missing subject included, reports the same ErrInvalidCredentials so the
// login form cannot be used to probe which emails exist.
func (r *Resolver) VerifyCredential(ctx context.Context, email string, password string) (core.Subject, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return core.Subject{}, core.ErrInvalidCredentials
	}

	subject, err := r.store.GetByEmail(ctx, email)
	if err != nil {
		r.logDebug("credential lookup failed", "error", err.Error())
		return core.Subject{}, core.ErrInvalidCredentials
	}

	hash, err := r.store.CredentialHash(ctx, subject.ID)
	if err != nil || len(hash) == 0 {
		return core.Subject{}, core.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return core.Subject{}, core.ErrInvalidCredentials
	}
	return subject, nil
}

func (r *Resolver) Accounts(ctx context.Context, subjectID string) ([]core.BankAccount, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, fmt.Errorf("identity: subject id is required")
	}
	accounts, err := r.store.ListAccounts(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []core.BankAccount{}
	}
	return accounts, nil
}

// HashPassword produces the bcrypt digest stored alongside a subject. Used
// by seeding and administrative tooling.
func HashPassword(password string) ([]byte, error) {
	if password == "" {
		return nil, fmt.Errorf("identity: password is required")
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

func (r *Resolver) wrapLookupError(ref string, err error) error {
	if errors.Is(err, core.ErrSubjectNotFound) {
		return subjectNotFound(ref, nil)
	}
	return err
}

func (r *Resolver) logDebug(message string, args ...any) {
	if r == nil || r.logger == nil {
		return
	}
	r.logger.Debug(message, args...)
}

var _ core.SubjectResolver = (*Resolver)(nil)
