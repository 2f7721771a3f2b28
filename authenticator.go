package auth

import (
	"context"
	"database/sql"
	"reflect"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DeleteConfirmationPhrase must be typed verbatim to delete an account.
const DeleteConfirmationPhrase = "DELETE MY ACCOUNT"

// RegisterInput is the validated payload for account creation.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// AuthResult bundles the tokens and profile produced by a successful
// register, login, or refresh.
type AuthResult struct {
	User    *User
	Session *Session
	Tokens  TokenPair
}

// UserStore is the slice of the users repository the orchestrator needs.
type UserStore interface {
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	ChangePasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	TrackAttemptedLogin(ctx context.Context, user *User) error
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// SessionStore is the slice of the sessions repository the orchestrator
// needs.
type SessionStore interface {
	StartTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, refreshTokenID string, expiresAt time.Time, meta SessionMeta) (*Session, error)
	FindByRefreshTokenID(ctx context.Context, refreshTokenID string) (*Session, error)
	Rotate(ctx context.Context, sessionID uuid.UUID, priorTokenID, nextTokenID string, expiresAt time.Time) (*Session, error)
	DeactivateAll(ctx context.Context, userID uuid.UUID) (int64, error)
	DeactivateAllTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int64, error)
}

// TransactionRunner runs a function inside one store transaction.
type TransactionRunner interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
}

// Auther orchestrates the full account lifecycle: registration, login,
// logout, token refresh, password change, and account deletion. Each
// mutation runs in a single transaction so a half-applied login or refresh
// can never leave the store inconsistent.
type Auther struct {
	provider     IdentityProvider
	users        UserStore
	sessions     SessionStore
	tx           TransactionRunner
	tokens       *TokenService
	profile      Profile
	logger       Logger
	activitySink ActivitySink
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, tokens *TokenService, profile Profile) *Auther {
	return NewAuthenticatorWithStores(repo.Users(), repo.Sessions(), repo, tokens, profile)
}

// NewAuthenticatorWithStores wires an Auther from its narrow dependencies.
func NewAuthenticatorWithStores(users UserStore, sessions SessionStore, tx TransactionRunner, tokens *TokenService, profile Profile) *Auther {
	return &Auther{
		provider:     NewUserProvider(users),
		users:        users,
		sessions:     sessions,
		tx:           tx,
		tokens:       tokens,
		profile:      profile,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithIdentityProvider overrides the default identity provider.
func (s *Auther) WithIdentityProvider(provider IdentityProvider) *Auther {
	if provider != nil {
		s.provider = provider
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() *TokenService {
	return s.tokens
}

// Register creates an account and logs it in. Password strength violations
// are collected into a single WEAK_PASSWORD error so the client can render
// all of them at once.
func (s *Auther) Register(ctx context.Context, input RegisterInput, meta SessionMeta) (*AuthResult, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, NewValidationError("email is required", map[string]any{"email": "required"})
	}

	if err := ValidatePasswordStrength(input.Password); err != nil {
		return nil, err
	}

	if existing, err := s.users.GetByIdentifier(ctx, email); err == nil && existing != nil {
		return nil, ErrUserExists
	} else if err != nil && !errors.IsNotFound(err) {
		return nil, WrapStoreError(err, "failed to check for existing account")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	record := &User{
		Email:        email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		PasswordHash: hash,
	}

	result := &AuthResult{}
	err = s.tx.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := s.users.RegisterTx(ctx, tx, record)
		if err != nil {
			// a concurrent registration can slip past the lookup above and
			// land on the unique email constraint instead
			if IsUniqueViolation(err) {
				return ErrUserExists
			}
			return err
		}

		session, pair, err := s.startSessionTx(ctx, tx, user, meta)
		if err != nil {
			return err
		}

		result.User = user
		result.Session = session
		result.Tokens = pair
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventRegistration, ActorRef{ID: result.User.ID.String(), Type: "user"}, result.User.ID.String(), map[string]any{
		"email": email,
	})

	return result, nil
}

// Login verifies credentials and establishes the single active session for
// the account, superseding any prior one.
func (s *Auther) Login(ctx context.Context, identifier, password string, meta SessionMeta) (*AuthResult, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error: %v", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"identifier": identifier,
			"error":      err.Error(),
		})
		return nil, normalizeCredentialError(err)
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return nil, ErrAuthFailed
	}

	userID, err := uuid.Parse(identity.ID())
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "identity has a malformed id")
	}

	user, err := s.users.GetByIdentifier(ctx, userID.String())
	if err != nil {
		return nil, WrapStoreError(err, "failed to load user after verification")
	}

	result := &AuthResult{User: user}
	err = s.tx.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		session, pair, err := s.startSessionTx(ctx, tx, user, meta)
		if err != nil {
			return err
		}

		result.Session = session
		result.Tokens = pair
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
		"identifier": identifier,
	})

	return result, nil
}

// Logout deactivates every session for the subject. It always reports
// success to the caller; a store failure is logged, not surfaced, because
// the client clears its cookies either way.
func (s *Auther) Logout(ctx context.Context, userID uuid.UUID) {
	count, err := s.sessions.DeactivateAll(ctx, userID)
	if err != nil {
		s.logger.Error("Logout session deactivation failed: %v", err)
		return
	}

	if count == 0 {
		s.logger.Debug("Logout found no active sessions for %s", userID)
	}

	s.emitAuthEvent(ctx, ActivityEventLogout, ActorRef{ID: userID.String(), Type: "user"}, userID.String(), nil)
}

// Refresh exchanges a valid refresh token for a new pair, rotating the
// stored session atomically. A replayed token no longer matches the stored
// refresh_token_id and comes back as SESSION_NOT_FOUND.
func (s *Auther) Refresh(ctx context.Context, refreshToken string, meta SessionMeta) (*AuthResult, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.FindByRefreshTokenID(ctx, claims.TokenID())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, WrapStoreError(err, "failed to load session for refresh")
	}

	if !session.IsUsable(time.Now()) {
		return nil, ErrSessionNotFound
	}

	if session.UserID.String() != claims.Subject() {
		s.logger.Warn("Refresh token subject does not match session owner, session=%s", session.ID)
		return nil, ErrSessionNotFound
	}

	user, err := s.users.GetByIdentifier(ctx, session.UserID.String())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, WrapStoreError(err, "failed to load user for refresh")
	}

	pair, err := s.tokens.IssuePair(SubjectClaimsFromIdentity(NewIdentityFromUser(user)))
	if err != nil {
		return nil, err
	}

	rotated, err := s.sessions.Rotate(ctx, session.ID, claims.TokenID(), pair.Refresh.ID, pair.Refresh.ExpiresAt)
	if err != nil {
		if errors.IsNotFound(err) {
			// lost the race against a concurrent refresh or logout
			return nil, ErrSessionNotFound
		}
		return nil, WrapStoreError(err, "failed to rotate session")
	}

	s.emitAuthEvent(ctx, ActivityEventTokenRefreshed, ActorRef{ID: user.ID.String(), Type: "user"}, user.ID.String(), map[string]any{
		"session_id": session.ID.String(),
	})

	return &AuthResult{User: user, Session: rotated, Tokens: pair}, nil
}

// ChangePassword re-verifies the current password, enforces strength on the
// replacement, and revokes every session so both parties must log in again.
func (s *Auther) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.users.GetByIdentifier(ctx, userID.String())
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return WrapStoreError(err, "failed to load user for password change")
	}

	if err := ComparePasswordAndHash(currentPassword, user.PasswordHash); err != nil {
		return ErrInvalidCurrentPassword
	}

	if currentPassword == newPassword {
		return ErrSamePassword
	}

	if err := ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.users.ChangePasswordTx(ctx, tx, userID, hash); err != nil {
			return err
		}

		if _, err := s.sessions.DeactivateAllTx(ctx, tx, userID); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return WrapStoreError(err, "failed to change password")
	}

	s.emitAuthEvent(ctx, ActivityEventPasswordChanged, ActorRef{ID: userID.String(), Type: "user"}, userID.String(), nil)

	return nil
}

// DeleteAccount soft deletes the account after the user re-enters their
// password and types the confirmation phrase alongside their own email.
// The confirmation step is skipped under the test profile so integration
// suites do not have to script it.
func (s *Auther) DeleteAccount(ctx context.Context, userID uuid.UUID, password, confirmation, email string) error {
	user, err := s.users.GetByIdentifier(ctx, userID.String())
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrIdentityNotFound
		}
		return WrapStoreError(err, "failed to load user for account deletion")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return ErrInvalidCurrentPassword
	}

	if s.profile != ProfileTest {
		if strings.TrimSpace(confirmation) != DeleteConfirmationPhrase {
			return ErrConfirmationMismatch
		}
		if NormalizeEmail(email) != user.Email {
			return ErrConfirmationMismatch
		}
	}

	err = s.tx.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.sessions.DeactivateAllTx(ctx, tx, userID); err != nil {
			return err
		}

		return s.users.SoftDeleteTx(ctx, tx, userID)
	})
	if err != nil {
		return WrapStoreError(err, "failed to delete account")
	}

	s.emitAuthEvent(ctx, ActivityEventAccountDeleted, ActorRef{ID: userID.String(), Type: "user"}, userID.String(), nil)

	return nil
}

// startSessionTx issues a token pair and replaces whatever session the user
// had with a fresh one, inside the caller's transaction.
func (s *Auther) startSessionTx(ctx context.Context, tx bun.Tx, user *User, meta SessionMeta) (*Session, TokenPair, error) {
	pair, err := s.tokens.IssuePair(SubjectClaimsFromIdentity(NewIdentityFromUser(user)))
	if err != nil {
		return nil, TokenPair{}, err
	}

	if _, err := s.sessions.DeactivateAllTx(ctx, tx, user.ID); err != nil {
		return nil, TokenPair{}, WrapStoreError(err, "failed to supersede prior sessions")
	}

	session, err := s.sessions.StartTx(ctx, tx, user.ID, pair.Refresh.ID, pair.Refresh.ExpiresAt, meta)
	if err != nil {
		return nil, TokenPair{}, WrapStoreError(err, "failed to start session")
	}

	return session, pair, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

// normalizeCredentialError collapses every credential failure except the
// cooldown into the generic AUTH_FAILED so responses cannot be used to
// enumerate accounts.
func normalizeCredentialError(err error) error {
	if errors.Is(err, ErrTooManyLoginAttempts) {
		return ErrTooManyLoginAttempts
	}
	if errors.Is(err, ErrMismatchedHashAndPassword) || errors.IsNotFound(err) {
		return ErrAuthFailed
	}

	var rich *errors.Error
	if errors.As(err, &rich) && rich.Category == errors.CategoryInternal {
		return err
	}

	return ErrAuthFailed
}
