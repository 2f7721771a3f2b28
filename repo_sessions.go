package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Sessions is the session store adapter. Every login creates one row; logout
// and superseding logins deactivate rows in place so the history survives.
type Sessions interface {
	repository.Repository[*Session]

	Start(ctx context.Context, userID uuid.UUID, refreshTokenID string, expiresAt time.Time, meta SessionMeta) (*Session, error)
	StartTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, refreshTokenID string, expiresAt time.Time, meta SessionMeta) (*Session, error)

	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*Session, error)
	FindByRefreshTokenID(ctx context.Context, refreshTokenID string) (*Session, error)

	Rotate(ctx context.Context, sessionID uuid.UUID, priorTokenID, nextTokenID string, expiresAt time.Time) (*Session, error)

	DeactivateAll(ctx context.Context, userID uuid.UUID) (int64, error)
	DeactivateAllTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int64, error)
	Deactivate(ctx context.Context, sessionID uuid.UUID) error
}

type sessions struct {
	repository.Repository[*Session]
	db *bun.DB
}

var (
	_ Sessions                        = (*sessions)(nil)
	_ repository.Repository[*Session] = (*sessions)(nil)
)

func NewSessionsRepository(db *bun.DB) Sessions {
	repo := repository.NewRepository[*Session](db, repository.ModelHandlers[*Session]{
		NewRecord: func() *Session { return &Session{} },
		GetID: func(s *Session) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Session, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "refresh_token_id"
		},
	})

	return &sessions{
		Repository: repo,
		db:         db,
	}
}

func (a *sessions) Start(ctx context.Context, userID uuid.UUID, refreshTokenID string, expiresAt time.Time, meta SessionMeta) (*Session, error) {
	return a.StartTx(ctx, a.db, userID, refreshTokenID, expiresAt, meta)
}

func (a *sessions) StartTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, refreshTokenID string, expiresAt time.Time, meta SessionMeta) (*Session, error) {
	now := time.Now()
	record := &Session{
		ID:             uuid.New(),
		UserID:         userID,
		RefreshTokenID: refreshTokenID,
		UserAgent:      meta.UserAgent,
		IPAddress:      meta.IPAddress,
		Active:         true,
		LastUsedAt:     &now,
		ExpiresAt:      &expiresAt,
	}

	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *sessions) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*Session, error) {
	record := &Session{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.active = ?", true).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": userID.String(),
				})
		}
		return nil, WrapStoreError(err, "failed to load active session")
	}

	return record, nil
}

func (a *sessions) FindByRefreshTokenID(ctx context.Context, refreshTokenID string) (*Session, error) {
	record := &Session{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.refresh_token_id = ?", refreshTokenID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"refresh_token_id": refreshTokenID,
				})
		}
		return nil, WrapStoreError(err, "failed to load session by refresh token id")
	}

	return record, nil
}

// Rotate atomically replaces the refresh token identifier and bumps
// last_used_at. The update is conditional on the prior identifier so a
// concurrent rotation of the same session cannot both win: a stale prior id
// matches zero rows and surfaces as not found.
func (a *sessions) Rotate(ctx context.Context, sessionID uuid.UUID, priorTokenID, nextTokenID string, expiresAt time.Time) (*Session, error) {
	now := time.Now()

	res, err := a.db.NewUpdate().
		Model((*Session)(nil)).
		Set("refresh_token_id = ?", nextTokenID).
		Set("last_used_at = ?", now).
		Set("expires_at = ?", expiresAt).
		Set("updated_at = ?", now).
		Where("id = ?", sessionID).
		Where("refresh_token_id = ?", priorTokenID).
		Where("active = ?", true).
		Exec(ctx)

	if err != nil {
		return nil, WrapStoreError(err, "failed to rotate session")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, WrapStoreError(err, "failed to read rotation result")
	}

	if affected == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"session_id":       sessionID.String(),
				"refresh_token_id": priorTokenID,
			})
	}

	record := &Session{}
	if err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", sessionID).
		Limit(1).
		Scan(ctx); err != nil {
		return nil, WrapStoreError(err, "failed to reload rotated session")
	}

	return record, nil
}

func (a *sessions) DeactivateAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return a.DeactivateAllTx(ctx, a.db, userID)
}

func (a *sessions) DeactivateAllTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (int64, error) {
	res, err := tx.NewUpdate().
		Model((*Session)(nil)).
		Set("active = ?", false).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ?", userID).
		Where("active = ?", true).
		Exec(ctx)

	if err != nil {
		return 0, WrapStoreError(err, "failed to deactivate sessions")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, WrapStoreError(err, "failed to read deactivation result")
	}

	return affected, nil
}

func (a *sessions) Deactivate(ctx context.Context, sessionID uuid.UUID) error {
	_, err := a.db.NewUpdate().
		Model((*Session)(nil)).
		Set("active = ?", false).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", sessionID).
		Exec(ctx)

	if err != nil {
		return WrapStoreError(err, "failed to deactivate session")
	}

	return nil
}
