package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/frahmantamala/worktally/internal/auth"
	sessionDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/session"
	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) auth.RepositoryAPI {
	return &AuthRepository{db: db}
}

func (r *AuthRepository) CreateSession(ctx context.Context, s *sessionDatamodel.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *AuthRepository) GetSession(ctx context.Context, id string) (*sessionDatamodel.Session, error) {
	var s sessionDatamodel.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *AuthRepository) TouchSession(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&sessionDatamodel.Session{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

func (r *AuthRepository) DeleteSession(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&sessionDatamodel.Session{}).Error
}

func (r *AuthRepository) DeleteUserSessions(ctx context.Context, userID int64) (int64, error) {
	return DeleteUserSessions(r.db.WithContext(ctx), userID)
}

// DeleteUserSessions removes every session of userID using tx, so callers can
// combine it with other writes.
func DeleteUserSessions(tx *gorm.DB, userID int64) (int64, error) {
	res := tx.Where("user_id = ?", userID).Delete(&sessionDatamodel.Session{})
	return res.RowsAffected, res.Error
}

func (r *AuthRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&sessionDatamodel.Session{})
	return res.RowsAffected, res.Error
}

func (r *AuthRepository) GetUserByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByLogin matches the email case-insensitively, then the exact username.
func (r *AuthRepository) GetUserByLogin(ctx context.Context, login string) (*userDatamodel.User, error) {
	login = strings.TrimSpace(login)
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(login)).
		Or("username = ?", login).
		Order("id ASC").
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *AuthRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Update("last_login", at).Error
}
