package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	"github.com/frahmantamala/worktally/internal/invitation"
	userPostgres "github.com/frahmantamala/worktally/internal/user/postgres"
	"gorm.io/gorm"
)

type InvitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) invitation.RepositoryAPI {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return userPostgres.EmailExists(r.db.WithContext(ctx), email)
}

func (r *InvitationRepository) UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error) {
	return userPostgres.UsernameExists(r.db.WithContext(ctx), username, excludeID)
}

func (r *InvitationRepository) CreatePending(ctx context.Context, u *userDatamodel.User, p *userDatamodel.UserProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return userPostgres.CreateUserWithProfile(tx, u, p)
	})
}

func (r *InvitationRepository) GetPendingByToken(ctx context.Context, token string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("invitation_token = ? AND is_invited = ?", token, true).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *InvitationRepository) GetUserByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
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

func (r *InvitationRepository) Activate(ctx context.Context, token, username, passwordHash string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("invitation_token = ? AND is_invited = ?", token, true).
		Updates(map[string]interface{}{
			"username":         strings.TrimSpace(username),
			"password_hash":    passwordHash,
			"is_active":        true,
			"is_invited":       false,
			"invitation_token": nil,
			"date_joined":      now,
		})
	return result.RowsAffected, result.Error
}
