package postgres

import (
	"context"
	"errors"
	"strings"

	authPostgres "github.com/frahmantamala/worktally/internal/auth/postgres"
	organizationDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/organization"
	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	"github.com/frahmantamala/worktally/internal/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

// CreateUserWithProfile inserts u and its profile inside tx.
func CreateUserWithProfile(tx *gorm.DB, u *userDatamodel.User, p *userDatamodel.UserProfile) error {
	if err := tx.Create(u).Error; err != nil {
		return err
	}
	if p == nil {
		p = &userDatamodel.UserProfile{}
	}
	p.UserID = u.ID
	return tx.Create(p).Error
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User, p *userDatamodel.UserProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return CreateUserWithProfile(tx, u, p)
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
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

func (r *UserRepository) GetProfile(ctx context.Context, userID int64) (*userDatamodel.UserProfile, error) {
	var p userDatamodel.UserProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// EmailExists compares case-insensitively and counts pending users too.
func EmailExists(db *gorm.DB, email string) (bool, error) {
	var count int64
	err := db.Model(&userDatamodel.User{}).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	return count > 0, err
}

func UsernameExists(db *gorm.DB, username string, excludeID int64) (bool, error) {
	var count int64
	q := db.Model(&userDatamodel.User{}).Where("username = ?", strings.TrimSpace(username))
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return EmailExists(r.db.WithContext(ctx), email)
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string, excludeID int64) (bool, error) {
	return UsernameExists(r.db.WithContext(ctx), username, excludeID)
}

func (r *UserRepository) UpdateFields(ctx context.Context, id int64, changes map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", id).Updates(changes).Error
}

// SaveProfile upserts on user_id.
func (r *UserRepository) SaveProfile(ctx context.Context, p *userDatamodel.UserProfile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"bio", "picture", "date_of_birth", "hire_date", "updated_at"}),
	}).Create(p).Error
}

// ChangePassword stores hash and drops every session of the user in one
// transaction.
func (r *UserRepository) ChangePassword(ctx context.Context, id int64, hash string) (int64, error) {
	var revoked int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&userDatamodel.User{}).Where("id = ?", id).Update("password_hash", hash).Error; err != nil {
			return err
		}
		n, err := authPostgres.DeleteUserSessions(tx, id)
		if err != nil {
			return err
		}
		revoked = n
		return nil
	})
	return revoked, err
}

func (r *UserRepository) GetOrganizationSummary(ctx context.Context, orgID string) (*user.OrganizationSummary, error) {
	var org organizationDatamodel.Organization
	err := r.db.WithContext(ctx).Select("id", "name", "slug").Where("id = ?", orgID).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user.OrganizationSummary{ID: org.ID, Name: org.Name, Slug: org.Slug}, nil
}
