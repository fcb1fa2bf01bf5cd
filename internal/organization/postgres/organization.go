package postgres

import (
	"context"
	"errors"

	organizationDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/organization"
	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
	"github.com/frahmantamala/worktally/internal/organization"
	userPostgres "github.com/frahmantamala/worktally/internal/user/postgres"
	"gorm.io/gorm"
)

// roleRankOrder sorts rosters owner, admin, manager, employee.
const roleRankOrder = "CASE role WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 WHEN 'manager' THEN 2 WHEN 'employee' THEN 3 ELSE 4 END"

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) organization.RepositoryAPI {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&organizationDatamodel.Organization{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *OrganizationRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return userPostgres.EmailExists(r.db.WithContext(ctx), email)
}

func (r *OrganizationRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return userPostgres.UsernameExists(r.db.WithContext(ctx), username, 0)
}

func (r *OrganizationRepository) CreateWithOwner(ctx context.Context, org *organizationDatamodel.Organization, owner *userDatamodel.User, profile *userDatamodel.UserProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		owner.OrganizationID = &org.ID
		return userPostgres.CreateUserWithProfile(tx, owner, profile)
	})
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*organizationDatamodel.Organization, error) {
	var org organizationDatamodel.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

// CountMembers counts every user referencing the organization, pending ones included.
func (r *OrganizationRepository) CountMembers(ctx context.Context, orgID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("organization_id = ?", orgID).Count(&count).Error
	return count, err
}

func (r *OrganizationRepository) ListActiveMembers(ctx context.Context, orgID string) ([]*userDatamodel.User, error) {
	var members []*userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = ?", orgID, true).
		Order(roleRankOrder).
		Order("first_name ASC").
		Order("last_name ASC").
		Find(&members).Error
	return members, err
}

func (r *OrganizationRepository) ListPendingInvitations(ctx context.Context, orgID string) ([]*userDatamodel.User, error) {
	var pending []*userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_invited = ? AND is_active = ?", orgID, true, false).
		Order("invited_at DESC").
		Order("id DESC").
		Find(&pending).Error
	return pending, err
}

func (r *OrganizationRepository) GetUsersByIDs(ctx context.Context, ids []int64) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}
