// Package datamodel holds the gorm row types and the helpers that create the
// schema outside of the goose migrations (sqlite development mode and tests).
package datamodel

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/worktally/internal"
	organizationDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/organization"
	projectDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/project"
	sessionDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/session"
	timeentryDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/timeentry"
	timeoffDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/timeoff"
	userDatamodel "github.com/frahmantamala/worktally/internal/core/datamodel/user"
)

// OpenEntryIndex keeps at most one open time entry per user.
const OpenEntryIndex = "ux_time_entries_open_per_user"

func Models() []interface{} {
	return []interface{}{
		&organizationDatamodel.Organization{},
		&userDatamodel.User{},
		&userDatamodel.UserProfile{},
		&sessionDatamodel.Session{},
		&projectDatamodel.Project{},
		&timeentryDatamodel.TimeEntry{},
		&timeoffDatamodel.TimeOff{},
	}
}

// AutoMigrate creates every table plus the partial unique index that gorm
// cannot express through struct tags.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	stmt := fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON time_entries (user_id) WHERE clock_out IS NULL", OpenEntryIndex)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create open entry index: %w", err)
	}
	return nil
}

func GormConfig(silent bool) *gorm.Config {
	mode := logger.Warn
	if silent {
		mode = logger.Silent
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(mode),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func OpenSQLite(dsn string, silent bool) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(dsn), GormConfig(silent))
}

// MemoryDSN returns a private shared-cache in-memory sqlite database name.
func MemoryDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
}

// IsUniqueViolation recognises duplicate key errors from postgres and sqlite.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

// InScope filters a query that joins users to the rows scope may see.
// table names the joined table holding user_id.
func InScope(q *gorm.DB, scope internal.Scope, table string) *gorm.DB {
	if scope.IsOrganization() {
		return q.Where("users.organization_id = ?", scope.OrganizationID)
	}
	return q.Where(table+".user_id = ?", scope.UserID)
}
