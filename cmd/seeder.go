package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/frahmantamala/worktally/internal/auth"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

const (
	demoOrgSlug  = "demo-company"
	demoPassword = "password123"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with a demo organization",
	Long:  `Seed the database with a demo organization, its members, projects, time entries and a pending time off request.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		initLogger(cfg)

		gdb, err := initDB(cfg)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer closeDB(gdb)

		sqlDB, err := gdb.DB()
		if err != nil {
			log.Fatalf("failed to get sql db: %v", err)
		}
		driver := "pgx"
		if cfg.Database.Driver == "sqlite" {
			driver = "sqlite3"
		}

		seeder := &demoSeeder{
			db:     sqlx.NewDb(sqlDB, driver),
			hasher: auth.NewBcryptHasher(cfg.Security.BCryptCost),
			now:    time.Now().UTC(),
		}
		ctx := context.Background()

		if clearData {
			if err := seeder.clear(ctx); err != nil {
				log.Fatalf("failed to clear demo data: %v", err)
			}
			fmt.Println("Cleared demo organization:", demoOrgSlug)
		}

		created, err := seeder.seed(ctx)
		if err != nil {
			log.Fatalf("failed to seed: %v", err)
		}
		if !created {
			fmt.Println("demo organization already exists; run with --clear to recreate it")
			return
		}
		fmt.Printf("Seeded %s. Sign in as any of the members below with password %q\n", demoOrgSlug, demoPassword)
		for _, m := range demoMembers {
			fmt.Printf("  %-8s %s\n", m.Role, m.Email)
		}
	},
}

type demoMember struct {
	Email, Username, FirstName, LastName, Role, JobTitle string
}

var demoMembers = []demoMember{
	{"owner@demo.worktally.dev", "demo.owner", "Olivia", "Owner", "owner", "Founder"},
	{"admin@demo.worktally.dev", "demo.admin", "Adam", "Admin", "admin", "Operations"},
	{"manager@demo.worktally.dev", "demo.manager", "Mia", "Manager", "manager", "Engineering Manager"},
	{"employee@demo.worktally.dev", "demo.employee", "Eli", "Employee", "employee", "Developer"},
}

var demoProjects = []struct {
	Name, Client string
	Active       bool
}{
	{"Website Redesign", "Acme", true},
	{"Internal Tools", "", true},
	{"Legacy Migration", "Globex", false},
}

type demoSeeder struct {
	db     *sqlx.DB
	hasher auth.PasswordHasher
	now    time.Time
}

func (s *demoSeeder) orgID(ctx context.Context) (string, error) {
	var id string
	err := s.db.GetContext(ctx, &id, s.db.Rebind("SELECT id FROM organizations WHERE slug = ?"), demoOrgSlug)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

// seed reports false when the demo organization already exists.
func (s *demoSeeder) seed(ctx context.Context) (bool, error) {
	existing, err := s.orgID(ctx)
	if err != nil {
		return false, err
	}
	if existing != "" {
		return false, nil
	}

	hash, err := s.hasher.Hash(demoPassword)
	if err != nil {
		return false, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	orgID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO organizations
		(id, name, slug, description, is_active, max_users, email, phone, website, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, '', '', '', ?, ?)`),
		orgID, "Demo Company", demoOrgSlug, "Sample data for local development", true, 50, "hello@demo.worktally.dev", s.now, s.now); err != nil {
		return false, fmt.Errorf("insert organization: %w", err)
	}

	ids := make(map[string]int64, len(demoMembers))
	for _, m := range demoMembers {
		var id int64
		err := tx.QueryRowxContext(ctx, tx.Rebind(`INSERT INTO users
			(email, username, password_hash, first_name, last_name, job_title, department, phone_number,
			 organization_id, role, is_active, is_invited, date_joined, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, '', '', ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			m.Email, m.Username, hash, m.FirstName, m.LastName, m.JobTitle,
			orgID, m.Role, true, false, s.now, s.now, s.now).Scan(&id)
		if err != nil {
			return false, fmt.Errorf("insert user %s: %w", m.Email, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO user_profiles (user_id, bio, picture, created_at, updated_at)
			VALUES (?, '', '', ?, ?)`), id, s.now, s.now); err != nil {
			return false, fmt.Errorf("insert profile %s: %w", m.Email, err)
		}
		ids[m.Role] = id
	}

	var projectIDs []int64
	for _, p := range demoProjects {
		var id int64
		err := tx.QueryRowxContext(ctx, tx.Rebind(`INSERT INTO projects
			(organization_id, name, description, client, is_active, created_at, updated_at)
			VALUES (?, ?, '', ?, ?, ?, ?) RETURNING id`),
			orgID, p.Name, p.Client, p.Active, s.now, s.now).Scan(&id)
		if err != nil {
			return false, fmt.Errorf("insert project %s: %w", p.Name, err)
		}
		projectIDs = append(projectIDs, id)
	}

	today := s.now.Truncate(24 * time.Hour)
	for day := 1; day <= 3; day++ {
		start := today.AddDate(0, 0, -day).Add(9 * time.Hour)
		for i, role := range []string{"manager", "employee"} {
			end := start.Add(time.Duration(7+i) * time.Hour).Add(30 * time.Minute)
			if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO time_entries
				(user_id, project_id, clock_in, clock_out, notes, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`),
				ids[role], projectIDs[i], start, end, "Seeded work session", s.now, s.now); err != nil {
				return false, fmt.Errorf("insert time entry: %w", err)
			}
		}
	}

	startDate := today.AddDate(0, 0, 14)
	if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO time_off_requests
		(user_id, start_date, end_date, request_type, status, reason, review_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, '', ?, ?)`),
		ids["employee"], startDate, startDate.AddDate(0, 0, 2), "vacation", "pending", "Family trip", s.now, s.now); err != nil {
		return false, fmt.Errorf("insert time off: %w", err)
	}

	return true, tx.Commit()
}

// clear removes the demo organization and everything its members own.
func (s *demoSeeder) clear(ctx context.Context) error {
	orgID, err := s.orgID(ctx)
	if err != nil || orgID == "" {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	members := "SELECT id FROM users WHERE organization_id = ?"
	statements := []string{
		"DELETE FROM time_off_requests WHERE user_id IN (" + members + ")",
		"DELETE FROM time_entries WHERE user_id IN (" + members + ")",
		"DELETE FROM sessions WHERE user_id IN (" + members + ")",
		"DELETE FROM user_profiles WHERE user_id IN (" + members + ")",
		"DELETE FROM projects WHERE organization_id = ?",
		"UPDATE users SET invited_by_id = NULL WHERE organization_id = ?",
		"DELETE FROM users WHERE organization_id = ?",
		"DELETE FROM organizations WHERE id = ?",
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), orgID); err != nil {
			return fmt.Errorf("clear demo data: %w", err)
		}
	}
	return tx.Commit()
}
