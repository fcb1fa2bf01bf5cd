package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/frahmantamala/worktally/internal/auth"
	"github.com/frahmantamala/worktally/internal/core/datamodel"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

var _ = Describe("demoSeeder", func() {
	var (
		seeder *demoSeeder
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		gdb, err := datamodel.OpenSQLite(datamodel.MemoryDSN(), true)
		Expect(err).NotTo(HaveOccurred())
		Expect(datamodel.AutoMigrate(gdb)).To(Succeed())
		sqlDB, err := gdb.DB()
		Expect(err).NotTo(HaveOccurred())

		seeder = &demoSeeder{
			db:     sqlx.NewDb(sqlDB, "sqlite3"),
			hasher: auth.NewBcryptHasher(bcrypt.MinCost),
			now:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		}
	})

	count := func(table string) int {
		var n int
		Expect(seeder.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+table)).To(Succeed())
		return n
	}

	It("should seed once and skip when the organization exists", func() {
		created, err := seeder.seed(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeTrue())
		Expect(count("users")).To(Equal(len(demoMembers)))
		Expect(count("user_profiles")).To(Equal(len(demoMembers)))
		Expect(count("projects")).To(Equal(len(demoProjects)))
		Expect(count("time_entries")).To(Equal(6))
		Expect(count("time_off_requests")).To(Equal(1))

		created, err = seeder.seed(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeFalse())
		Expect(count("users")).To(Equal(len(demoMembers)))
	})

	It("should clear everything it seeded", func() {
		_, err := seeder.seed(ctx)
		Expect(err).NotTo(HaveOccurred())

		Expect(seeder.clear(ctx)).To(Succeed())
		for _, table := range []string{"organizations", "users", "user_profiles", "projects", "time_entries", "time_off_requests"} {
			Expect(count(table)).To(BeZero(), table)
		}
	})

	It("should treat clearing an empty database as a no-op", func() {
		Expect(seeder.clear(ctx)).To(Succeed())
	})
})
