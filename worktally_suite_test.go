package main_test

import (
	"testing"

	"github.com/frahmantamala/worktally/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"
)

func TestWorkTally(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "WorkTally Suite")
}

var _ = Describe("shipped config.yml", func() {
	It("should unmarshal and validate", func() {
		v := viper.New()
		v.SetConfigFile("config.yml")
		Expect(v.ReadInConfig()).To(Succeed())

		var cfg internal.Config
		Expect(v.Unmarshal(&cfg)).To(Succeed())
		cfg.ApplyDefaults()
		Expect(cfg.Validate()).To(Succeed())

		Expect(cfg.Database.Driver).To(Equal("postgres"))
		Expect(cfg.Worker.SessionPruneSchedule).To(Equal("@hourly"))
		Expect(cfg.Observability.Metrics.Path).To(Equal("/metrics"))
	})
})
