package main

import (
	"context"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/brianes/pitchscore/internal/config"
)

// t.Setenv lasts for the whole test function, so the override and
// default cases live in separate tests.
func TestConfigurationFromEnvironment(t *testing.T) {
	t.Setenv("PITCHSCORE_ADDR", ":8080")
	t.Setenv("PITCHSCORE_DB_PATH", "/tmp/pitchscore-test.db")
	t.Setenv("PITCHSCORE_DEDUPE_SIZE", "1000")

	convey.Convey("Given environment overrides", t, func() {
		convey.Convey("Then configuration should honor them", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg, convey.ShouldNotBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.DBPath, convey.ShouldEqual, "/tmp/pitchscore-test.db")
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 1000)
		})
	})
}

func TestConfigurationDefaults(t *testing.T) {
	convey.Convey("Given no environment overrides", t, func() {
		convey.Convey("Then defaults should apply", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":3001")
			convey.So(cfg.ResetPassword, convey.ShouldNotBeEmpty)
		})
	})
}

func TestSystemMetricsUpdater(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("When updating system metrics", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
