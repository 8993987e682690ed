package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/FIRSTTeam102/scoutradioz-sub000/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Store, convey.ShouldEqual, config.StoreSQLite)
			convey.So(cfg.Compression, convey.ShouldEqual, "flate")
			convey.So(cfg.CompressionLevel, convey.ShouldEqual, 9)
			convey.So(cfg.ChecksumPrefixLen, convey.ShouldEqual, 4)
			convey.So(cfg.MaxPayloadChars, convey.ShouldEqual, 2953)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:9102")
				convey.So(cfg.DBPath, convey.ShouldEqual, "voyager.db")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("VOYAGER_STORE", "memory")
			_ = os.Setenv("VOYAGER_COMPRESSION", "zstd")
			_ = os.Setenv("VOYAGER_COMPRESSION_LEVEL", "3")
			_ = os.Setenv("VOYAGER_CHECKSUM_PREFIX_LEN", "6")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.Compression, convey.ShouldEqual, "zstd")
				convey.So(cfg.CompressionLevel, convey.ShouldEqual, 3)
				convey.So(cfg.ChecksumPrefixLen, convey.ShouldEqual, 6)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
compression: lz4
qr_size: 256
qr_recovery: medium
`)
			_ = os.Setenv("VOYAGER_CONFIG", tmpFile)
			_ = os.Setenv("VOYAGER_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Compression, convey.ShouldEqual, "lz4")
				convey.So(cfg.QRSize, convey.ShouldEqual, 256)
				convey.So(cfg.QRRecovery, convey.ShouldEqual, "medium")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)
			_ = os.Setenv("VOYAGER_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a value is out of range", func() {
			_ = os.Setenv("VOYAGER_COMPRESSION_LEVEL", "12")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "compression_level")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with bad enumerations", t, func() {
		cases := map[string]func(*config.Config){
			"store":       func(c *config.Config) { c.Store = "dexie" },
			"compression": func(c *config.Config) { c.Compression = "lzma" },
			"qr_recovery": func(c *config.Config) { c.QRRecovery = "max" },
			"addr":        func(c *config.Config) { c.Addr = " " },
			"db_path":     func(c *config.Config) { c.DBPath = "" },
			"checksum":    func(c *config.Config) { c.ChecksumPrefixLen = 0 },
			"codec pool":  func(c *config.Config) { c.CodecWorkers = 0 },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			_ = name
		}
	})
}

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"VOYAGER_CONFIG",
		"VOYAGER_ADDR",
		"VOYAGER_STORE",
		"VOYAGER_COMPRESSION",
		"VOYAGER_COMPRESSION_LEVEL",
		"VOYAGER_CHECKSUM_PREFIX_LEN",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := t.TempDir() + "/voyager.yaml"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
