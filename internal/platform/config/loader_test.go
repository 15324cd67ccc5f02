package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/marcelojr/placar-show/internal/platform/config"
	"github.com/marcelojr/placar-show/internal/platform/validation"
)

var configEnvVars = []string{
	"PLACAR_CONFIG",
	"PLACAR_ENV_FILE",
	"PLACAR_HTTP_ADDRESS",
	"PLACAR_STORE_BACKEND",
	"PLACAR_REDIS_ADDR",
	"PLACAR_DRAFT_DEBOUNCE_MS",
	"PLACAR_AUTO_MIGRATE",
	"PLACAR_ADMIN_PASSWORD",
	"PLACAR_DATABASE_DRIVER",
	"PLACAR_SUGGEST_PROVIDER",
}

func clearConfigEnvVars() {
	for _, key := range configEnvVars {
		_ = os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Dado o carregador de configuracao", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("Quando so existem os defaults", func() {
			cfg, err := config.Load()

			convey.Convey("Entao os valores locais sao usados", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.HTTPAddress, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, "redis")
				convey.So(cfg.DatabaseDriver, convey.ShouldEqual, "sqlite")
				convey.So(cfg.DatabaseDSN(), convey.ShouldEqual, "placar.db")
				convey.So(cfg.DraftDebounce(), convey.ShouldEqual, 500*time.Millisecond)
				convey.So(cfg.AdminPassword, convey.ShouldEqual, "admin@123")
			})
		})

		convey.Convey("Quando variaveis PLACAR_* estao definidas", func() {
			_ = os.Setenv("PLACAR_HTTP_ADDRESS", ":9999")
			_ = os.Setenv("PLACAR_STORE_BACKEND", "memory")
			_ = os.Setenv("PLACAR_DRAFT_DEBOUNCE_MS", "250")
			_ = os.Setenv("PLACAR_AUTO_MIGRATE", "false")

			cfg, err := config.Load()

			convey.Convey("Entao elas sobrescrevem os defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.HTTPAddress, convey.ShouldEqual, ":9999")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, "memory")
				convey.So(cfg.DraftDebounce(), convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.AutoMigrate, convey.ShouldBeFalse)
			})
		})

		convey.Convey("Quando um arquivo YAML e informado", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "placar.yaml")
			yaml := "http_address: \":7070\"\ndatabase_driver: postgres\npostgres_host: db\nsuggest_provider: none\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("PLACAR_CONFIG", path)

			convey.Convey("E o ambiente tambem define o endereco", func() {
				_ = os.Setenv("PLACAR_HTTP_ADDRESS", ":6060")

				cfg, err := config.Load()

				convey.Convey("Entao o ambiente vence o arquivo", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(cfg.HTTPAddress, convey.ShouldEqual, ":6060")
					convey.So(cfg.DatabaseDriver, convey.ShouldEqual, "postgres")
					convey.So(cfg.SuggestProvider, convey.ShouldEqual, "none")
					convey.So(cfg.DatabaseDSN(), convey.ShouldEqual, "postgres://placar:placar@db:5432/placar?sslmode=disable")
				})
			})
		})

		convey.Convey("Quando existe um arquivo .env", func() {
			dir := t.TempDir()
			path := filepath.Join(dir, "test.env")
			convey.So(os.WriteFile(path, []byte("PLACAR_ADMIN_PASSWORD=segredo\n"), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("PLACAR_ENV_FILE", path)

			cfg, err := config.Load()

			convey.Convey("Entao os valores dele sao carregados", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.AdminPassword, convey.ShouldEqual, "segredo")
			})
		})

		convey.Convey("Quando o backend do store e desconhecido", func() {
			_ = os.Setenv("PLACAR_STORE_BACKEND", "etcd")

			_, err := config.Load()

			convey.Convey("Entao a carga falha com erro de validacao", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, validation.ErrInvalid), convey.ShouldBeTrue)
			})
		})
	})
}
