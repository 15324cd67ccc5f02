package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/marcelojr/placar-show/internal/platform/validation"
)

const (
	envPrefix  = "PLACAR_"
	envFileVar = "PLACAR_ENV_FILE"
	configVar  = "PLACAR_CONFIG"
)

// Load monta a Config em camadas (da menor para a maior precedencia):
//  1. Default()
//  2. arquivo .env (PLACAR_ENV_FILE, padrao ".env"), se existir
//  3. arquivo YAML apontado por PLACAR_CONFIG
//  4. variaveis PLACAR_* (PLACAR_REDIS_ADDR -> redis_addr)
func Load() (Config, error) {
	envFile := os.Getenv(envFileVar)
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: ler %s: %w", envFile, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(configVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: ler %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("config: ler ambiente: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config: decodificar: %w", err)
	}

	if err := validation.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.StoreBackend == "redis" && cfg.RedisAddr == "" {
		return Config{}, fmt.Errorf("config: %w: redis_addr obrigatorio com store_backend=redis", validation.ErrInvalid)
	}

	return cfg, nil
}
