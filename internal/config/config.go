// Package config reads the gallery's settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup.
type Config struct {
	// Root is the site directory holding videos.json, auth.json, videos/
	// and thumbnails/.
	Root string `env:"GALLERY_ROOT" validate:"required"`
	Port string `env:"PORT" envDefault:"8080" validate:"required,numeric"`

	SiteTitle   string `env:"SITE_TITLE" envDefault:"Videos"`
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"true"`
	CatalogName string `env:"CATALOG_NAME" envDefault:"videos.json"`
	AuthName    string `env:"AUTH_NAME" envDefault:"auth.json"`
	// CatalogBaseURL fetches both documents over HTTP instead of from Root.
	CatalogBaseURL string `env:"CATALOG_BASE_URL" validate:"omitempty,url"`

	StoreDriver string        `env:"STORE_DRIVER" envDefault:"memory" validate:"oneof=memory file sqlite"`
	StatePath   string        `env:"STATE_PATH" envDefault:"/var/lib/vidgallery" validate:"required_unless=StoreDriver memory"`
	SessionIdle time.Duration `env:"SESSION_IDLE" envDefault:"12h"`
	CookieName  string        `env:"SESSION_COOKIE" envDefault:"micro_lms_authed" validate:"required"`

	Log LogConfig
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format     string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	Output     string `env:"LOG_OUTPUT" envDefault:"stdout" validate:"oneof=stdout file both"`
	File       string `env:"LOG_FILE" envDefault:"./logs/gallery.log"`
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100" validate:"gte=1"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"7" validate:"gte=0"`
	MaxAge     int    `env:"LOG_MAX_AGE" envDefault:"7" validate:"gte=0"`
	Compress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

var validate = validator.New()

// Load applies the given .env files (missing files are skipped) and then
// parses the environment. Variables already set win over the files.
func Load(files ...string) (*Config, error) {
	for _, f := range files {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks field constraints. Call it after flags are applied.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string { return ":" + c.Port }
