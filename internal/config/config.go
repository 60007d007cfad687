package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// used when SIGN_KEY is unset in development
const devSignKey = "blogpost-development-key"

var ErrMissingSignKey = errors.New("SIGN_KEY must be set outside development")

type Config struct {
	Env     string `mapstructure:"GO_ENV"`
	Addr    string `mapstructure:"SERVER_ADDR"`
	Port    string `mapstructure:"SERVER_PORT"`
	SignKey string `mapstructure:"SIGN_KEY"`

	DBDriver string `mapstructure:"DB_DRIVER"`
	DBDSN    string `mapstructure:"DB_DSN"`

	PostsPerPage      int           `mapstructure:"POSTS_PER_PAGE"`
	LoginRateLimitRPM int           `mapstructure:"LOGIN_RATE_LIMIT_RPM"`
	SessionTTL        time.Duration `mapstructure:"SESSION_TTL"`
	RememberTTL       time.Duration `mapstructure:"REMEMBER_TTL"`

	tokenAuth *jwtauth.JWTAuth
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found")
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("GO_ENV", "production")
	v.SetDefault("SERVER_ADDR", "")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SIGN_KEY", "")
	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DB_DSN", "./db.sqlite")
	v.SetDefault("POSTS_PER_PAGE", 5)
	v.SetDefault("LOGIN_RATE_LIMIT_RPM", 30)
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("REMEMBER_TTL", "720h")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SignKey == "" {
		if !c.IsDev() {
			return ErrMissingSignKey
		}
		c.SignKey = devSignKey
	}
	switch c.DBDriver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.PostsPerPage < 1 {
		return fmt.Errorf("POSTS_PER_PAGE must be positive, got %d", c.PostsPerPage)
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.Addr, c.Port)
}

// TokenAuth verifies the session cookie issued at login.
func (c *Config) TokenAuth() *jwtauth.JWTAuth {
	if c.tokenAuth == nil {
		c.tokenAuth = jwtauth.New("HS256", []byte(c.SignKey), nil)
	}
	return c.tokenAuth
}
