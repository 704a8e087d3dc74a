package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full runtime configuration, sourced from the environment
// with an optional .env file.
type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	Storage            string   `mapstructure:"STORAGE"`
	DataDir            string   `mapstructure:"DATA_DIR"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	AuthSecret         string   `mapstructure:"AUTH_SECRET"`
	SessionTTLMinutes  int      `mapstructure:"SESSION_TTL_MINUTES"`
	MasterFacility     string   `mapstructure:"MASTER_FACILITY"`
	FacilityPasswords  string   `mapstructure:"FACILITY_PASSWORDS"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	ScoreJumpThreshold int      `mapstructure:"SCORE_JUMP_THRESHOLD"`
}

// Load reads configuration from .env and the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORAGE", "csv")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("AUTH_SECRET", "")
	v.SetDefault("SESSION_TTL_MINUTES", 720)
	v.SetDefault("MASTER_FACILITY", "master")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SCORE_JUMP_THRESHOLD", 20)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("STORAGE")
	v.BindEnv("DATA_DIR")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("SESSION_TTL_MINUTES")
	v.BindEnv("MASTER_FACILITY")
	v.BindEnv("FACILITY_PASSWORDS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("SCORE_JUMP_THRESHOLD")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

// IsDev reports whether the server runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction reports whether the server is configured for production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Credentials parses FACILITY_PASSWORDS ("facility:password" pairs
// joined by commas) into a map. Malformed pairs are skipped.
func (c *Config) Credentials() map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(c.FacilityPasswords, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		out[parts[0]] = parts[1]
	}
	return out
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch c.Storage {
	case "csv", "postgres":
	default:
		return fmt.Errorf("STORAGE must be \"csv\" or \"postgres\", got %q", c.Storage)
	}
	if c.Storage == "postgres" && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when STORAGE is \"postgres\"")
	}
	if c.Storage == "csv" && c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required when STORAGE is \"csv\"")
	}
	if c.IsProduction() {
		if c.AuthSecret == "" {
			return fmt.Errorf("AUTH_SECRET is required in production")
		}
		if len(c.AuthSecret) < 32 {
			return fmt.Errorf("AUTH_SECRET must be at least 32 characters, got %d", len(c.AuthSecret))
		}
		if len(c.Credentials()) == 0 {
			return fmt.Errorf("FACILITY_PASSWORDS is required in production")
		}
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive, got %d", c.SessionTTLMinutes)
	}
	if c.ScoreJumpThreshold <= 0 {
		return fmt.Errorf("SCORE_JUMP_THRESHOLD must be positive, got %d", c.ScoreJumpThreshold)
	}
	return nil
}
