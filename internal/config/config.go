// Package config loads server settings from the environment (optionally a
// .env file) with CLI flag overrides for the most common knobs.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/robalobadob/wordle/apps/unlimited-server/internal/game"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Device  DeviceConfig
	Words   WordsConfig
	Game    GameConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Port         string
	ClientOrigin string
	DatabasePath string // empty keeps records in memory
	Env          string // NODE_ENV; "production" enables secure cookies
}

// DeviceConfig holds device token settings.
type DeviceConfig struct {
	Secret     string
	CookieName string
	Expires    time.Duration
}

// WordsConfig selects the word lists and the daily calendar.
type WordsConfig struct {
	AnswersFile string
	AllowedFile string
	Epoch       time.Time
	Location    *time.Location
}

// GameConfig holds session rules.
type GameConfig struct {
	Rows    int
	MinRows int
	MaxRows int
	Scoring game.Scoring
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string
	Format string // "json" or "console"
}

// Load reads .env (if present), the environment and then args.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(args)
}

// FromEnv builds a Config from the current environment and args.
func FromEnv(args []string) (*Config, error) {
	loc, err := time.LoadLocation(getEnv("DAILY_TZ", "Local"))
	if err != nil {
		return nil, fmt.Errorf("DAILY_TZ: %w", err)
	}
	epoch, err := time.ParseInLocation("2006-01-02", getEnv("DAILY_EPOCH", "2022-03-27"), loc)
	if err != nil {
		return nil, fmt.Errorf("DAILY_EPOCH: %w", err)
	}
	scoring, err := game.ParseScoring(getEnv("SCORING", string(game.ScoringSimple)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "5175"),
			ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
			DatabasePath: os.Getenv("DATABASE_PATH"),
			Env:          getEnv("NODE_ENV", "development"),
		},
		Device: DeviceConfig{
			Secret:     getEnv("JWT_SECRET", "dev_secret_change_me"),
			CookieName: getEnv("COOKIE_NAME", "wordle_device"),
			Expires:    time.Duration(getEnvInt("DEVICE_EXPIRES_DAYS", 365)) * 24 * time.Hour,
		},
		Words: WordsConfig{
			AnswersFile: os.Getenv("WORDS_ANSWERS_FILE"),
			AllowedFile: os.Getenv("WORDS_ALLOWED_FILE"),
			Epoch:       epoch,
			Location:    loc,
		},
		Game: GameConfig{
			Rows:    getEnvInt("ROWS_DEFAULT", game.DefaultRows),
			MinRows: getEnvInt("ROWS_MIN", game.MinRows),
			MaxRows: getEnvInt("ROWS_MAX", game.MaxRows),
			Scoring: scoring,
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	fs := flag.NewFlagSet("unlimited-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "HTTP port")
	fs.StringVar(&cfg.Server.DatabasePath, "db", cfg.Server.DatabasePath, "SQLite path (empty keeps records in memory)")
	fs.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "zerolog level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	g := c.Game
	if g.MinRows < 1 {
		return errors.New("ROWS_MIN must be at least 1")
	}
	if g.MinRows > g.MaxRows {
		return fmt.Errorf("ROWS_MIN %d exceeds ROWS_MAX %d", g.MinRows, g.MaxRows)
	}
	if g.Rows < g.MinRows || g.Rows > g.MaxRows {
		return fmt.Errorf("ROWS_DEFAULT %d outside [%d, %d]", g.Rows, g.MinRows, g.MaxRows)
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Server.Port)
	}
	return nil
}

// IsProduction reports whether secure cookies should be used.
func (c *Config) IsProduction() bool { return c.Server.Env == "production" }

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt returns k as an integer, or def if unset or malformed.
func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
