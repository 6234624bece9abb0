package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/randomtoy/teamsync/internal/logging"
)

// MaxDrawSpins caps DRAW_SPINS and the CLI --spins flag.
const MaxDrawSpins = 1000

type Config struct {
	HTTPAddr         string
	LogLevel         slog.Level
	LogFormat        string
	DrawSpins        int
	DrawInterval     time.Duration
	DefaultGroupSize int
	SessionTTL       time.Duration
	JanitorInterval  time.Duration
	MaxUploadBytes   int64
	ShutdownTimeout  time.Duration
}

// Load reads configuration from the environment. Values in a .env file in
// the working directory are applied first without overriding variables
// that are already set.
func Load() (Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv files. Missing files are skipped.
func LoadFiles(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c := Config{
		HTTPAddr:  envOr("HTTP_ADDR", ":8080"),
		LogFormat: envOr("LOG_FORMAT", logging.FormatJSON),
	}

	var err error
	if c.LogLevel, err = logging.ParseLevel(envOr("LOG_LEVEL", "info")); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.LogFormat != logging.FormatJSON && c.LogFormat != logging.FormatText {
		return Config{}, fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	if c.DrawSpins, err = intEnv("DRAW_SPINS", 21, 0); err != nil {
		return Config{}, err
	}
	if c.DrawSpins > MaxDrawSpins {
		return Config{}, fmt.Errorf("invalid DRAW_SPINS %d: must be at most %d", c.DrawSpins, MaxDrawSpins)
	}
	if c.DefaultGroupSize, err = intEnv("DEFAULT_GROUP_SIZE", 4, 1); err != nil {
		return Config{}, err
	}
	if c.DrawInterval, err = durationEnv("DRAW_INTERVAL", 100*time.Millisecond); err != nil {
		return Config{}, err
	}
	if c.SessionTTL, err = durationEnv("SESSION_TTL", 12*time.Hour); err != nil {
		return Config{}, err
	}
	if c.JanitorInterval, err = durationEnv("JANITOR_INTERVAL", time.Minute); err != nil {
		return Config{}, err
	}
	if c.ShutdownTimeout, err = durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	maxUpload, err := intEnv("MAX_UPLOAD_BYTES", 1<<20, 1)
	if err != nil {
		return Config{}, err
	}
	c.MaxUploadBytes = int64(maxUpload)

	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback, minimum int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if n < minimum {
		return 0, fmt.Errorf("invalid %s %q: must be at least %d", key, v, minimum)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, v)
	}
	return d, nil
}
