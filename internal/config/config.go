// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath      string
	Employee    string
	Locale      string
	BreakPolicy string
	MongoURI    string
	MongoDB     string
	LogFile     string
	ExportDir   string
}

// UsesMongo reports whether attendance state is kept in MongoDB instead of
// the local database.
func (c *Config) UsesMongo() bool { return c.MongoURI != "" }

// Load reads the given .env files (".env" when none are named) and then the
// environment. A missing file is not an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("config: load %s: %v", f, err)
		}
	}

	cfg := &Config{
		DBPath:      getEnv("SHIFTR_DB", ""),
		Employee:    strings.TrimSpace(getEnv("SHIFTR_EMPLOYEE", "")),
		Locale:      strings.ToLower(getEnv("SHIFTR_LOCALE", "")),
		BreakPolicy: strings.ToLower(getEnv("SHIFTR_BREAK_POLICY", "")),
		MongoURI:    getEnv("SHIFTR_MONGO_URI", ""),
		MongoDB:     getEnv("SHIFTR_MONGO_DB", "shiftr"),
		LogFile:     getEnv("SHIFTR_LOG_FILE", ""),
		ExportDir:   getEnv("SHIFTR_EXPORT_DIR", ""),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Locale {
	case "", "en", "vi":
	default:
		return fmt.Errorf("SHIFTR_LOCALE: unsupported locale %q", c.Locale)
	}
	switch c.BreakPolicy {
	case "", "checkout", "pause":
	default:
		return fmt.Errorf("SHIFTR_BREAK_POLICY: must be checkout or pause, got %q", c.BreakPolicy)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
