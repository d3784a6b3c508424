// Package config loads application settings from a .env file and environment
// variables. Environment variables always take precedence over .env values.
package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	// PostgreSQL connection string. Empty disables persistence: the
	// ingest run still works, results just stay in memory.
	DatabaseURL string

	// Double-dummy solver endpoint. Empty disables the oracle.
	OracleURL     string
	OracleTimeout time.Duration

	// Reconciliation
	Workers         int
	DedupeThreshold float64
	// Table identifiers counted as "table 1" for the swing sign
	// convention, comma separated. Everything else mapped in a match is
	// table 2.
	OpenTables   []string
	ClosedTables []string

	// Server
	Debug bool
	Port  string
}

// Load reads configuration from a .env file (if present) and then from
// environment variables. Environment variables always win.
func Load() *Config {
	v := newViper()

	// Defaults
	v.SetDefault("ORACLE_TIMEOUT", "10s")
	v.SetDefault("WORKERS", 4)
	v.SetDefault("DEDUPE_THRESHOLD", 0.88)
	v.SetDefault("OPEN_TABLES", "open,1,o")
	v.SetDefault("CLOSED_TABLES", "closed,2,c")
	v.SetDefault("PORT", ":8080")
	v.SetDefault("DEBUG", false)

	cfg := &Config{
		DatabaseURL:     v.GetString("DATABASE_URL"),
		OracleURL:       v.GetString("ORACLE_URL"),
		OracleTimeout:   v.GetDuration("ORACLE_TIMEOUT"),
		Workers:         v.GetInt("WORKERS"),
		DedupeThreshold: v.GetFloat64("DEDUPE_THRESHOLD"),
		OpenTables:      splitTrimmed(v.GetString("OPEN_TABLES")),
		ClosedTables:    splitTrimmed(v.GetString("CLOSED_TABLES")),
		Debug:           v.GetBool("DEBUG"),
		Port:            v.GetString("PORT"),
	}
	return cfg
}

// TableMapping builds the table-1/table-2 assignment from the configured
// identifier lists. Unlisted tables come back as 0 (unknown).
func (c *Config) TableMapping() func(table string) int {
	open := toSet(c.OpenTables)
	closed := toSet(c.ClosedTables)
	return func(table string) int {
		t := strings.ToLower(strings.TrimSpace(table))
		switch {
		case open[t]:
			return 1
		case closed[t]:
			return 2
		}
		return 0
	}
}

func toSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[strings.ToLower(v)] = true
	}
	return set
}

func newViper() *viper.Viper {
	// Silently load .env; fine if the file doesn't exist.
	if err := godotenv.Load(); err != nil {
		log.Println("config: no .env file found, using environment variables only")
	}

	v := viper.New()
	v.AutomaticEnv()
	return v
}

func splitTrimmed(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
