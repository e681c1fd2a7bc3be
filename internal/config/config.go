package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	// BanksDir is scanned for bank_*.json files at startup.
	BanksDir string

	PassingGrade float64

	// SessionTimeout is the inactivity window after which the sweeper flags
	// an in_progress session as abandoned.
	SessionTimeout time.Duration
	SweepInterval  time.Duration

	AdminUser     string
	AdminPassHash string // bcrypt
	HMACSecret    string

	CORSOrigins []string
}

func FromEnv() Config {
	return Config{
		HTTPAddr:         envOr("HTTP_ADDR", ":8080"),
		DBDriver:         envOr("DB_DRIVER", "sqlite"),
		DBDSN:            envOr("DB_DSN", ""),
		BanksDir:         envOr("BANKS_DIR", "./banks"),
		PassingGrade:     envFloat("PASSING_GRADE", 70),
		SessionTimeout:   envDuration("SESSION_TIMEOUT", 2*time.Hour),
		SweepInterval:    envDuration("SWEEP_INTERVAL", 10*time.Minute),
		AdminUser:        envOr("ADMIN_USER", "admin"),
		AdminPassHash:    envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		HMACSecret:       envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		CORSOrigins:      csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
	}
}
func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envFloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
