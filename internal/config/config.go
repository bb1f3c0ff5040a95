package config

import (
	"os"
	"strings"
)

// Config holds everything resolved once at startup.
type Config struct {
	Port        string
	DatabaseURL string // non-empty selects the relational backend
	ReviewsFile string // document backend path, used when DatabaseURL is empty
	CORSOrigin  string
	AdminEmails []string
}

// Load reads configuration from the environment. Callers are expected to
// have run godotenv.Load first so a local .env file is honoured.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ReviewsFile: getEnv("REVIEWS_FILE", "reviews.json"),
		CORSOrigin:  getEnv("CORS_ORIGIN", "*"),
		AdminEmails: splitList(os.Getenv("ADMIN_EMAILS")),
	}
}

// Relational reports whether relational credentials were configured. The
// store choice is made exactly once, here; nothing downstream branches on
// backend type.
func (c *Config) Relational() bool {
	return c.DatabaseURL != ""
}

// IsAdmin reports whether the given email belongs to a configured admin.
func (c *Config) IsAdmin(email string) bool {
	if email == "" {
		return false
	}
	for _, a := range c.AdminEmails {
		if strings.EqualFold(a, email) {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
