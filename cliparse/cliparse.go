package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	DatabaseURL string
	Env         string
	MigrateOnly bool

	// Backend-as-a-service
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	SupabaseJWTSecret  string

	// Payments
	PayPalClientID     string
	PayPalClientSecret string
	PayPalWebhookID    string

	// Live video
	MuxTokenID     string
	MuxTokenSecret string
	MuxPlaybackID  string

	AdminEmails []string

	// HTTP edge
	TrustProxy  bool
	CORSOrigins []string
	IPHashSalt  string

	TriviaSecret       string
	TriviaAnswerWindow time.Duration
	ChatRatePerSec     float64

	ReconcileSchedule  string
	StreamPollSchedule string
}

// IsProduction reports whether the live payment API should be used
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// ParseFlags loads .env (if present), then parses flags with env fallbacks
func ParseFlags(args []string) (Config, error) {
	// Missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	var cfg Config
	var adminEmails string

	fs := flag.NewFlagSet("riot-network", flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.Env, "env", "", "Environment (development or production)")
	fs.BoolVar(&cfg.MigrateOnly, "migrate-only", false, "Apply migrations and exit")
	fs.StringVar(&cfg.SupabaseURL, "supabase-url", "", "Supabase project URL")
	fs.StringVar(&adminEmails, "admin-emails", "", "Comma separated admin emails")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", false, "Take client IPs from X-Real-IP / X-Forwarded-For")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.Env == "" {
		cfg.Env = envOr("RIOT_ENV", "development")
	}
	if !cfg.MigrateOnly {
		cfg.MigrateOnly = os.Getenv("MIGRATE_ONLY") == "true"
	}

	if cfg.SupabaseURL == "" {
		cfg.SupabaseURL = os.Getenv("SUPABASE_URL")
	}
	cfg.SupabaseAnonKey = os.Getenv("SUPABASE_ANON_KEY")
	cfg.SupabaseServiceKey = os.Getenv("SUPABASE_SERVICE_KEY")
	cfg.SupabaseJWTSecret = os.Getenv("SUPABASE_JWT_SECRET")

	cfg.PayPalClientID = os.Getenv("PAYPAL_CLIENT_ID")
	cfg.PayPalClientSecret = os.Getenv("PAYPAL_CLIENT_SECRET")
	cfg.PayPalWebhookID = os.Getenv("PAYPAL_WEBHOOK_ID")

	cfg.MuxTokenID = os.Getenv("MUX_TOKEN_ID")
	cfg.MuxTokenSecret = os.Getenv("MUX_TOKEN_SECRET")
	cfg.MuxPlaybackID = os.Getenv("MUX_PLAYBACK_ID")

	if adminEmails == "" {
		adminEmails = os.Getenv("ADMIN_EMAILS")
	}
	cfg.AdminEmails = splitList(adminEmails)

	if !cfg.TrustProxy {
		cfg.TrustProxy = os.Getenv("TRUST_PROXY") == "true"
	}
	cfg.CORSOrigins = splitList(envOr("CORS_ORIGINS", "http://localhost:3000"))
	cfg.IPHashSalt = os.Getenv("IP_HASH_SALT")

	cfg.TriviaSecret = os.Getenv("TRIVIA_SECRET")

	window := envOr("TRIVIA_ANSWER_WINDOW", "30s")
	d, err := time.ParseDuration(window)
	if err != nil || d <= 0 {
		return Config{}, fmt.Errorf("invalid TRIVIA_ANSWER_WINDOW %q", window)
	}
	cfg.TriviaAnswerWindow = d

	rateStr := envOr("CHAT_RATE_PER_SEC", "1")
	cfg.ChatRatePerSec, err = strconv.ParseFloat(rateStr, 64)
	if err != nil || cfg.ChatRatePerSec <= 0 {
		return Config{}, fmt.Errorf("invalid CHAT_RATE_PER_SEC %q", rateStr)
	}

	cfg.ReconcileSchedule = envOr("RECONCILE_SCHEDULE", "@every 5m")
	cfg.StreamPollSchedule = envOr("STREAM_POLL_SCHEDULE", "@every 1m")

	// Migrations only need the database
	if cfg.MigrateOnly {
		return cfg, nil
	}

	// Secrets - MUST be provided
	required := []struct {
		name  string
		value string
	}{
		{"SUPABASE_URL", cfg.SupabaseURL},
		{"SUPABASE_ANON_KEY", cfg.SupabaseAnonKey},
		{"PAYPAL_CLIENT_ID", cfg.PayPalClientID},
		{"PAYPAL_CLIENT_SECRET", cfg.PayPalClientSecret},
		{"MUX_TOKEN_ID", cfg.MuxTokenID},
		{"MUX_TOKEN_SECRET", cfg.MuxTokenSecret},
		{"TRIVIA_SECRET", cfg.TriviaSecret},
		{"IP_HASH_SALT", cfg.IPHashSalt},
	}
	for _, r := range required {
		if r.value == "" {
			return Config{}, errors.New(r.name + " required")
		}
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
