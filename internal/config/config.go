package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted for DATA_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config holds runtime configuration sourced from env vars. It is built
// once at startup and passed to constructors; nothing reads the
// environment after Load returns.
type Config struct {
	Port        string
	DataBackend string
	DatabaseURL string
	SQLitePath  string

	SecretKey    string
	JWTAlgorithm string
	JWTIssuer    string
	JWTTTL       time.Duration
	BcryptCost   int

	CORSOrigins    []string
	AttachmentsDir string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	SMTPHost           string
	SMTPPort           string
	SMTPUser           string
	SMTPPassword       string
	NotifyEmail        string
	AlertRiskThreshold float64
}

// Load reads configuration from the environment and performs minimal
// validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		DataBackend: fallback(os.Getenv("DATA_BACKEND"), BackendPostgres),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:  fallback(os.Getenv("SQLITE_DB_PATH"), "./data/finanbot.db"),

		SecretKey:    strings.TrimSpace(os.Getenv("SECRET_KEY")),
		JWTAlgorithm: fallback(os.Getenv("JWT_ALGORITHM"), "HS256"),
		JWTIssuer:    fallback(os.Getenv("JWT_ISSUER"), "finanbot"),
		BcryptCost:   intFallback(os.Getenv("BCRYPT_COST"), 12),

		CORSOrigins:    parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		AttachmentsDir: fallback(os.Getenv("ATTACHMENTS_DIR"), "./data/attachments"),

		AMQPURL:      strings.TrimSpace(os.Getenv("AMQP_URL")),
		AMQPExchange: fallback(os.Getenv("AMQP_EXCHANGE"), "finanbot"),
		AMQPQueue:    fallback(os.Getenv("AMQP_QUEUE"), "transaction_events"),

		SMTPHost:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
		SMTPPort:     fallback(os.Getenv("SMTP_PORT"), "587"),
		SMTPUser:     strings.TrimSpace(os.Getenv("SMTP_USER")),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		NotifyEmail:  strings.TrimSpace(os.Getenv("NOTIFY_EMAIL")),
	}

	minutes := intFallback(os.Getenv("ACCESS_TOKEN_EXPIRES_MINUTES"), 1440)
	if minutes < 15 || minutes > 1440 {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_EXPIRES_MINUTES must be between 15 and 1440, got %d", minutes)
	}
	cfg.JWTTTL = time.Duration(minutes) * time.Minute

	threshold := fallback(os.Getenv("ALERT_RISK_THRESHOLD"), "0.7")
	parsed, err := strconv.ParseFloat(threshold, 64)
	if err != nil || parsed < 0 || parsed > 1 {
		return Config{}, fmt.Errorf("ALERT_RISK_THRESHOLD must be a number between 0 and 1, got %q", threshold)
	}
	cfg.AlertRiskThreshold = parsed

	if len(cfg.SecretKey) < 16 {
		return Config{}, errors.New("SECRET_KEY must be at least 16 characters")
	}
	switch cfg.DataBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for the postgres backend")
		}
	case BackendSQLite:
	default:
		return Config{}, fmt.Errorf("unknown DATA_BACKEND %q", cfg.DataBackend)
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// EventsEnabled reports whether an AMQP broker is configured.
func (c Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

// MailEnabled reports whether outbound notification email is configured.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.NotifyEmail != ""
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func intFallback(value string, def int) int {
	if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return parsed
	}
	return def
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
