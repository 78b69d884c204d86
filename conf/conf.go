package conf

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HttpAddr string
	LogLevel slog.Level
	JwtKey   []byte

	// PublicBaseURL prefixes the public form links and signup redirects.
	PublicBaseURL string

	SupabaseURL            string
	SupabaseServiceRoleKey string

	EvidenceS3Region string
	EvidenceS3Bucket string
	// EvidenceAllowReopen lets a student upload over a decided submission,
	// which puts it back to pending review.
	EvidenceAllowReopen bool

	CorsAllowedOrigins []string
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

// LoadFromEnv reads .env when present and then the process environment.
func LoadFromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	cfg := Config{
		Env:                    getEnvDefault("ENV", "dev"),
		HttpAddr:               getEnvDefault("HTTP_ADDR", ":8080"),
		LogLevel:               parseLevel(os.Getenv("LOG_LEVEL")),
		JwtKey:                 []byte(os.Getenv("JWT_KEY")),
		PublicBaseURL:          strings.TrimRight(getEnvDefault("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		SupabaseURL:            os.Getenv("SUPABASE_URL"),
		SupabaseServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		EvidenceS3Region:       getEnvDefault("EVIDENCE_S3_REGION", "eu-central-1"),
		EvidenceS3Bucket:       os.Getenv("EVIDENCE_S3_BUCKET"),
		EvidenceAllowReopen:    getEnvBool("EVIDENCE_ALLOW_REOPEN", true),
		CorsAllowedOrigins:     splitList(getEnvDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if len(cfg.JwtKey) == 0 {
		return Config{}, errors.New("JWT_KEY is not set")
	}
	if cfg.EvidenceS3Bucket == "" {
		return Config{}, errors.New("EVIDENCE_S3_BUCKET is not set")
	}
	return cfg, nil
}

func getEnvDefault(key string, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
