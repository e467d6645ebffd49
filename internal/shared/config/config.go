package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	// Blob storage.
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string

	// Extraction service.
	ExtractorProvider string
	ExtractorEndpoint string
	ExtractorKey      string

	// Search index.
	SearchProvider  string
	SearchEndpoint  string
	SearchAdminKey  string
	SearchIndexName string
	BleveIndexPath  string

	// Completion service.
	OpenAIAPIKey  string
	OpenAIBaseURL string
	LLMModel      string

	// Credential store.
	DatabaseURL string

	// Auth.
	JWTSecret  string
	TOTPIssuer string
}

// Load reads configuration from environment variables with sensible defaults.
// Call Validate before serving traffic.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	_ = godotenv.Load(".env", "cmd/.env")

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       os.Getenv("AWS_REGION"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Prefix:        os.Getenv("S3_PREFIX"),

		ExtractorProvider: normalizeProvider(getEnv("EXTRACTOR_PROVIDER", "local"), "local"),
		ExtractorEndpoint: os.Getenv("EXTRACTOR_ENDPOINT"),
		ExtractorKey:      os.Getenv("EXTRACTOR_KEY"),

		SearchProvider:  normalizeProvider(getEnv("SEARCH_PROVIDER", "bleve"), "bleve"),
		SearchEndpoint:  os.Getenv("SEARCH_ENDPOINT"),
		SearchAdminKey:  os.Getenv("SEARCH_ADMIN_KEY"),
		SearchIndexName: getEnv("SEARCH_INDEX_NAME", "documents"),
		BleveIndexPath:  getEnv("BLEVE_INDEX_PATH", "./data/search.bleve"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		LLMModel:      getEnv("LLM_MODEL", "gpt-4o-mini"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		TOTPIssuer: getEnv("TOTP_ISSUER", "thinktank"),
	}
}

// RequiredVars returns the environment variable names this configuration
// depends on given the selected providers. Used by Validate and /debug/env.
func (c Config) RequiredVars() []string {
	vars := []string{"OPENAI_API_KEY", "LLM_MODEL"}
	if c.ObjectStoreType == "s3" {
		vars = append(vars, "AWS_REGION", "S3_BUCKET")
	}
	if c.ExtractorProvider == "azure" {
		vars = append(vars, "EXTRACTOR_ENDPOINT", "EXTRACTOR_KEY")
	}
	if c.SearchProvider == "azure" {
		vars = append(vars, "SEARCH_ENDPOINT", "SEARCH_ADMIN_KEY", "SEARCH_INDEX_NAME")
	}
	if c.IsProduction() {
		vars = append(vars, "DATABASE_URL", "JWT_SECRET")
	}
	sort.Strings(vars)
	return vars
}

// Validate reports every missing required variable at once so operators can
// fix the environment in a single pass. The process must not serve traffic
// when this returns an error.
func (c Config) Validate() error {
	var missing []string
	for _, name := range c.RequiredVars() {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw, def string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "azure":
		return "azure"
	case "bleve":
		return "bleve"
	case "memory":
		return "memory"
	case "local":
		return "local"
	default:
		return def
	}
}
