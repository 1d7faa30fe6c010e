package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	LLM        LLMConfig
	OCR        OCRConfig
	Extraction ExtractionConfig
	Scratch    ScratchConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	MaxUploadBytes int64
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type DatabaseConfig struct {
	URL            string
	MaxConns       int
	MinConns       int
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret      string
	TokenTTL       time.Duration
	GoogleClientID string
	TokenInfoURL   string
	// CredentialTTL bounds how long a credential test verdict is reused.
	CredentialTTL time.Duration
}

// LLMConfig holds the system provider credentials. A provider is enabled only
// when its key is non-empty.
type LLMConfig struct {
	GeminiKey        string
	GeminiModel      string
	GeminiBaseURL    string
	OpenAIKey        string
	OpenAIModel      string
	OpenAIBaseURL    string
	AnthropicKey     string
	AnthropicModel   string
	AnthropicBaseURL string
	Timeout          time.Duration
}

type OCRConfig struct {
	OCRSpaceKey      string
	OCRSpaceURL      string
	OCRSpaceLanguage string

	AzureKey          string
	AzureEndpoint     string
	AzurePollAttempts int
	AzurePollInterval time.Duration

	TesseractEnabled bool
	TesseractPath    string
	TesseractLang    string

	Timeout time.Duration
}

// ExtractionConfig carries the cascade's acceptance thresholds. The values are
// empirically tuned and have no deeper meaning; an output is accepted when its
// trimmed rune count is strictly greater than the threshold.
type ExtractionConfig struct {
	VisionMinChars    int
	OCRMinChars       int
	ReadMinChars      int
	LocalOCRMinChars  int
	FallbackMinChars  int
	DirectPDFMinChars int
	PageMinChars      int
	MaxPDFPages       int
	PDFDPI            int
}

type ScratchConfig struct {
	Dir    string
	MaxAge time.Duration
}

func Load() (*Config, error) {
	var errs []string
	intVar := func(key string, fallback int) int {
		v, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}
	durVar := func(key string, fallback time.Duration) time.Duration {
		v, err := getEnvDuration(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}
	boolVar := func(key string, fallback bool) bool {
		v, err := getEnvBool(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           intVar("SERVER_PORT", 8001),
			MaxUploadBytes: int64(intVar("MAX_UPLOAD_MB", 20)) << 20,
			CORSOrigins:    getEnvList("CORS_ORIGINS", []string{"*"}),
			RateLimitRPS:   float64(intVar("RATE_LIMIT_RPS", 20)),
			RateLimitBurst: intVar("RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConns:       intVar("DB_MAX_CONNS", 20),
			MinConns:       intVar("DB_MIN_CONNS", 2),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       intVar("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET_KEY", ""),
			TokenTTL:       durVar("JWT_TTL", 30*24*time.Hour),
			GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
			TokenInfoURL:   getEnv("GOOGLE_TOKENINFO_URL", "https://oauth2.googleapis.com/tokeninfo"),
			CredentialTTL:  durVar("CREDENTIAL_CACHE_TTL", 24*time.Hour),
		},
		LLM: LLMConfig{
			GeminiKey:        getEnv("GEMINI_API_KEY", ""),
			GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o"),
			OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
			AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
			AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", ""),
			Timeout:          durVar("LLM_TIMEOUT", 2*time.Minute),
		},
		OCR: OCRConfig{
			OCRSpaceKey:       getEnv("OCR_SPACE_API_KEY", ""),
			OCRSpaceURL:       getEnv("OCR_SPACE_URL", "https://api.ocr.space/parse/image"),
			OCRSpaceLanguage:  getEnv("OCR_SPACE_LANGUAGE", "auto"),
			AzureKey:          getEnv("AZURE_COMPUTER_VISION_KEY", ""),
			AzureEndpoint:     strings.TrimSuffix(getEnv("AZURE_COMPUTER_VISION_ENDPOINT", ""), "/"),
			AzurePollAttempts: intVar("AZURE_READ_POLL_ATTEMPTS", 10),
			AzurePollInterval: durVar("AZURE_READ_POLL_INTERVAL", time.Second),
			TesseractEnabled:  boolVar("OCR_TESSERACT_ENABLED", false),
			TesseractPath:     getEnv("OCR_TESSERACT_PATH", "tesseract"),
			TesseractLang:     getEnv("OCR_TESSERACT_LANG", "deu+eng+rus"),
			Timeout:           durVar("OCR_TIMEOUT", 30*time.Second),
		},
		Extraction: ExtractionConfig{
			VisionMinChars:    intVar("EXTRACT_VISION_MIN_CHARS", 20),
			OCRMinChars:       intVar("EXTRACT_OCR_MIN_CHARS", 10),
			ReadMinChars:      intVar("EXTRACT_READ_MIN_CHARS", 0),
			LocalOCRMinChars:  intVar("EXTRACT_LOCAL_OCR_MIN_CHARS", 10),
			FallbackMinChars:  intVar("EXTRACT_FALLBACK_MIN_CHARS", 5),
			DirectPDFMinChars: intVar("EXTRACT_DIRECT_PDF_MIN_CHARS", 50),
			PageMinChars:      intVar("EXTRACT_PAGE_MIN_CHARS", 10),
			MaxPDFPages:       intVar("EXTRACT_MAX_PDF_PAGES", 5),
			PDFDPI:            intVar("EXTRACT_PDF_DPI", 300),
		},
		Scratch: ScratchConfig{
			Dir:    getEnv("SCRATCH_DIR", filepath.Join(os.TempDir(), "docintake")),
			MaxAge: durVar("SCRATCH_MAX_AGE", time.Hour),
		},
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("load config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// DefaultExtraction returns the stock cascade thresholds.
func DefaultExtraction() ExtractionConfig {
	return ExtractionConfig{
		VisionMinChars:    20,
		OCRMinChars:       10,
		ReadMinChars:      0,
		LocalOCRMinChars:  10,
		FallbackMinChars:  5,
		DirectPDFMinChars: 50,
		PageMinChars:      10,
		MaxPDFPages:       5,
		PDFDPI:            300,
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
