package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	GeminiAPIKey     string `env:"GEMINI_API_KEY" env-description:"Google AI Studio API key, needed by generate"`
	GeminiBaseURL    string `env:"GEMINI_BASE_URL" env-default:"https://generativelanguage.googleapis.com" env-description:"Gemini REST endpoint"`
	GeminiAPIVersion string `env:"GEMINI_API_VERSION" env-default:"v1beta" env-description:"Gemini API version path segment"`
	TextModel        string `env:"GEMINI_TEXT_MODEL" env-default:"gemini-1.5-flash" env-description:"Model used to expand short ideas into scenes"`
	ImageModel       string `env:"GEMINI_IMAGE_MODEL" env-default:"gemini-2.5-flash-image" env-description:"Model used to render photographs"`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`
	LogFormat string `env:"LOG_FORMAT" env-default:"text" env-description:"text or json"`

	PreferIPv4     bool          `env:"PREFER_IPV4" env-default:"true" env-description:"Dial the API over IPv4 only"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" env-default:"180s" env-description:"Timeout of a single HTTP exchange"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" env-default:"240s" env-description:"Timeout of one full generation"`
	MaxConcurrent  int           `env:"MAX_CONCURRENT" env-default:"4" env-description:"Parallel generations in batch mode"`

	HistoryDir   string `env:"SOURA_HISTORY_DIR" env-description:"Where generated images are archived (default: user data dir)"`
	HistoryLimit int    `env:"SOURA_HISTORY_LIMIT" env-default:"15" env-description:"Images kept in history, oldest evicted first"`
	CorpusPath   string `env:"SOURA_CORPUS_PATH" env-description:"Scene corpus JSON file (default: built-in corpus)"`
	Signature    string `env:"SOURA_SIGNATURE" env-default:"M.Hefny" env-description:"Signature woven into generated photos, empty to disable"`
}

// Load reads the configuration from the environment. Values are expected to
// already include anything loaded from a .env file.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)
	cfg.GeminiBaseURL = strings.TrimSpace(cfg.GeminiBaseURL)
	cfg.GeminiAPIVersion = strings.TrimSpace(cfg.GeminiAPIVersion)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.Signature = strings.TrimSpace(cfg.Signature)

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.HistoryLimit < 1 {
		cfg.HistoryLimit = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 240 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 180 * time.Second
	}

	if strings.TrimSpace(cfg.HistoryDir) == "" {
		dir, err := defaultHistoryDir()
		if err != nil {
			return Config{}, err
		}
		cfg.HistoryDir = dir
	}

	return cfg, nil
}

// RequireAPIKey is checked by commands that talk to Gemini.
func (c Config) RequireAPIKey() error {
	if c.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY is required")
	}
	return nil
}

// Describe lists every supported variable with its default and description.
func Describe() (string, error) {
	header := "Environment variables:"
	return cleanenv.GetDescription(&Config{}, &header)
}

func defaultHistoryDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve history dir: %w", err)
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "soura-masreya", "history"), nil
}
