package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"codegen/internal/domain/entity"
	"codegen/internal/infrastructure/formatter"
	"codegen/internal/infrastructure/llm"
)

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

type Config struct {
	LogLevel  string
	Server    HTTPServerConfig
	Model     ModelConfig
	Sampling  entity.SamplingParams
	Formatter FormatterConfig
	Cache     CacheConfig
	Jobs      JobsConfig
	Store     StoreConfig
	FileRepo  FileRepoConfig
}

type HTTPServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
}

type ModelConfig struct {
	Backend string
	Name    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type FormatterConfig struct {
	Enabled bool
	Timeout time.Duration
	// Per-language overrides of formatter.DefaultCommands. An empty list
	// disables formatting for that language.
	Commands map[string][]string
}

type CacheConfig struct {
	TTL      time.Duration
	Capacity uint64
}

type JobsConfig struct {
	PollInterval time.Duration
	Timeout      time.Duration
}

type StoreConfig struct {
	Driver     string
	SQLitePath string
	Mongo      MongoConfig
}

type MongoConfig struct {
	URI      string
	Database string
}

type FileRepoConfig struct {
	ArtifactDir string
}

// Default is the configuration used when neither a file nor the environment
// says otherwise.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: HTTPServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   5 * time.Minute,
			RequestTimeout: 2 * time.Minute,
		},
		Model: ModelConfig{
			Backend: llm.BackendHuggingFace,
			Name:    llm.DefaultModel,
			Timeout: 2 * time.Minute,
		},
		Sampling: entity.DefaultSamplingParams(),
		Formatter: FormatterConfig{
			Enabled: true,
			Timeout: formatter.DefaultTimeout,
		},
		Cache: CacheConfig{
			TTL:      10 * time.Minute,
			Capacity: 1024,
		},
		Jobs: JobsConfig{
			PollInterval: 2 * time.Second,
			Timeout:      5 * time.Minute,
		},
		Store: StoreConfig{
			Driver:     StoreSQLite,
			SQLitePath: filepath.Join("data", "codegen.db"),
			Mongo: MongoConfig{
				URI:      "mongodb://localhost:27017",
				Database: "codegen",
			},
		},
		FileRepo: FileRepoConfig{
			ArtifactDir: "./artifacts",
		},
	}
}

// Load builds the configuration from defaults, then the optional file at
// path (.toml, .hcl or .json), then the environment. An empty path falls
// back to $CODEGEN_CONFIG.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("CODEGEN_CONFIG")
	}
	if path != "" {
		fc, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		if err := fc.apply(cfg); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.LogLevel = getEnv("CODEGEN_LOG_LEVEL", cfg.LogLevel)

	cfg.Server.Host = getEnv("CODEGEN_HOST", cfg.Server.Host)
	if v := os.Getenv("CODEGEN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CODEGEN_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	cfg.Model.Backend = getEnv("CODEGEN_BACKEND", cfg.Model.Backend)
	cfg.Model.Name = getEnv("CODEGEN_MODEL", cfg.Model.Name)
	cfg.Model.BaseURL = getEnv("CODEGEN_MODEL_URL", cfg.Model.BaseURL)
	cfg.Model.APIKey = getEnv("CODEGEN_API_KEY", cfg.Model.APIKey)
	if cfg.Model.APIKey == "" {
		switch cfg.Model.Backend {
		case llm.BackendHuggingFace:
			cfg.Model.APIKey = os.Getenv("HF_TOKEN")
		case llm.BackendOpenAI:
			cfg.Model.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	if v := os.Getenv("CODEGEN_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CODEGEN_CACHE_TTL: %w", err)
		}
		cfg.Cache.TTL = d
	}

	cfg.Store.Driver = getEnv("CODEGEN_STORE", cfg.Store.Driver)
	cfg.Store.SQLitePath = getEnv("CODEGEN_SQLITE_PATH", cfg.Store.SQLitePath)
	cfg.Store.Mongo.URI = getEnv("MONGO_URI", cfg.Store.Mongo.URI)
	cfg.Store.Mongo.Database = getEnv("MONGO_DB", cfg.Store.Mongo.Database)
	cfg.FileRepo.ArtifactDir = getEnv("CODEGEN_ARTIFACT_DIR", cfg.FileRepo.ArtifactDir)
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Sampling.MaxTokens <= 0 {
		errs = append(errs, errors.New("sampling max_tokens must be positive"))
	}
	if c.Sampling.Temperature < 0 {
		errs = append(errs, errors.New("sampling temperature must not be negative"))
	}
	if c.Sampling.TopP <= 0 || c.Sampling.TopP > 1 {
		errs = append(errs, errors.New("sampling top_p must be in (0, 1]"))
	}
	switch c.Store.Driver {
	case StoreSQLite, StoreMongo:
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	for lang := range c.Formatter.Commands {
		if _, err := entity.ParseLanguage(lang); err != nil {
			errs = append(errs, fmt.Errorf("formatter commands: %w", err))
		}
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// FormatterCommands merges the configured overrides onto the defaults.
// Disabled formatting yields no commands at all.
func (c *Config) FormatterCommands() map[entity.Language][]string {
	if !c.Formatter.Enabled {
		return nil
	}
	cmds := formatter.DefaultCommands()
	for name, cmd := range c.Formatter.Commands {
		lang, err := entity.ParseLanguage(name)
		if err != nil {
			continue
		}
		cmds[lang] = cmd
	}
	return cmds
}

func (c *Config) ModelSettings() llm.Settings {
	return llm.Settings{
		Backend: c.Model.Backend,
		Model:   c.Model.Name,
		BaseURL: c.Model.BaseURL,
		APIKey:  c.Model.APIKey,
		Timeout: c.Model.Timeout,
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level: %w", err)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
