// Package config loads service configuration from YAML, defaults and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/resume-builder/internal/logging"
)

// Storage backends
const (
	StorageFile  = "file"
	StorageMinIO = "minio"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Events    EventsConfig    `yaml:"events"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Retention RetentionConfig `yaml:"retention"`
	Logging   logging.Config  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port              int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	AllowedOrigins    []string      `yaml:"allowed_origins"`
	RequestsPerMinute int           `yaml:"requests_per_minute" validate:"min=0"`
	Burst             int           `yaml:"burst" validate:"min=0"`
}

// DatabaseConfig selects the persistence backend. A Postgres URL wins over
// the SQLite path.
type DatabaseConfig struct {
	URL        string `yaml:"url"`
	SQLitePath string `yaml:"sqlite_path"`
}

// LLMConfig configures the completion service.
type LLMConfig struct {
	APIKey      string        `yaml:"api_key"`
	Temperature float32       `yaml:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `yaml:"timeout"`
	Model       string        `yaml:"model"`
}

// AuthConfig configures bearer tokens.
type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	ExpirationHours int    `yaml:"expiration_hours" validate:"min=1"`
}

// RedisConfig enables the cross-instance thread lock when URL is set.
type RedisConfig struct {
	URL     string        `yaml:"url"`
	LockTTL time.Duration `yaml:"lock_ttl"`
}

// StorageConfig selects where compiled PDFs go.
type StorageConfig struct {
	Backend string      `yaml:"backend" validate:"oneof=file minio"`
	Dir     string      `yaml:"dir"`
	MinIO   MinIOConfig `yaml:"minio"`
}

// MinIOConfig configures the object store backend.
type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Location        string `yaml:"location"`
	UseSSL          bool   `yaml:"use_ssl"`
}

// EventsConfig enables AMQP events when URL is set.
type EventsConfig struct {
	AMQPURL  string `yaml:"amqp_url"`
	Exchange string `yaml:"exchange"`
}

// WorkflowConfig holds the thresholds of the generation pipeline.
type WorkflowConfig struct {
	MinResumeLength     int           `yaml:"min_resume_length" validate:"min=1"`
	MinJobLength        int           `yaml:"min_job_length" validate:"min=1"`
	MinKeywords         int           `yaml:"min_keywords" validate:"min=0"`
	MaxFallbackKeywords int           `yaml:"max_fallback_keywords" validate:"min=0"`
	MaxExperiences      int           `yaml:"max_experiences" validate:"min=1"`
	MaxProjects         int           `yaml:"max_projects" validate:"min=0"`
	MinRelevance        float64       `yaml:"min_relevance" validate:"min=0,max=100"`
	TemplatePath        string        `yaml:"template_path"`
	CompilePDF          bool          `yaml:"compile_pdf"`
	CompileTimeout      time.Duration `yaml:"compile_timeout"`
}

// RetentionConfig bounds stored conversation data.
type RetentionConfig struct {
	MaxHistory    int           `yaml:"max_history" validate:"min=0"`
	ThreadTTL     time.Duration `yaml:"thread_ttl"`
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      3 * time.Minute,
			AllowedOrigins:    []string{"*"},
			RequestsPerMinute: 30,
			Burst:             10,
		},
		LLM: LLMConfig{
			Temperature: 0.1,
			Timeout:     60 * time.Second,
		},
		Auth: AuthConfig{
			ExpirationHours: 24,
		},
		Redis: RedisConfig{
			LockTTL: 5 * time.Minute,
		},
		Storage: StorageConfig{
			Backend: StorageFile,
			Dir:     "data/documents",
			MinIO: MinIOConfig{
				Bucket: "resumes",
			},
		},
		Workflow: WorkflowConfig{
			MinResumeLength:     100,
			MinJobLength:        100,
			MinKeywords:         5,
			MaxFallbackKeywords: 15,
			MaxExperiences:      5,
			MaxProjects:         4,
			MinRelevance:        0,
			CompilePDF:          true,
			CompileTimeout:      30 * time.Second,
		},
		Retention: RetentionConfig{
			MaxHistory:    50,
			ThreadTTL:     30 * 24 * time.Hour,
			PruneInterval: time.Hour,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: logging.FormatJSON,
		},
	}
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

// applyEnv overrides secrets and endpoints from the environment.
func (c *Config) applyEnv(lookup lookupFunc) error {
	strs := map[string]*string{
		"DATABASE_URL":            &c.Database.URL,
		"SQLITE_PATH":             &c.Database.SQLitePath,
		"GEMINI_API_KEY":          &c.LLM.APIKey,
		"GEMINI_MODEL":            &c.LLM.Model,
		"JWT_SECRET":              &c.Auth.JWTSecret,
		"REDIS_URL":               &c.Redis.URL,
		"AMQP_URL":                &c.Events.AMQPURL,
		"STORAGE_BACKEND":         &c.Storage.Backend,
		"STORAGE_DIR":             &c.Storage.Dir,
		"MINIO_ENDPOINT":          &c.Storage.MinIO.Endpoint,
		"MINIO_ACCESS_KEY_ID":     &c.Storage.MinIO.AccessKeyID,
		"MINIO_SECRET_ACCESS_KEY": &c.Storage.MinIO.SecretAccessKey,
		"MINIO_BUCKET":            &c.Storage.MinIO.Bucket,
		"RESUME_TEMPLATE_PATH":    &c.Workflow.TemplatePath,
		"LOG_LEVEL":               &c.Logging.Level,
		"LOG_FORMAT":              &c.Logging.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"PORT":                 &c.Server.Port,
		"JWT_EXPIRATION_HOURS": &c.Auth.ExpirationHours,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Storage.Backend == StorageMinIO && (c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "") {
		return fmt.Errorf("config error: minio storage requires endpoint and bucket")
	}
	if c.Workflow.TemplatePath != "" {
		if _, err := os.Stat(c.Workflow.TemplatePath); os.IsNotExist(err) {
			return fmt.Errorf("config error: template file not found: %s", c.Workflow.TemplatePath)
		}
	}
	return nil
}
