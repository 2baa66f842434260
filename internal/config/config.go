package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/txreport/txreport/internal/normalize"
)

// FileName is the default config file name.
const FileName = "txreport.yaml"

// Config represents the top-level txreport.yaml configuration.
type Config struct {
	Input    string         `yaml:"input"`
	Output   string         `yaml:"output"`
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Email    EmailConfig    `yaml:"email"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Host          string  `yaml:"host"`
	Port          int     `yaml:"port"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// PipelineConfig controls CSV decoding and normalization.
type PipelineConfig struct {
	Workers     int      `yaml:"workers"`
	Format      string   `yaml:"format"` // "generic" or "semicolon"
	Encoding    string   `yaml:"encoding"`
	DateFormats []string `yaml:"date_formats"` // Go time layouts, tried in order
}

// EmailConfig controls report delivery.
type EmailConfig struct {
	From string     `yaml:"from"`
	To   string     `yaml:"to"`
	SMTP SMTPConfig `yaml:"smtp"`
}

// SMTPConfig holds the mail transport. An empty Host or zero Port means
// no transport is configured.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	Provider string `yaml:"provider,omitempty"` // "gmail" fills in host and port
	TLS      bool   `yaml:"tls"`                // STARTTLS
	SSL      bool   `yaml:"ssl"`                // implicit TLS
}

// Load reads a txreport.yaml file from disk. Keys missing from the file
// keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOptional is Load, but a missing file yields Default.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	layouts := make([]string, len(normalize.DefaultDateLayouts))
	copy(layouts, normalize.DefaultDateLayouts)

	return &Config{
		Input:    "./data/transactions.csv",
		Output:   "./outputs",
		LogLevel: "info",
		Server: ServerConfig{
			Host:          "127.0.0.1",
			Port:          8000,
			RatePerSecond: 10,
			Burst:         30,
		},
		Pipeline: PipelineConfig{
			Workers:     4,
			Format:      "generic",
			Encoding:    "utf-8",
			DateFormats: layouts,
		},
		Email: EmailConfig{
			To: "ops@example.com",
			SMTP: SMTPConfig{
				TLS: true,
			},
		},
	}
}

// Validate reports configuration values that cannot work.
func (c *Config) Validate() error {
	var problems []string
	if c.Pipeline.Workers < 1 {
		problems = append(problems, fmt.Sprintf("pipeline.workers must be at least 1, got %d", c.Pipeline.Workers))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Email.SMTP.Port < 0 || c.Email.SMTP.Port > 65535 {
		problems = append(problems, fmt.Sprintf("email.smtp.port %d out of range", c.Email.SMTP.Port))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// LoadEnvFiles loads .env files into the process environment, overriding
// variables that are already set. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Overload(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg. lookup is usually
// os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				n = 0
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			*dst = parseBool(v)
		}
	}

	str("LOG_LEVEL", &cfg.LogLevel)
	num("TXREPORT_WORKERS", &cfg.Pipeline.Workers)
	str("TXREPORT_FORMAT", &cfg.Pipeline.Format)
	str("TXREPORT_ENCODING", &cfg.Pipeline.Encoding)

	str("EMAIL_FROM", &cfg.Email.From)
	str("EMAIL_TO", &cfg.Email.To)
	str("SMTP_HOST", &cfg.Email.SMTP.Host)
	num("SMTP_PORT", &cfg.Email.SMTP.Port)
	str("SMTP_USER", &cfg.Email.SMTP.User)
	str("SMTP_PASS", &cfg.Email.SMTP.Password)
	str("SMTP_PROVIDER", &cfg.Email.SMTP.Provider)
	flag("SMTP_TLS", &cfg.Email.SMTP.TLS)
	flag("SMTP_SSL", &cfg.Email.SMTP.SSL)
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
