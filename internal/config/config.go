package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	SlotSQLite   = "sqlite"
	SlotMySQL    = "mysql"
	SlotPostgres = "postgres"
	SlotMemory   = "memory"
)

type Config struct {
	Server struct {
		Port           int           `yaml:"port"`
		MaxUploadBytes int64         `yaml:"maxUploadBytes"`
		ReadTimeout    time.Duration `yaml:"readTimeout"`
		WriteTimeout   time.Duration `yaml:"writeTimeout"`
	} `yaml:"server"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	Provider struct {
		Name         string `yaml:"name"`
		GoogleAPIKey string `yaml:"googleApiKey"`
		OpenAIAPIKey string `yaml:"openaiApiKey"`
		Model        string `yaml:"model"`
		BaseURL      string `yaml:"baseUrl"`
	} `yaml:"provider"`

	RateLimit struct {
		Enabled    bool `yaml:"enabled"`
		Capacity   int  `yaml:"capacity"`
		RefillRate int  `yaml:"refillRate"`
	} `yaml:"rateLimit"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	History struct {
		Backend  string `yaml:"backend"`
		Path     string `yaml:"path"`
		SlotName string `yaml:"slotName"`
	} `yaml:"history"`

	Client struct {
		ServerURL string        `yaml:"serverUrl"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"client"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Default isi nilai bawaan sebelum file dibaca
func Default() *Config {
	var c Config
	c.Server.Port = 3000
	c.Server.MaxUploadBytes = 10 << 20
	c.Server.ReadTimeout = 30 * time.Second
	c.Server.WriteTimeout = 120 * time.Second
	c.CORS.AllowedOrigins = []string{"http://localhost:5173"}
	c.Provider.Name = ProviderGemini
	c.RateLimit.Enabled = true
	c.RateLimit.Capacity = 10
	c.RateLimit.RefillRate = 1
	c.Minio.BucketName = "glowreader-photos"
	c.Database.Port = 3306
	c.Database.SSLMode = "disable"
	c.History.Backend = SlotSQLite
	c.History.SlotName = "glowreader.history"
	c.Client.ServerURL = "http://localhost:3000"
	c.Client.Timeout = 2 * time.Minute
	c.Log.Level = "info"
	return &c
}

// Load baca file config.yaml, lalu override dari env.
// File yang tidak ada bukan error; default + env tetap dipakai.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("GOOGLE_API_KEY"); ok && v != "" {
		c.Provider.GoogleAPIKey = v
	}
	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		c.Provider.OpenAIAPIKey = v
		if c.Provider.GoogleAPIKey == "" {
			c.Provider.Name = ProviderOpenAI
		}
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("CLIENT_URL"); ok && v != "" {
		c.CORS.AllowedOrigins = []string{strings.TrimRight(v, "/")}
	}
	if v, ok := lookup("GLOWREADER_SERVER_URL"); ok && v != "" {
		c.Client.ServerURL = v
	}
	return nil
}

// Validate checks what the API server needs before it starts.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case ProviderGemini:
		if c.Provider.GoogleAPIKey == "" {
			return errors.New("provider gemini needs GOOGLE_API_KEY")
		}
	case ProviderOpenAI:
		if c.Provider.OpenAIAPIKey == "" {
			return errors.New("provider openai needs OPENAI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider.Name)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Minio.Enabled && c.Minio.Endpoint == "" {
		return errors.New("minio enabled without endpoint")
	}
	return nil
}

// HistoryPath returns the sqlite file, defaulting to the user config dir.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "glowreader", "history.db")
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres (format key=value lib/pq)
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
