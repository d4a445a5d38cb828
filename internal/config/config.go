package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
		// APIKeys maps owner id to API key.
		APIKeys   map[string]string `yaml:"apiKeys"`
		RateLimit struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Database struct {
		// Driver is one of "postgres", "mysql" or "memory".
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey      string  `yaml:"apiKey"`
		Model       string  `yaml:"model"`
		BaseURL     string  `yaml:"baseURL"`
		// nil means unset; 0 is a valid temperature
		Temperature *float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"maxTokens"`
	} `yaml:"openai"`

	Crypto struct {
		Iterations int `yaml:"iterations"`
	} `yaml:"crypto"`

	Log struct {
		Development bool `yaml:"development"`
	} `yaml:"log"`
}

// Load reads the YAML file at path, then applies environment overrides and defaults.
// A missing file is not an error; everything can come from the environment.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.OpenAI.Model, "OPENAI_MODEL")
	setString(&c.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.Host, "DATABASE_HOST")
	setString(&c.Database.User, "DATABASE_USER")
	setString(&c.Database.Password, "DATABASE_PASSWORD")
	setString(&c.Database.Name, "DATABASE_NAME")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	if v, err := strconv.ParseFloat(os.Getenv("OPENAI_TEMPERATURE"), 32); err == nil && v >= 0 {
		t := float32(v)
		c.OpenAI.Temperature = &t
	}
	if v, err := strconv.Atoi(os.Getenv("PORT")); err == nil && v > 0 {
		c.Server.Port = v
	}
	if v, err := strconv.Atoi(os.Getenv("DATABASE_PORT")); err == nil && v > 0 {
		c.Database.Port = v
	}
	// API_KEYS=owner1:key1,owner2:key2
	if v := os.Getenv("API_KEYS"); v != "" {
		if c.Server.APIKeys == nil {
			c.Server.APIKeys = map[string]string{}
		}
		for _, pair := range strings.Split(v, ",") {
			owner, key, ok := strings.Cut(strings.TrimSpace(pair), ":")
			if ok && owner != "" && key != "" {
				c.Server.APIKeys[owner] = key
			}
		}
	}
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 30
	}
	if c.Server.RateLimit.RefillRate == 0 {
		c.Server.RateLimit.RefillRate = 1
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.Temperature == nil {
		t := float32(0.7)
		c.OpenAI.Temperature = &t
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = 1500
	}
	if c.Crypto.Iterations == 0 {
		c.Crypto.Iterations = 100000
	}
}

// Validate rejects configurations the server cannot start with.
// A missing OpenAI key is allowed; analysis then reports "not configured".
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if len(c.Server.APIKeys) == 0 {
		return errors.New("at least one API key is required (server.apiKeys or API_KEYS)")
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		return errors.New("minio endpoint and bucketName are required when minio is enabled")
	}
	if t := c.OpenAI.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("openai temperature %v out of range [0, 2]", *t)
	}
	return nil
}

// MySQLDSN builds the go-sql-driver DSN
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds the lib/pq connection string
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
