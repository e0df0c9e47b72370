package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/fazecat/lexipulse/Internal/sentiment"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Analyzer      AnalyzerConfig      `yaml:"analyzer"`
	Historical    HistoricalConfig    `yaml:"historical"`
	Source        SourceConfig        `yaml:"source"`
	Storage       StorageConfig       `yaml:"storage"`
	Notifications NotificationsConfig `yaml:"notifications"`
	API           APIConfig           `yaml:"api"`
	Logging       LoggingConfig       `yaml:"logging"`

	// Filled from the environment only.
	Database DatabaseConfig `yaml:"-"`
	Alpaca   AlpacaConfig   `yaml:"-"`
	NATSURL  string         `yaml:"-"`
	JWTKey   string         `yaml:"-"`

	path string
}

type AnalyzerConfig struct {
	Ticker                 string  `yaml:"ticker"`
	Keyword                string  `yaml:"keyword"`
	LearningRate           float64 `yaml:"learning_rate"`
	PollingIntervalSeconds int     `yaml:"polling_interval_seconds"`
	PositiveThreshold      float64 `yaml:"positive_threshold"`
	NegativeThreshold      float64 `yaml:"negative_threshold"`
	MinWordLength          int     `yaml:"min_word_length"`
	MinLearnScore          float64 `yaml:"min_learn_score"`
	Policy                 string  `yaml:"policy"`
	TitleWeight            float64 `yaml:"title_weight"`
	ContentWeight          float64 `yaml:"content_weight"`
}

type HistoricalConfig struct {
	Days         int    `yaml:"days"`
	MaxArticles  int    `yaml:"max_articles"`
	FullContent  bool   `yaml:"full_content"`
	LearningMode bool   `yaml:"learning_mode"`
	Schedule     string `yaml:"schedule"`
	Timezone     string `yaml:"timezone"`
}

type SourceConfig struct {
	Kind              string `yaml:"kind"`
	RSSURLTemplate    string `yaml:"rss_url_template"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
}

type StorageConfig struct {
	Kind       string `yaml:"kind"`
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

type NotificationsConfig struct {
	Console     bool   `yaml:"console"`
	NATS        bool   `yaml:"nats"`
	NATSSubject string `yaml:"nats_subject"`
}

type APIConfig struct {
	Addr       string `yaml:"addr"`
	TokenHours int    `yaml:"token_hours"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type AlpacaConfig struct {
	APIKey    string
	APISecret string
}

func Default() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			Ticker:                 "BA",
			LearningRate:           0.05,
			PollingIntervalSeconds: 60,
			PositiveThreshold:      0.05,
			NegativeThreshold:      -0.05,
			MinWordLength:          3,
			MinLearnScore:          0.01,
			Policy:                 string(sentiment.PolicyGradient),
			TitleWeight:            1.5,
			ContentWeight:          0.5,
		},
		Historical: HistoricalConfig{
			Days:        30,
			MaxArticles: 100,
			Timezone:    "UTC",
		},
		Source: SourceConfig{
			Kind:              "rss",
			RSSURLTemplate:    "https://finance.yahoo.com/rss/headline?s=%s",
			RequestsPerMinute: 30,
			TimeoutSeconds:    15,
		},
		Storage: StorageConfig{
			Kind:       "file",
			Dir:        "logs",
			SQLitePath: "lexipulse.db",
		},
		Notifications: NotificationsConfig{
			Console:     true,
			NATSSubject: "lexipulse.sentiment",
		},
		API: APIConfig{
			Addr:       ":8080",
			TokenHours: 24,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadConfig reads config.yaml from the first candidate path that exists and
// layers environment overrides on top. With no file at all the defaults are
// used.
func LoadConfig(explicit string) (*Config, error) {
	cfg := Default()

	var candidates []string
	if explicit != "" {
		candidates = append(candidates, explicit)
	} else {
		candidates = candidatePaths()
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if explicit != "" {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.path = path
		break
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func candidatePaths() []string {
	var paths []string
	if _, filePath, _, ok := runtime.Caller(0); ok {
		paths = append(paths, filepath.Join(filepath.Dir(filePath), "config.yaml"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, "Internal", "utils", "config", "config.yaml"))
		paths = append(paths, filepath.Join(cwd, "config.yaml"))
	}
	return append(paths, filepath.Join("Internal", "utils", "config", "config.yaml"), "config.yaml")
}

// ApplyEnv copies environment overrides and secrets into the config.
func (c *Config) ApplyEnv() {
	c.Analyzer.Ticker = getEnvOrDefault("LEXIPULSE_TICKER", c.Analyzer.Ticker)
	c.Logging.Level = getEnvOrDefault("LOG_LEVEL", c.Logging.Level)
	if v := os.Getenv("LEXIPULSE_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Analyzer.PollingIntervalSeconds = secs
		}
	}

	c.Database = DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   getEnvOrDefault("DB_NAME", "lexipulse"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}
	c.Alpaca = AlpacaConfig{
		APIKey:    os.Getenv("ALPACA_API_KEY"),
		APISecret: os.Getenv("ALPACA_API_SECRET"),
	}
	c.NATSURL = getEnvOrDefault("NATS_URL", "nats://127.0.0.1:4222")
	c.JWTKey = os.Getenv("JWT_SECRET_KEY")
}

func (c *Config) Validate() error {
	a := c.Analyzer
	switch {
	case a.Ticker == "":
		return fmt.Errorf("%w: ticker is required", ErrInvalid)
	case !(a.LearningRate > 0):
		return fmt.Errorf("%w: learning_rate must be > 0", ErrInvalid)
	case a.PollingIntervalSeconds <= 0:
		return fmt.Errorf("%w: polling_interval_seconds must be > 0", ErrInvalid)
	case !(a.PositiveThreshold > a.NegativeThreshold):
		return fmt.Errorf("%w: positive_threshold must exceed negative_threshold", ErrInvalid)
	case a.MinWordLength < 1:
		return fmt.Errorf("%w: min_word_length must be >= 1", ErrInvalid)
	case !(a.MinLearnScore >= 0):
		return fmt.Errorf("%w: min_learn_score must be >= 0", ErrInvalid)
	case a.TitleWeight < 0 || a.ContentWeight < 0:
		return fmt.Errorf("%w: scoring weights must be >= 0", ErrInvalid)
	}

	switch sentiment.Policy(a.Policy) {
	case sentiment.PolicyGradient, sentiment.PolicyAveraging:
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalid, a.Policy)
	}
	switch c.Source.Kind {
	case "rss", "alpaca":
	default:
		return fmt.Errorf("%w: unknown source kind %q", ErrInvalid, c.Source.Kind)
	}
	switch c.Storage.Kind {
	case "file", "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: unknown storage kind %q", ErrInvalid, c.Storage.Kind)
	}
	if c.Historical.Days <= 0 || c.Historical.MaxArticles <= 0 {
		return fmt.Errorf("%w: historical days and max_articles must be > 0", ErrInvalid)
	}
	if _, err := time.LoadLocation(c.Historical.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalid, c.Historical.Timezone, err)
	}
	return nil
}

func (c *Config) PollingInterval() time.Duration {
	return time.Duration(c.Analyzer.PollingIntervalSeconds) * time.Second
}

func (c *Config) Thresholds() sentiment.Thresholds {
	return sentiment.Thresholds{
		Positive: c.Analyzer.PositiveThreshold,
		Negative: c.Analyzer.NegativeThreshold,
	}
}

func (c *Config) Weights() sentiment.Weights {
	return sentiment.Weights{
		Title:   c.Analyzer.TitleWeight,
		Content: c.Analyzer.ContentWeight,
	}
}

func (c *Config) LearnerParams() sentiment.LearnerParams {
	return sentiment.LearnerParams{
		LearningRate:  c.Analyzer.LearningRate,
		MinScore:      c.Analyzer.MinLearnScore,
		MinWordLength: c.Analyzer.MinWordLength,
	}
}

// Path is the file the config was read from, if any.
func (c *Config) Path() string {
	return c.path
}

// SaveConfig writes cfg back to the file it came from, or to config.yaml.
func SaveConfig(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	path := cfg.path
	if path == "" {
		path = "config.yaml"
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	cfg.path = path
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
