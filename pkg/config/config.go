package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type"` // kafka | clickhouse
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		CandlesTopic string   `yaml:"candles_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		PoolSize     int           `yaml:"pool_size"`
		MinIdleConns int           `yaml:"min_idle_conns"`
		PoolTimeout  time.Duration `yaml:"pool_timeout"`
		Prefix       string        `yaml:"prefix"`
	} `yaml:"redis"`
	Polygon struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		RESTURL        string        `yaml:"rest_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"` // initial backoff
		MaxBackoff     time.Duration `yaml:"max_backoff"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"polygon"`
	Fallback struct {
		Name    string `yaml:"name"`
		APIKey  string `yaml:"api_key"`
		RESTURL string `yaml:"rest_url"`
	} `yaml:"fallback"`
	Providers struct {
		RequestTimeout time.Duration `yaml:"request_timeout"`
		MaxRetries     int           `yaml:"max_retries"`
		RatePerSec     float64       `yaml:"rate_per_sec"`
		Burst          float64       `yaml:"burst"`
	} `yaml:"providers"`
	Stream struct {
		MaxRPS     int `yaml:"max_rps"`
		BufferSize int `yaml:"buffer_size"`
	} `yaml:"stream"`
	Plans struct {
		StrategyURL string        `yaml:"strategy_url"`
		Timeout     time.Duration `yaml:"timeout"`
		CacheTTL    time.Duration `yaml:"cache_ttl"`
		ContextBars int           `yaml:"context_bars"`
	} `yaml:"plans"`
	Jobs struct {
		BackfillCron string `yaml:"backfill_cron"`
		BackfillDays int    `yaml:"backfill_days"`
		SweepCron    string `yaml:"sweep_cron"`
		Workers      int    `yaml:"workers"`
	} `yaml:"jobs"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Overrides apply before validation so secrets can live
// outside the file.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		c.Polygon.APIKey = v
	}
	if v := os.Getenv("FALLBACK_API_KEY"); v != "" {
		c.Fallback.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Polygon.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_CANDLES_TOPIC"); v != "" {
		c.Kafka.CandlesTopic = v
	}
	if v := os.Getenv("STRATEGY_URL"); v != "" {
		c.Plans.StrategyURL = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if len(c.Polygon.Symbols) == 0 {
		return fmt.Errorf("polygon.symbols cannot be empty")
	}
	if c.Polygon.APIKey == "" {
		return fmt.Errorf("polygon.api_key is required")
	}
	if c.Plans.CacheTTL <= 0 {
		c.Plans.CacheTTL = 5 * time.Minute
	}
	return nil
}
