package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	IMAP      IMAPConfig      `mapstructure:"imap"`
	Product   ProductConfig   `mapstructure:"product"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // mysql or sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Path     string `mapstructure:"path"` // sqlite file path
}

// LLMConfig holds the OpenRouter / OpenAI-compatible API configuration
type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SMTPConfig holds outbound mail configuration
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// IMAPConfig holds reply-inbox configuration
type IMAPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// ProductConfig describes the product being sold
type ProductConfig struct {
	Description string `mapstructure:"description"`
	SenderName  string `mapstructure:"sender_name"`
}

// PipelineConfig holds lead pipeline tuning knobs
type PipelineConfig struct {
	MinRelevanceScore float64 `mapstructure:"min_relevance_score"`
	MaxJobsPerRun     int     `mapstructure:"max_jobs_per_run"`
	DryRun            bool    `mapstructure:"dry_run"`
	UseAIKeywords     bool    `mapstructure:"use_ai_keywords"`
	QualifyBatchSize  int     `mapstructure:"qualify_batch_size"`
	OutreachBatchSize int     `mapstructure:"outreach_batch_size"`
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()

	// Bind environment variables
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.driver", "mysql")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.path", "leadgen.db")

	viper.SetDefault("llm.model", "openai/gpt-4o-mini")
	viper.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	viper.SetDefault("llm.timeout", "60s")

	viper.SetDefault("smtp.host", "smtp.gmail.com")
	viper.SetDefault("smtp.port", 465)

	viper.SetDefault("imap.enabled", false)
	viper.SetDefault("imap.host", "imap.gmail.com")
	viper.SetDefault("imap.port", 993)

	viper.SetDefault("product.sender_name", "Sales")

	viper.SetDefault("pipeline.min_relevance_score", 60.0)
	viper.SetDefault("pipeline.max_jobs_per_run", 50)
	viper.SetDefault("pipeline.dry_run", true)
	viper.SetDefault("pipeline.use_ai_keywords", true)
	viper.SetDefault("pipeline.qualify_batch_size", 20)
	viper.SetDefault("pipeline.outreach_batch_size", 20)

	viper.SetDefault("scheduler.enabled", false)
	viper.SetDefault("scheduler.interval_minutes", 60)
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	// Database
	viper.BindEnv("database.driver", "DB_DRIVER")
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")
	viper.BindEnv("database.path", "DB_PATH")

	// LLM
	viper.BindEnv("llm.api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("llm.model", "OPENROUTER_MODEL")
	viper.BindEnv("llm.base_url", "OPENROUTER_BASE_URL")
	viper.BindEnv("llm.timeout", "LLM_TIMEOUT")

	// SMTP
	viper.BindEnv("smtp.host", "SMTP_HOST")
	viper.BindEnv("smtp.port", "SMTP_PORT")
	viper.BindEnv("smtp.username", "SMTP_USERNAME")
	viper.BindEnv("smtp.password", "SMTP_PASSWORD")
	viper.BindEnv("smtp.from", "SMTP_FROM")

	// IMAP
	viper.BindEnv("imap.enabled", "IMAP_ENABLED")
	viper.BindEnv("imap.host", "IMAP_HOST")
	viper.BindEnv("imap.port", "IMAP_PORT")
	viper.BindEnv("imap.user", "IMAP_USER")
	viper.BindEnv("imap.password", "IMAP_PASSWORD")

	// Product
	viper.BindEnv("product.description", "PRODUCT_DESCRIPTION")
	viper.BindEnv("product.sender_name", "PRODUCT_SENDER_NAME")

	// Pipeline
	viper.BindEnv("pipeline.min_relevance_score", "PIPELINE_MIN_RELEVANCE_SCORE")
	viper.BindEnv("pipeline.max_jobs_per_run", "PIPELINE_MAX_JOBS_PER_RUN")
	viper.BindEnv("pipeline.dry_run", "PIPELINE_DRY_RUN")
	viper.BindEnv("pipeline.use_ai_keywords", "PIPELINE_USE_AI_KEYWORDS")
	viper.BindEnv("pipeline.qualify_batch_size", "PIPELINE_QUALIFY_BATCH_SIZE")
	viper.BindEnv("pipeline.outreach_batch_size", "PIPELINE_OUTREACH_BATCH_SIZE")

	// Scheduler
	viper.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	viper.BindEnv("scheduler.interval_minutes", "SCHEDULER_INTERVAL_MINUTES")
}

// GetDSN returns the database connection string for the configured driver
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Database.Driver {
	case "mysql":
		if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
			return fmt.Errorf("database host, user, and dbname are required for mysql")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Product.Description == "" {
		return fmt.Errorf("product description is required")
	}

	if c.Pipeline.MinRelevanceScore < 0 || c.Pipeline.MinRelevanceScore > 100 {
		return fmt.Errorf("min relevance score must be between 0 and 100")
	}

	// Real sends need working SMTP credentials; dry-run does not touch SMTP.
	if !c.Pipeline.DryRun {
		if c.SMTP.Username == "" || c.SMTP.Password == "" {
			return fmt.Errorf("SMTP credentials are required when dry_run is disabled")
		}
	}

	if c.IMAP.Enabled {
		if c.IMAP.User == "" || c.IMAP.Password == "" {
			return fmt.Errorf("IMAP credentials are required when reply checking is enabled")
		}
	}

	if c.Scheduler.Enabled && c.Scheduler.IntervalMinutes <= 0 {
		return fmt.Errorf("scheduler interval must be greater than 0")
	}

	return nil
}
