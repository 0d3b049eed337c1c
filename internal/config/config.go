package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Sheets    SheetsConfig    `yaml:"sheets" envconfig:"SHEETS"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	ExecutableDir string `yaml:"executable_dir" envconfig:"EXECUTABLE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	InputDir      string `yaml:"input_dir" envconfig:"INPUT_DIR" default:"data/input"`
	ReportsDir    string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	WebDir        string `yaml:"web_dir" envconfig:"WEB_DIR" default:"web"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// AnalysisConfig bounds a single audit run and the batch runner.
type AnalysisConfig struct {
	MaxInputBytes     int64    `yaml:"max_input_bytes" envconfig:"MAX_INPUT_BYTES" default:"104857600"`
	BatchWorkers      int      `yaml:"batch_workers" envconfig:"BATCH_WORKERS" default:"4"`
	FilePattern       string   `yaml:"file_pattern" envconfig:"FILE_PATTERN" default:"*.csv"`
	AllowedExtensions []string `yaml:"allowed_extensions" envconfig:"ALLOWED_EXTENSIONS" default:".csv,.tsv,.txt,.xlsx"`
}

// SheetsConfig configures the Google Sheets input source. The API key is
// never embedded; it arrives through CSVA_SHEETS_API_KEY or the .env file.
type SheetsConfig struct {
	APIKey       string        `yaml:"api_key" envconfig:"API_KEY"`
	DefaultRange string        `yaml:"default_range" envconfig:"DEFAULT_RANGE" default:"A1:ZZ"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"30s"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from the .env file, environment variables and
// an optional YAML config file. Environment variables take precedence.
func Load() (*Config, error) {
	// A missing .env file is not an error; the file exists only in
	// development checkouts.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("CSVA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence).
// Only fields without an envconfig default can be zero after Process, so
// the merge covers exactly those.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Paths.ExecutableDir == "" {
		envConfig.Paths.ExecutableDir = fileConfig.Paths.ExecutableDir
	}
	if envConfig.Sheets.APIKey == "" {
		envConfig.Sheets.APIKey = fileConfig.Sheets.APIKey
	}
	return envConfig
}

// GetDataDir returns the resolved data directory path
func (c *Config) GetDataDir() string {
	return c.resolveDir(c.Paths.DataDir)
}

// GetInputDir returns the resolved input directory path
func (c *Config) GetInputDir() string {
	return c.resolveDir(c.Paths.InputDir)
}

// GetReportsDir returns the resolved reports directory path
func (c *Config) GetReportsDir() string {
	return c.resolveDir(c.Paths.ReportsDir)
}

// GetLogsDir returns the resolved logs directory path
func (c *Config) GetLogsDir() string {
	return c.resolveDir(c.Paths.LogsDir)
}

// GetWebDir returns the resolved web directory path
func (c *Config) GetWebDir() string {
	return c.resolveDir(c.Paths.WebDir)
}

func (c *Config) resolveDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	if c.Paths.ExecutableDir != "" {
		return filepath.Join(c.Paths.ExecutableDir, dir)
	}
	if paths, err := GetPaths(); err == nil {
		return filepath.Join(paths.ExecutableDir, dir)
	}
	return dir
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Analysis.MaxInputBytes <= 0 {
		return fmt.Errorf("analysis max input bytes must be positive")
	}

	if c.Analysis.BatchWorkers <= 0 {
		return fmt.Errorf("analysis batch workers must be positive")
	}

	if len(c.Analysis.AllowedExtensions) == 0 {
		return fmt.Errorf("at least one allowed input extension must be specified")
	}

	// Structured logs are always JSON; the console handler is reserved for
	// the CLI, which configures logging on its own.
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "console" {
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv("CSVA_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/app.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			InputDir:   "data/input",
			ReportsDir: "data/reports",
			WebDir:     "web",
			LogsDir:    "logs",
		},
		Analysis: AnalysisConfig{
			MaxInputBytes:     100 << 20, // 100MB
			BatchWorkers:      4,
			FilePattern:       "*.csv",
			AllowedExtensions: []string{".csv", ".tsv", ".txt", ".xlsx"},
		},
		Sheets: SheetsConfig{
			DefaultRange: "A1:ZZ",
			Timeout:      30 * time.Second,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
