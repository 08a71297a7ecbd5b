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

// Config is everything the service reads at startup. Values come from the
// environment first, then an optional YAML file, then the struct defaults.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Data      DataConfig      `yaml:"data" envconfig:"DATA"`
	Watcher   WatcherConfig   `yaml:"watcher" envconfig:"WATCHER"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig sets the HTTP listener and its timeouts.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// SecurityConfig sets CORS, rate limiting and API key auth.
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// APIKeys maps key values to client names. When set, mutating endpoints
	// such as dataset reload require a matching X-API-Key header.
	APIKeys map[string]string `yaml:"api_keys" envconfig:"API_KEYS"`
}

// RateLimitConfig bounds per-client request rates.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// LoggingConfig selects log level and destinations. Format is always JSON,
// validate coerces whatever was configured.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format      string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output      string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// DataConfig locates the raw incident export and the data directories.
type DataConfig struct {
	// SourceFile is the raw incident export to load. Relative paths resolve
	// against the data directory; empty means discover the newest .csv/.xlsx
	// in the data directory.
	SourceFile string `yaml:"source_file" envconfig:"SOURCE_FILE"`
	// Directory overrides. Empty fields keep the executable-relative layout
	// from GetPaths; relative values resolve against the executable directory.
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ReportsDir    string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	MaxSourceSize int64  `yaml:"max_source_size" envconfig:"MAX_SOURCE_SIZE" default:"268435456"`
}

// WatcherConfig controls the background source revalidation schedule.
type WatcherConfig struct {
	Enabled  bool          `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	Interval time.Duration `yaml:"interval" envconfig:"INTERVAL" default:"30s"`
}

// WebSocketConfig tunes hub connections.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load assembles the configuration. Environment variables win, a YAML file
// fills what they left unset, and validate applies the coercions.
func Load() (*Config, error) {
	var cfg Config

	// Populate the environment from a .env file when one exists. Variables
	// already set in the real environment win over the file.
	_ = godotenv.Load()

	if err := envconfig.Process("BITEWATCH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := findConfigFile(); configFile != "" {
		fileConfig, err := readConfigFile(configFile)
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

func readConfigFile(filePath string) (*Config, error) {
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

// fill copies src into dst when dst still holds its zero value.
func fill[T comparable](dst *T, src T) {
	var zero T
	if *dst == zero {
		*dst = src
	}
}

// mergeConfigs layers the file config under the env config, field by field.
// Only fields that can arrive through both routes need an entry here.
func mergeConfigs(fileConfig, envConfig Config) Config {
	fill(&envConfig.Server.Port, fileConfig.Server.Port)
	fill(&envConfig.Server.ReadTimeout, fileConfig.Server.ReadTimeout)
	fill(&envConfig.Server.WriteTimeout, fileConfig.Server.WriteTimeout)
	fill(&envConfig.Server.IdleTimeout, fileConfig.Server.IdleTimeout)
	fill(&envConfig.Server.RequestTimeout, fileConfig.Server.RequestTimeout)
	fill(&envConfig.Server.ShutdownTimeout, fileConfig.Server.ShutdownTimeout)

	if len(envConfig.Security.AllowedOrigins) == 0 {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	if len(envConfig.Security.APIKeys) == 0 {
		envConfig.Security.APIKeys = fileConfig.Security.APIKeys
	}

	fill(&envConfig.Logging.Level, fileConfig.Logging.Level)
	fill(&envConfig.Logging.FilePath, fileConfig.Logging.FilePath)

	fill(&envConfig.Data.SourceFile, fileConfig.Data.SourceFile)
	fill(&envConfig.Data.DataDir, fileConfig.Data.DataDir)
	fill(&envConfig.Data.ReportsDir, fileConfig.Data.ReportsDir)
	fill(&envConfig.Data.LogsDir, fileConfig.Data.LogsDir)

	fill(&envConfig.Watcher.Interval, fileConfig.Watcher.Interval)

	return envConfig
}

// ResolveSourcePath resolves the configured source file against the data
// directory. Empty when no source file is configured (discovery applies).
func (c *Config) ResolveSourcePath(paths *Paths) string {
	if c.Data.SourceFile == "" {
		return ""
	}
	if filepath.IsAbs(c.Data.SourceFile) {
		return c.Data.SourceFile
	}
	return paths.GetDataPath(c.Data.SourceFile)
}

// ResolveLogPath places the configured log file inside the resolved logs
// directory unless an absolute path was given. Only the file name of a
// relative path is kept so every log lands in one directory.
func (c *Config) ResolveLogPath(paths *Paths) string {
	if filepath.IsAbs(c.Logging.FilePath) {
		return c.Logging.FilePath
	}
	return paths.GetLogPath(filepath.Base(c.Logging.FilePath))
}

// validate rejects unusable values and coerces the logging fields the rest
// of the stack depends on.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d outside 1-65535", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}
	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin is required")
	}
	if c.Watcher.Enabled && c.Watcher.Interval < time.Second {
		return fmt.Errorf("watcher interval must be at least 1s, got %s", c.Watcher.Interval)
	}
	if c.Data.MaxSourceSize <= 0 {
		return fmt.Errorf("max source size must be positive, got %d", c.Data.MaxSourceSize)
	}

	// The logging stack emits JSON whatever the config asked for
	c.Logging.Format = "json"

	switch c.Logging.Output {
	case "both", "file", "console":
	default:
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/app.log"
	}

	return nil
}

// findConfigFile probes the conventional locations, nearest first.
func findConfigFile() string {
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
	return ""
}

// Default is the configuration the service runs with when nothing is set.
// Tests start from it, Load arrives at the same values through the
// envconfig defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
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
			Level:       "info",
			Format:      "json",
			Output:      "both",
			FilePath:    "logs/app.log",
			Development: false,
		},
		Data: DataConfig{
			MaxSourceSize: 256 << 20,
		},
		Watcher: WatcherConfig{
			Enabled:  true,
			Interval: 30 * time.Second,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
