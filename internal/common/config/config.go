package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jaykchen/scrape-web-summary/internal/common/configtypes"
	"github.com/jaykchen/scrape-web-summary/internal/common/yamlutil"
	"github.com/jaykchen/scrape-web-summary/pkg/types"
)

// Config represents the summary service configuration
type Config struct {
	Server     ServerConfig              `yaml:"server"`
	Chrome     ChromeConfig              `yaml:"chrome"`
	Pdfium     PdfiumConfig              `yaml:"pdfium"`
	Summarizer SummarizerConfig          `yaml:"summarizer"`
	Log        configtypes.LogConfig     `yaml:"log"`
	Metrics    configtypes.MetricsConfig `yaml:"metrics"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	ID             string         `yaml:"id"`
	Listen         string         `yaml:"listen"`
	RequestTimeout types.Duration `yaml:"request_timeout"` // hard limit for one summary request
}

// ChromeConfig represents Chrome pool configuration
type ChromeConfig struct {
	PoolSize string        `yaml:"pool_size"`
	Warmup   WarmupConfig  `yaml:"warmup"`
	Restart  RestartConfig `yaml:"restart"`
	Print    PrintConfig   `yaml:"print"`
}

// WarmupConfig represents Chrome warmup configuration
type WarmupConfig struct {
	URL     string         `yaml:"url"`
	Timeout types.Duration `yaml:"timeout"`
}

// RestartConfig represents Chrome restart policy configuration
type RestartConfig struct {
	AfterCount int            `yaml:"after_count"`
	AfterTime  types.Duration `yaml:"after_time"`
}

// PrintConfig represents page print timeout configuration
type PrintConfig struct {
	NavigationTimeout types.Duration `yaml:"navigation_timeout"` // wait for the document load event
}

// PdfiumConfig represents the pdfium worker pool configuration
type PdfiumConfig struct {
	MinIdle        int            `yaml:"min_idle"`
	MaxIdle        int            `yaml:"max_idle"`
	MaxTotal       int            `yaml:"max_total"`
	AcquireTimeout types.Duration `yaml:"acquire_timeout"`
}

// SummarizerConfig represents chat completion settings
type SummarizerConfig struct {
	BaseURL     string  `yaml:"base_url"` // optional API base URL override
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`   // completion token limit
	TokenBudget int     `yaml:"token_budget"` // article text word budget
	Temperature float32 `yaml:"temperature"`
}

const (
	// SafetyMargin is the buffer added to request_timeout for the server
	// timeout so FastHTTP doesn't kill connections before the pipeline
	// finishes
	SafetyMargin = 10 * time.Second

	defaultRequestTimeout    = 60 * time.Second
	defaultNavigationTimeout = 30 * time.Second
	defaultRestartAfterCount = 100
	defaultRestartAfterTime  = 60 * time.Minute
	defaultWarmupTimeout     = 10 * time.Second
	defaultPdfiumMinIdle     = 1
	defaultPdfiumMaxIdle     = 2
	defaultPdfiumMaxTotal    = 4
	defaultPdfiumAcquire     = 30 * time.Second
	defaultModel             = "gpt-3.5-turbo"
	defaultMaxTokens         = 512
	defaultTokenBudget       = 3000
	defaultTemperature       = 0.7
)

// CalculateServerTimeout returns the FastHTTP server timeout
func (s *ServerConfig) CalculateServerTimeout() time.Duration {
	return time.Duration(s.RequestTimeout) + SafetyMargin
}

// LoadConfig loads the service configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults applies default values to configuration fields
func (cfg *Config) applyDefaults() {
	// If both outputs are disabled (zero values), enable console by default
	if !cfg.Log.Console.Enabled && !cfg.Log.File.Enabled {
		cfg.Log.Console.Enabled = true
	}

	if cfg.Log.Console.Format == "" {
		cfg.Log.Console.Format = configtypes.LogFormatConsole
	}

	if cfg.Log.File.Format == "" {
		cfg.Log.File.Format = configtypes.LogFormatText
	}

	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = types.Duration(defaultRequestTimeout)
	}

	if cfg.Chrome.PoolSize == "" {
		cfg.Chrome.PoolSize = "auto"
	}

	if cfg.Chrome.Warmup.Timeout == 0 {
		cfg.Chrome.Warmup.Timeout = types.Duration(defaultWarmupTimeout)
	}

	if cfg.Chrome.Restart.AfterCount == 0 {
		cfg.Chrome.Restart.AfterCount = defaultRestartAfterCount
	}

	if cfg.Chrome.Restart.AfterTime == 0 {
		cfg.Chrome.Restart.AfterTime = types.Duration(defaultRestartAfterTime)
	}

	if cfg.Chrome.Print.NavigationTimeout == 0 {
		cfg.Chrome.Print.NavigationTimeout = types.Duration(defaultNavigationTimeout)
	}

	if cfg.Pdfium.MinIdle == 0 {
		cfg.Pdfium.MinIdle = defaultPdfiumMinIdle
	}

	if cfg.Pdfium.MaxIdle == 0 {
		cfg.Pdfium.MaxIdle = defaultPdfiumMaxIdle
	}

	if cfg.Pdfium.MaxTotal == 0 {
		cfg.Pdfium.MaxTotal = defaultPdfiumMaxTotal
	}

	if cfg.Pdfium.AcquireTimeout == 0 {
		cfg.Pdfium.AcquireTimeout = types.Duration(defaultPdfiumAcquire)
	}

	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = defaultModel
	}

	if cfg.Summarizer.MaxTokens == 0 {
		cfg.Summarizer.MaxTokens = defaultMaxTokens
	}

	if cfg.Summarizer.TokenBudget == 0 {
		cfg.Summarizer.TokenBudget = defaultTokenBudget
	}

	if cfg.Summarizer.Temperature == 0 {
		cfg.Summarizer.Temperature = defaultTemperature
	}
}

// Validate checks configuration validity
func (cfg *Config) Validate() error {
	// Server validation
	if cfg.Server.ID == "" {
		return fmt.Errorf("server.id is required")
	}

	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	} else if err := configtypes.ValidateListenAddress(cfg.Server.Listen); err != nil {
		return fmt.Errorf("invalid server.listen: %w", err)
	}

	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}

	// Chrome validation
	if cfg.Chrome.PoolSize != "auto" {
		size, err := strconv.Atoi(cfg.Chrome.PoolSize)
		if err != nil || size <= 0 {
			return fmt.Errorf("chrome.pool_size must be 'auto' or positive integer")
		}
	}

	if cfg.Chrome.Warmup.URL == "" {
		return fmt.Errorf("chrome.warmup.url is required")
	}

	if cfg.Chrome.Warmup.Timeout <= 0 {
		return fmt.Errorf("chrome.warmup.timeout must be positive")
	}

	if cfg.Chrome.Restart.AfterCount <= 0 {
		return fmt.Errorf("chrome.restart.after_count must be positive")
	}

	if cfg.Chrome.Restart.AfterTime <= 0 {
		return fmt.Errorf("chrome.restart.after_time must be positive")
	}

	if cfg.Chrome.Print.NavigationTimeout <= 0 {
		return fmt.Errorf("chrome.print.navigation_timeout must be positive")
	}

	// Pdfium validation
	if cfg.Pdfium.MinIdle < 0 {
		return fmt.Errorf("pdfium.min_idle must be >= 0")
	}

	if cfg.Pdfium.MaxTotal <= 0 {
		return fmt.Errorf("pdfium.max_total must be positive")
	}

	if cfg.Pdfium.MaxIdle > cfg.Pdfium.MaxTotal {
		return fmt.Errorf("pdfium.max_idle must not exceed pdfium.max_total")
	}

	if cfg.Pdfium.AcquireTimeout <= 0 {
		return fmt.Errorf("pdfium.acquire_timeout must be positive")
	}

	// Summarizer validation
	if cfg.Summarizer.Model == "" {
		return fmt.Errorf("summarizer.model is required")
	}

	if cfg.Summarizer.MaxTokens <= 0 {
		return fmt.Errorf("summarizer.max_tokens must be positive")
	}

	if cfg.Summarizer.TokenBudget <= 0 {
		return fmt.Errorf("summarizer.token_budget must be positive")
	}

	// Log validation
	validLogLevels := map[string]bool{
		configtypes.LogLevelDebug:  true,
		configtypes.LogLevelInfo:   true,
		configtypes.LogLevelWarn:   true,
		configtypes.LogLevelError:  true,
		configtypes.LogLevelDPanic: true,
		configtypes.LogLevelPanic:  true,
		configtypes.LogLevelFatal:  true,
	}
	if !validLogLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log.level: %s (must be debug, info, warn, error, dpanic, panic, or fatal)", cfg.Log.Level)
	}

	validConsoleFormats := map[string]bool{
		configtypes.LogFormatJSON:    true,
		configtypes.LogFormatConsole: true,
	}

	if cfg.Log.Console.Enabled && cfg.Log.Console.Format != "" && !validConsoleFormats[cfg.Log.Console.Format] {
		return fmt.Errorf("invalid log.console.format: %s (must be json or console)", cfg.Log.Console.Format)
	}

	if cfg.Log.File.Enabled {
		if cfg.Log.File.Path == "" {
			return fmt.Errorf("log.file.path must be specified when file logging is enabled")
		}

		validFileFormats := map[string]bool{
			configtypes.LogFormatJSON: true,
			configtypes.LogFormatText: true,
		}
		if cfg.Log.File.Format != "" && !validFileFormats[cfg.Log.File.Format] {
			return fmt.Errorf("invalid log.file.format: %s (must be json or text)", cfg.Log.File.Format)
		}

		if cfg.Log.File.Rotation.MaxSize < 0 {
			return fmt.Errorf("log.file.rotation.max_size must be >= 0, got %d", cfg.Log.File.Rotation.MaxSize)
		}
		if cfg.Log.File.Rotation.MaxAge < 0 {
			return fmt.Errorf("log.file.rotation.max_age must be >= 0, got %d", cfg.Log.File.Rotation.MaxAge)
		}
		if cfg.Log.File.Rotation.MaxBackups < 0 {
			return fmt.Errorf("log.file.rotation.max_backups must be >= 0, got %d", cfg.Log.File.Rotation.MaxBackups)
		}
	}

	// Metrics validation
	if cfg.Metrics.Enabled {
		if cfg.Metrics.Listen == "" {
			return fmt.Errorf("metrics.listen is required when metrics enabled")
		} else if err := configtypes.ValidateListenAddress(cfg.Metrics.Listen); err != nil {
			return fmt.Errorf("invalid metrics.listen: %w", err)
		}

		// Metrics must run on a separate port
		metricsPort, err1 := configtypes.GetPortFromListen(cfg.Metrics.Listen)
		serverPort, err2 := configtypes.GetPortFromListen(cfg.Server.Listen)
		if err1 == nil && err2 == nil && metricsPort == serverPort {
			return fmt.Errorf("metrics.listen port (%d) must differ from server.listen port (%d) when metrics enabled", metricsPort, serverPort)
		}
	}

	if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("invalid metrics.path: %s (must start with /)", cfg.Metrics.Path)
	}

	if cfg.Metrics.Namespace != "" {
		// Prometheus namespace must match: [a-zA-Z_][a-zA-Z0-9_]*
		if matched, _ := regexp.MatchString(`^[a-zA-Z_][a-zA-Z0-9_]*$`, cfg.Metrics.Namespace); !matched {
			return fmt.Errorf("invalid metrics.namespace: %s (must match [a-zA-Z_][a-zA-Z0-9_]*)", cfg.Metrics.Namespace)
		}
	}

	return nil
}

// GetConfigPath resolves the config file path
func GetConfigPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("config path cannot be empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("config file does not exist: %s", absPath)
	}

	return absPath, nil
}
