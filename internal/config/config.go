package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server"`
	Redis    RedisConfig    `json:"redis"`
	Captcha  CaptchaConfig  `json:"captcha"`
	Browser  BrowserConfig  `json:"browser"`
	FSSP     FSSPConfig     `json:"fssp"`
	Batch    BatchConfig    `json:"batch"`
	Log      LogConfig      `json:"log"`
	Security SecurityConfig `json:"security"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Environment  string        `json:"environment"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisConfig holds Redis configuration. An empty URL disables Redis.
type RedisConfig struct {
	URL      string        `json:"url"`
	PoolSize int           `json:"pool_size"`
	CacheTTL time.Duration `json:"cache_ttl"`
}

// CaptchaConfig holds the recognition service configuration
type CaptchaConfig struct {
	APIKey       string        `json:"-"`
	BaseURL      string        `json:"base_url"`
	PollInterval time.Duration `json:"poll_interval"`
	Timeout      time.Duration `json:"timeout"`
	RateLimit    float64       `json:"rate_limit"`
	MaxAttempts  int           `json:"max_attempts"`
}

// BrowserConfig holds browser automation configuration
type BrowserConfig struct {
	Headless          bool          `json:"headless"`
	UserAgent         string        `json:"user_agent"`
	ExecPath          string        `json:"exec_path,omitempty"`
	MaxSessions       int           `json:"max_sessions"`
	NavigationTimeout time.Duration `json:"navigation_timeout"`
	CaptchaTimeout    time.Duration `json:"captcha_timeout"`
	ResultsTimeout    time.Duration `json:"results_timeout"`
	Screenshots       bool          `json:"screenshots"`
	TempDir           string        `json:"temp_dir"`
	Selectors         Selectors     `json:"selectors"`
}

// Selectors locate the form elements on the search page.
// Selectors starting with "/" are treated as XPath. Results and Empty are
// waited on as one CSS selector group and must be CSS.
type Selectors struct {
	CaptchaImage string `json:"captcha_image"`
	CaptchaInput string `json:"captcha_input"`
	Submit       string `json:"submit"`
	Results      string `json:"results"`
	Empty        string `json:"empty"`
}

func (Selectors) isXPath(selector string) bool {
	return strings.HasPrefix(strings.TrimSpace(selector), "/")
}

// EmptyResultPolicy decides how the facade treats a successful lookup with no rows
type EmptyResultPolicy string

const (
	// EmptyAsError reports an empty table as an unavailable upstream
	EmptyAsError EmptyResultPolicy = "error"
	// EmptyAsResult returns the empty list to the caller
	EmptyAsResult EmptyResultPolicy = "empty"
)

// FSSPConfig holds the search URL templates and result policy
type FSSPConfig struct {
	IPURLTemplate     string            `json:"ip_url_template"`
	PersonURLTemplate string            `json:"person_url_template"`
	INNURLTemplate    string            `json:"inn_url_template"`
	EmptyResultPolicy EmptyResultPolicy `json:"empty_result_policy"`
}

// BatchConfig sizes the batch search worker pool
type BatchConfig struct {
	Workers   int `json:"workers"`
	QueueSize int `json:"queue_size"`
	MaxItems  int `json:"max_items"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file,omitempty"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit"`
	CORS      CORSConfig      `json:"cors"`
	AdminKey  string          `json:"-"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute"`
	BurstSize         int           `json:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
}

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	defaultIPURL     = "https://fssp.gov.ru/iss/ip/?is%5Bvariant%5D=3&is%5Bip_number%5D={ip_number}"
	defaultPersonURL = "https://fssp.gov.ru/iss/ip/?is%5Bvariant%5D=1&is%5Blast_name%5D={last_name}&is%5Bfirst_name%5D={first_name}&is%5Bpatronymic%5D={patronymic}&is%5Bdate%5D={birthday}&is%5Bregion_id%5D%5B0%5D={region_id}"
	defaultINNURL    = "https://fssp.gov.ru/iss/ip/?is%5Bvariant%5D=5&is%5Binn%5D={inn}"
)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	navigationTimeout := getEnvAsDuration("BROWSER_NAVIGATION_TIMEOUT", 60*time.Second)

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("HOST", "0.0.0.0"),
			Port:         getEnvAsInt("PORT", 8000),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 180*time.Second),
			IdleTimeout:  getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			PoolSize: getEnvAsInt("REDIS_POOL_SIZE", 10),
			CacheTTL: getEnvAsDuration("CACHE_TTL", 30*time.Minute),
		},
		Captcha: CaptchaConfig{
			APIKey:       getEnv("RUCAPTCHA_API_KEY", getEnv("RUCAPTCH_API_KEY", "")),
			BaseURL:      getEnv("CAPTCHA_BASE_URL", "https://rucaptcha.com"),
			PollInterval: getEnvAsDuration("CAPTCHA_POLL_INTERVAL", 5*time.Second),
			Timeout:      getEnvAsDuration("CAPTCHA_TIMEOUT", 120*time.Second),
			RateLimit:    getEnvAsFloat("CAPTCHA_RATE_LIMIT", 1),
			MaxAttempts:  getEnvAsInt("CAPTCHA_MAX_ATTEMPTS", 1),
		},
		Browser: BrowserConfig{
			Headless:          getEnvAsBool("BROWSER_HEADLESS", true),
			UserAgent:         getEnv("BROWSER_USER_AGENT", defaultUserAgent),
			ExecPath:          getEnv("BROWSER_EXEC_PATH", ""),
			MaxSessions:       getEnvAsInt("BROWSER_MAX_SESSIONS", 3),
			NavigationTimeout: navigationTimeout,
			CaptchaTimeout:    getEnvAsDuration("BROWSER_CAPTCHA_TIMEOUT", navigationTimeout),
			ResultsTimeout:    getEnvAsDuration("BROWSER_RESULTS_TIMEOUT", 5*time.Second),
			Screenshots:       getEnvAsBool("BROWSER_SCREENSHOTS", false),
			TempDir:           getEnv("BROWSER_TEMP_DIR", filepath.Join(os.TempDir(), "fssp")),
			Selectors: Selectors{
				CaptchaImage: getEnv("SELECTOR_CAPTCHA_IMAGE", "img#capchaVisualImage"),
				CaptchaInput: getEnv("SELECTOR_CAPTCHA_INPUT", "#captcha-popup-code"),
				Submit:       getEnv("SELECTOR_SUBMIT", "//button[normalize-space()='Отправить']"),
				Results:      getEnv("SELECTOR_RESULTS", ".results"),
				Empty:        getEnv("SELECTOR_EMPTY", ".results .empty"),
			},
		},
		FSSP: FSSPConfig{
			IPURLTemplate:     getEnv("FSSP_IP_URL", defaultIPURL),
			PersonURLTemplate: getEnv("FSSP_PERSON_URL", defaultPersonURL),
			INNURLTemplate:    getEnv("FSSP_INN_URL", defaultINNURL),
			EmptyResultPolicy: EmptyResultPolicy(getEnv("FSSP_EMPTY_RESULT_POLICY", string(EmptyAsError))),
		},
		Batch: BatchConfig{
			Workers:   getEnvAsInt("BATCH_WORKERS", getEnvAsInt("BROWSER_MAX_SESSIONS", 3)),
			QueueSize: getEnvAsInt("BATCH_QUEUE_SIZE", 100),
			MaxItems:  getEnvAsInt("BATCH_MAX_ITEMS", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 30),
				BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 5),
				CleanupInterval:   getEnvAsDuration("RATE_LIMIT_CLEANUP", time.Minute),
			},
			CORS: CORSConfig{
				AllowedOrigins:   getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
				AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-Admin-Key"},
				AllowCredentials: false,
			},
			AdminKey: getEnv("ADMIN_API_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks invariants that must hold before any browser work starts
func (c *Config) Validate() error {
	if c.Captcha.APIKey == "" {
		return fmt.Errorf("RUCAPTCHA_API_KEY is required")
	}
	if c.Captcha.MaxAttempts < 1 {
		return fmt.Errorf("CAPTCHA_MAX_ATTEMPTS must be at least 1, got %d", c.Captcha.MaxAttempts)
	}
	if c.Browser.MaxSessions < 1 {
		return fmt.Errorf("BROWSER_MAX_SESSIONS must be at least 1, got %d", c.Browser.MaxSessions)
	}
	if c.Batch.Workers < 1 || c.Batch.MaxItems < 1 {
		return fmt.Errorf("BATCH_WORKERS and BATCH_MAX_ITEMS must be at least 1")
	}
	// results and empty markers are combined into a selector group
	if c.Browser.Selectors.isXPath(c.Browser.Selectors.Results) || c.Browser.Selectors.isXPath(c.Browser.Selectors.Empty) {
		return fmt.Errorf("SELECTOR_RESULTS and SELECTOR_EMPTY must be CSS selectors")
	}
	switch c.FSSP.EmptyResultPolicy {
	case EmptyAsError, EmptyAsResult:
	default:
		return fmt.Errorf("unknown FSSP_EMPTY_RESULT_POLICY %q", c.FSSP.EmptyResultPolicy)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or plain milliseconds ("5000")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
