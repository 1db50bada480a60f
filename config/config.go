package config

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	apperrors "sjsage522/aptwatcher/pkg/errors"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Config represents the application configuration.
// It is built once at startup and passed by value into every component.
type Config struct {
	// Listing page
	ListingURL            string            `yaml:"listing_url" env:"LISTING_URL"`
	UserAgent             string            `yaml:"user_agent" env:"USER_AGENT"`
	RequestHeaders        map[string]string `yaml:"request_headers" env:"REQUEST_HEADERS" envKeyValSeparator:":"`
	CACertPath            string            `yaml:"ca_cert_path" env:"CA_CERT_PATH"`
	RequestTimeoutSeconds int               `yaml:"request_timeout_seconds" env:"REQUEST_TIMEOUT_SECONDS"`

	// Filtering
	MinSqFeet int `yaml:"min_sq_feet" env:"MIN_SQ_FEET"`

	// Scheduling
	CheckIntervalSeconds int `yaml:"check_interval_seconds" env:"CHECK_INTERVAL_SECONDS"`
	WindowStartHour      int `yaml:"window_start_hour" env:"WINDOW_START_HOUR"`
	WindowEndHour        int `yaml:"window_end_hour" env:"WINDOW_END_HOUR"`

	// Notification
	SenderEmail        string   `yaml:"sender_email" env:"SENDER_EMAIL"`
	SenderPasswordFile string   `yaml:"sender_password_file" env:"SENDER_PASSWORD_FILE"`
	Recipients         []string `yaml:"recipients" env:"RECIPIENTS" envSeparator:","`
	SMTPHost           string   `yaml:"smtp_host" env:"SMTP_HOST"`
	SMTPPort           int      `yaml:"smtp_port" env:"SMTP_PORT"`

	// Persisted seen ids
	StateFile string `yaml:"state_file" env:"STATE_FILE"`

	// Memcache configuration, empty address disables the fetch block cache
	MemcacheAddr      string `yaml:"memcache_addr" env:"MEMCACHE_ADDR"`
	FetchBlockSeconds int    `yaml:"fetch_block_seconds" env:"FETCH_BLOCK_SECONDS"`

	// Redis configuration, empty address disables the event stream
	RedisAddr            string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisDB              int    `yaml:"redis_db" env:"REDIS_DB"`
	RedisStream          string `yaml:"redis_stream" env:"REDIS_STREAM"`
	RedisStreamMaxLength int    `yaml:"redis_stream_max_length" env:"REDIS_STREAM_MAX_LENGTH"`

	ErrorLogFile string `yaml:"error_log_file" env:"ERROR_LOG_FILE"`

	// Environment
	Environment string `yaml:"environment" env:"APP_ENVIRONMENT"`
}

// Default returns the configuration used when nothing overrides a field
func Default() Config {
	return Config{
		UserAgent:             defaultUserAgent,
		RequestTimeoutSeconds: 30,
		MinSqFeet:             750,
		CheckIntervalSeconds:  3600,
		WindowStartHour:       5,
		WindowEndHour:         22,
		SenderPasswordFile:    "pf.txt",
		SMTPHost:              "smtp.gmail.com",
		SMTPPort:              587,
		StateFile:             "previous.ids.json",
		FetchBlockSeconds:     600,
		RedisStream:           "listings:new",
		RedisStreamMaxLength:  1000,
		ErrorLogFile:          "error.log",
		Environment:           "development",
	}
}

// LoadConfig loads the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func LoadConfig() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, apperrors.NewConfiguration("parse env", err)
	}

	cfg.Recipients = cleanList(cfg.Recipients)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewConfiguration(fmt.Sprintf("read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return apperrors.NewConfiguration(fmt.Sprintf("decode config file %s", path), err)
	}
	return nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks that the configuration can drive a cycle
func (c Config) Validate() error {
	if c.ListingURL == "" {
		return apperrors.NewConfiguration("LISTING_URL is required", nil)
	}
	u, err := url.Parse(c.ListingURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.NewConfiguration(fmt.Sprintf("LISTING_URL %q is not an http(s) URL", c.ListingURL), err)
	}
	if c.MinSqFeet < 0 {
		return apperrors.NewConfiguration("MIN_SQ_FEET must not be negative", nil)
	}
	if c.CheckIntervalSeconds <= 0 {
		return apperrors.NewConfiguration("CHECK_INTERVAL_SECONDS must be positive", nil)
	}
	if c.RequestTimeoutSeconds <= 0 {
		return apperrors.NewConfiguration("REQUEST_TIMEOUT_SECONDS must be positive", nil)
	}
	if !validHour(c.WindowStartHour) || !validHour(c.WindowEndHour) {
		return apperrors.NewConfiguration("window hours must be within 0..24", nil)
	}
	if c.WindowStartHour == c.WindowEndHour {
		return apperrors.NewConfiguration("window start and end hour must differ", nil)
	}
	if c.SenderEmail == "" {
		return apperrors.NewConfiguration("SENDER_EMAIL is required", nil)
	}
	if len(c.Recipients) == 0 {
		return apperrors.NewConfiguration("RECIPIENTS must name at least one address", nil)
	}
	if c.StateFile == "" {
		return apperrors.NewConfiguration("STATE_FILE is required", nil)
	}
	return nil
}

func validHour(h int) bool {
	return h >= 0 && h <= 24
}

// CheckInterval returns the pause between cycles
func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// RequestTimeout returns the HTTP client timeout
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// FetchBlockTime returns how long fetching pauses after the site rate limits us
func (c Config) FetchBlockTime() time.Duration {
	return time.Duration(c.FetchBlockSeconds) * time.Second
}

// Headers returns the request headers with canonical keys. USER_AGENT
// replaces any User-Agent given in REQUEST_HEADERS.
func (c Config) Headers() map[string]string {
	headers := make(map[string]string, len(c.RequestHeaders)+1)
	for k, v := range c.RequestHeaders {
		headers[http.CanonicalHeaderKey(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	if c.UserAgent != "" {
		headers["User-Agent"] = c.UserAgent
	}
	return headers
}

// SMTPAddr returns host:port of the outgoing mail server
func (c Config) SMTPAddr() string {
	return net.JoinHostPort(c.SMTPHost, strconv.Itoa(c.SMTPPort))
}
