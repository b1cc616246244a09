// Package config provides functionality for managing configuration options
// for the server using command-line flags, an optional config file and
// environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment variable read by Parse. Each field
// also accepts its unprefixed name (SERVER_ADDRESS, DEPLOY_TARGET, ...).
const EnvPrefix = "HALOLIGHT"

// Deploy targets understood by the server.
const (
	DeployCloudflare = "cloudflare"
	DeployVercel     = "vercel"
)

// Duration is a time.Duration that reads "1200ms"-style strings from
// flags, config files and the environment.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Options holds the configuration values for the server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port" yaml:"port" toml:"port" envconfig:"SERVER_ADDRESS"`

	// DatabaseDSN selects the PostgreSQL user/session repositories when set.
	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn" toml:"database_dsn" envconfig:"DATABASE_DSN"`

	// RedisURL selects the Redis session store when set.
	RedisURL string `json:"redis_url" yaml:"redis_url" toml:"redis_url" envconfig:"REDIS_URL"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert" yaml:"tls_cert" toml:"tls_cert" envconfig:"TLS_CERT"`
	TLSKey  string `json:"tls_key" yaml:"tls_key" toml:"tls_key" envconfig:"TLS_KEY"`

	// DevTLS generates a development CA and server certificate into
	// CertsDir when TLSCert/TLSKey are not set.
	DevTLS   bool   `json:"dev_tls" yaml:"dev_tls" toml:"dev_tls" envconfig:"DEV_TLS"`
	CertsDir string `json:"certs_dir" yaml:"certs_dir" toml:"certs_dir" envconfig:"CERTS_DIR"`

	// DeployTarget names the hosting adapter ("cloudflare" or "vercel").
	DeployTarget string `json:"deploy_target" yaml:"deploy_target" toml:"deploy_target" envconfig:"DEPLOY_TARGET"`

	// APIBackendURL, when set, proxies /api to a real backend instead of
	// serving the mock handlers.
	APIBackendURL string `json:"api_backend_url" yaml:"api_backend_url" toml:"api_backend_url" envconfig:"API_BACKEND_URL"`

	// SessionTTL is how long an issued token resolves on /api/auth/me.
	SessionTTL Duration `json:"session_ttl" yaml:"session_ttl" toml:"session_ttl" envconfig:"SESSION_TTL"`

	// SocialLoginDelay simulates the OAuth round trip.
	SocialLoginDelay Duration `json:"social_login_delay" yaml:"social_login_delay" toml:"social_login_delay" envconfig:"SOCIAL_LOGIN_DELAY"`

	// RateLimitRPS and RateLimitBurst bound /api/auth requests per client IP.
	// A zero RPS disables limiting.
	RateLimitRPS   float64 `json:"rate_limit_rps" yaml:"rate_limit_rps" toml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `json:"rate_limit_burst" yaml:"rate_limit_burst" toml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`

	// LogLevel is passed to logger.Init.
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level" envconfig:"LOG_LEVEL"`

	// Config is the path to the Config file.
	Config string `json:"-" yaml:"-" toml:"-" ignored:"true"`
}

// Default returns the built-in configuration.
func Default() *Options {
	return &Options{
		Port:             "localhost:8080",
		CertsDir:         "certs",
		DeployTarget:     DeployCloudflare,
		SessionTTL:       Duration(7 * 24 * time.Hour),
		SocialLoginDelay: Duration(1200 * time.Millisecond),
		RateLimitRPS:     10,
		RateLimitBurst:   20,
		LogLevel:         "Info",
		Config:           "config.json",
	}
}

// Parse parses the command-line flags, the config file and environment
// variables. It exits the process on invalid input.
func Parse() *Options {
	opts, err := Load(os.Args[1:])
	if err != nil {
		log.Fatalf("error while loading config: %v", err)
	}
	return opts
}

// Load builds Options from args, then the config file, then the
// environment. Later sources override earlier ones.
func Load(args []string) (*Options, error) {
	opts := Default()

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&opts.Port, "a", opts.Port, "run on ip:port server")
	fs.StringVar(&opts.DatabaseDSN, "d", opts.DatabaseDSN, "db address")
	fs.StringVar(&opts.RedisURL, "r", opts.RedisURL, "redis url for the session store")
	fs.StringVar(&opts.TLSCert, "tls-cert", opts.TLSCert, "path to server certificate")
	fs.StringVar(&opts.TLSKey, "tls-key", opts.TLSKey, "path to server private key")
	fs.BoolVar(&opts.DevTLS, "dev-tls", opts.DevTLS, "generate a development certificate")
	fs.StringVar(&opts.DeployTarget, "deploy-target", opts.DeployTarget, "deploy target (cloudflare|vercel)")
	fs.StringVar(&opts.APIBackendURL, "api-backend", opts.APIBackendURL, "proxy /api to this backend")
	fs.TextVar(&opts.SessionTTL, "session-ttl", opts.SessionTTL, "issued token lifetime")
	fs.TextVar(&opts.SocialLoginDelay, "social-delay", opts.SocialLoginDelay, "simulated social login delay")
	fs.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "log level")
	fs.StringVar(&opts.Config, "config", opts.Config, "path to config file")
	fs.StringVar(&opts.Config, "c", opts.Config, "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		opts.Config = configPath
	}

	if opts.Config != "" {
		if _, err := os.Stat(opts.Config); err == nil {
			if err := readFile(opts.Config, opts); err != nil {
				return nil, err
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, opts); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func readFile(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, opts)
	case ".toml":
		err = toml.Unmarshal(data, opts)
	default:
		err = json.Unmarshal(data, opts)
	}
	if err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func (o *Options) validate() error {
	switch o.DeployTarget {
	case DeployCloudflare, DeployVercel:
	default:
		return fmt.Errorf("unknown deploy target %q", o.DeployTarget)
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return fmt.Errorf("tls cert and key must be set together")
	}
	if o.RateLimitRPS < 0 || o.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	return nil
}

// TLSEnabled reports whether the server listens with HTTPS.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" || o.DevTLS
}
