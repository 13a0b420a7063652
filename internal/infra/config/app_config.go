// Package config loads gateway configuration from YAML with environment overrides.
package config

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/coachpo/kalshi-gateway/errs"
)

// EnvPrefix prefixes every environment override, e.g. KALSHI_KEY_ID.
const EnvPrefix = "KALSHI"

// AppConfig is the root gateway configuration.
type AppConfig struct {
	Environment EnvironmentConfig `yaml:"environment"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Stream      StreamConfig      `yaml:"stream"`
	REST        RESTConfig        `yaml:"rest"`
	Orderbook   OrderbookConfig   `yaml:"orderbook"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// EnvironmentConfig selects the venue endpoints.
type EnvironmentConfig struct {
	// Name is demo, production or custom.
	Name       Environment `yaml:"name"`
	RESTOrigin string      `yaml:"restOrigin"`
	WSURL      string      `yaml:"wsURL"`
}

// CredentialsConfig holds the API key id and its RSA private key, inline or on disk.
type CredentialsConfig struct {
	KeyID          string `yaml:"keyID"`
	PrivateKey     string `yaml:"privateKey"`
	PrivateKeyPath string `yaml:"privateKeyPath"`
}

// Configured reports whether a key id was supplied.
func (c CredentialsConfig) Configured() bool {
	return c.KeyID != ""
}

// StreamConfig configures the streaming manager.
type StreamConfig struct {
	Mode             string               `yaml:"mode"`
	HandshakeTimeout time.Duration        `yaml:"handshakeTimeout"`
	WriteTimeout     time.Duration        `yaml:"writeTimeout"`
	ReadLimit        int64                `yaml:"readLimit"`
	Reconnect        ReconnectConfig      `yaml:"reconnect"`
	Subscriptions    []SubscriptionConfig `yaml:"subscriptions"`
}

// ReconnectConfig mirrors the streaming reconnect policy.
type ReconnectConfig struct {
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
	MaxAttempts  int           `yaml:"maxAttempts"`
	Jitter       float64       `yaml:"jitter"`
}

// SubscriptionConfig describes one subscription opened at startup.
type SubscriptionConfig struct {
	Channels      []string `yaml:"channels"`
	MarketTickers []string `yaml:"marketTickers"`
	EventTickers  []string `yaml:"eventTickers"`
}

// RESTConfig configures the REST client.
type RESTConfig struct {
	ReadRPS        float64       `yaml:"readRPS"`
	WriteRPS       float64       `yaml:"writeRPS"`
	Timeout        time.Duration `yaml:"timeout"`
	SeriesCacheTTL time.Duration `yaml:"seriesCacheTTL"`
}

// OrderbookConfig bounds the local order books.
type OrderbookConfig struct {
	// Depth caps levels reported per side. Zero keeps every level.
	Depth int `yaml:"depth"`
}

// TelemetryConfig configures OpenTelemetry metric export.
type TelemetryConfig struct {
	OTLPEndpoint  string `yaml:"otlpEndpoint"`
	ServiceName   string `yaml:"serviceName"`
	OTLPInsecure  bool   `yaml:"otlpInsecure"`
	EnableMetrics bool   `yaml:"enableMetrics"`
}

type envOverrides struct {
	Env            string `envconfig:"ENV"`
	RESTOrigin     string `envconfig:"REST_ORIGIN"`
	WSURL          string `envconfig:"WS_URL"`
	KeyID          string `envconfig:"KEY_ID"`
	PrivateKey     string `envconfig:"PRIVATE_KEY"`
	PrivateKeyPath string `envconfig:"PRIVATE_KEY_PATH"`
	OTLPEndpoint   string `envconfig:"OTLP_ENDPOINT"`
}

// Default returns the configuration used when no file is supplied.
func Default() AppConfig {
	return AppConfig{
		Environment: EnvironmentConfig{Name: EnvDemo},
		Credentials: CredentialsConfig{},
		Stream: StreamConfig{
			Mode:             "owned",
			HandshakeTimeout: 10 * time.Second,
			WriteTimeout:     10 * time.Second,
			ReadLimit:        1 << 20,
			Reconnect: ReconnectConfig{
				InitialDelay: time.Second,
				MaxDelay:     30 * time.Second,
			},
		},
		REST: RESTConfig{
			ReadRPS:        20,
			WriteRPS:       10,
			Timeout:        15 * time.Second,
			SeriesCacheTTL: 5 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4318",
			ServiceName:  "kalshi-gateway",
			OTLPInsecure: true,
		},
	}
}

// Load reads the YAML file at path, applies environment overrides and validates the result.
func Load(ctx context.Context, path string) (AppConfig, error) {
	_ = ctx

	reader, err := openConfigFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	defer func() {
		_ = reader.Close()
	}()

	bytes, err := io.ReadAll(reader)
	if err != nil {
		return AppConfig{}, configError(fmt.Sprintf("read config %s", path), err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(bytes, &cfg); err != nil {
		return AppConfig{}, configError(fmt.Sprintf("unmarshal config %s", path), err)
	}
	return finish(cfg)
}

// LoadOrDefault behaves like Load when path is set and otherwise starts from Default.
func LoadOrDefault(ctx context.Context, path string) (AppConfig, error) {
	if strings.TrimSpace(path) == "" {
		return finish(Default())
	}
	return Load(ctx, path)
}

func finish(cfg AppConfig) (AppConfig, error) {
	if err := cfg.applyEnv(); err != nil {
		return AppConfig{}, err
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return configError("read environment overrides", err)
	}
	if env.Env != "" {
		c.Environment.Name = Environment(env.Env)
	}
	if env.RESTOrigin != "" {
		c.Environment.RESTOrigin = env.RESTOrigin
	}
	if env.WSURL != "" {
		c.Environment.WSURL = env.WSURL
	}
	if env.KeyID != "" {
		c.Credentials.KeyID = env.KeyID
	}
	if env.PrivateKey != "" {
		// Single-line env values carry escaped newlines.
		c.Credentials.PrivateKey = strings.ReplaceAll(env.PrivateKey, `\n`, "\n")
	}
	if env.PrivateKeyPath != "" {
		c.Credentials.PrivateKeyPath = env.PrivateKeyPath
	}
	if env.OTLPEndpoint != "" {
		c.Telemetry.OTLPEndpoint = env.OTLPEndpoint
		c.Telemetry.EnableMetrics = true
	}
	return nil
}

func (c *AppConfig) normalise() {
	c.Environment.Name = c.Environment.Name.Normalize()
	c.Environment.RESTOrigin = strings.TrimRight(strings.TrimSpace(c.Environment.RESTOrigin), "/")
	c.Environment.WSURL = strings.TrimSpace(c.Environment.WSURL)

	c.Credentials.KeyID = strings.TrimSpace(c.Credentials.KeyID)
	c.Credentials.PrivateKeyPath = strings.TrimSpace(c.Credentials.PrivateKeyPath)

	c.Stream.Mode = strings.ToLower(strings.TrimSpace(c.Stream.Mode))
	if c.Stream.Mode == "" {
		c.Stream.Mode = "owned"
	}
	for i := range c.Stream.Subscriptions {
		sub := &c.Stream.Subscriptions[i]
		sub.Channels = trimAll(sub.Channels, strings.ToLower)
		sub.MarketTickers = trimAll(sub.MarketTickers, strings.ToUpper)
		sub.EventTickers = trimAll(sub.EventTickers, strings.ToUpper)
	}

	c.Telemetry.OTLPEndpoint = strings.TrimSpace(c.Telemetry.OTLPEndpoint)
	c.Telemetry.ServiceName = strings.TrimSpace(c.Telemetry.ServiceName)
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "kalshi-gateway"
	}
}

// Validate reports the first configuration problem found.
func (c AppConfig) Validate() error {
	switch c.Environment.Name {
	case EnvDemo, EnvProduction:
	case EnvCustom:
		if err := validateURL("environment.restOrigin", c.Environment.RESTOrigin, "http", "https"); err != nil {
			return err
		}
		if err := validateURL("environment.wsURL", c.Environment.WSURL, "ws", "wss"); err != nil {
			return err
		}
	default:
		return configError(fmt.Sprintf("environment.name %q must be demo, production or custom", c.Environment.Name), nil)
	}

	creds := c.Credentials
	if creds.PrivateKey != "" && creds.PrivateKeyPath != "" {
		return configError("credentials.privateKey and credentials.privateKeyPath are mutually exclusive", nil)
	}
	hasKey := creds.PrivateKey != "" || creds.PrivateKeyPath != ""
	if creds.KeyID != "" && !hasKey {
		return configError("credentials.keyID requires privateKey or privateKeyPath", nil)
	}
	if creds.KeyID == "" && hasKey {
		return configError("credentials private key supplied without keyID", nil)
	}

	if c.Stream.Mode != "owned" && c.Stream.Mode != "borrowed" {
		return configError(fmt.Sprintf("stream.mode %q must be owned or borrowed", c.Stream.Mode), nil)
	}
	if c.Stream.ReadLimit < 0 {
		return configError("stream.readLimit must be >= 0", nil)
	}
	r := c.Stream.Reconnect
	if r.InitialDelay < 0 || r.MaxDelay < 0 {
		return configError("stream.reconnect delays must be >= 0", nil)
	}
	if r.MaxAttempts < 0 {
		return configError("stream.reconnect.maxAttempts must be >= 0", nil)
	}
	if r.Jitter < 0 || r.Jitter > 1 {
		return configError("stream.reconnect.jitter must be within [0, 1]", nil)
	}
	for i, sub := range c.Stream.Subscriptions {
		if len(sub.Channels) == 0 {
			return configError(fmt.Sprintf("stream.subscriptions[%d] requires at least one channel", i), nil)
		}
	}

	if c.REST.ReadRPS < 0 || c.REST.WriteRPS < 0 {
		return configError("rest rate limits must be >= 0", nil)
	}
	if c.REST.Timeout < 0 || c.REST.SeriesCacheTTL < 0 {
		return configError("rest durations must be >= 0", nil)
	}
	if c.Orderbook.Depth < 0 {
		return configError("orderbook.depth must be >= 0", nil)
	}
	if c.Telemetry.EnableMetrics && c.Telemetry.OTLPEndpoint == "" {
		return configError("telemetry.otlpEndpoint required when metrics are enabled", nil)
	}
	return nil
}

func validateURL(field, raw string, schemes ...string) error {
	if raw == "" {
		return configError(field+" required for custom environment", nil)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return configError(field+" is not a valid URL", err)
	}
	for _, s := range schemes {
		if strings.EqualFold(u.Scheme, s) && u.Host != "" {
			return nil
		}
	}
	return configError(fmt.Sprintf("%s must use %s", field, strings.Join(schemes, " or ")), nil)
}

func trimAll(values []string, fold func(string) string) []string {
	out := values[:0]
	for _, v := range values {
		v = fold(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func configError(message string, cause error) error {
	opts := []errs.Option{errs.WithMessage(message)}
	if cause != nil {
		opts = append(opts, errs.WithCause(cause))
	}
	return errs.Kalshi(errs.CodeConfig, opts...)
}

func openConfigFile(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, configError("config path required", nil)
	}
	cleaned := filepath.Clean(trimmed)
	// #nosec G304 -- path is operator controlled.
	file, err := os.Open(cleaned)
	if err != nil {
		return nil, configError(fmt.Sprintf("open config %s", cleaned), err)
	}
	return file, nil
}
