package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultConfigPath is used when neither an explicit path nor FODTEST_CONFIG_PATH is given.
const DefaultConfigPath = "./fodtest.yaml"

// Environment locates the product stage under test.
type Environment struct {
	// Name labels results and traces (e.g. "qa", "staging").
	Name string `yaml:"name"`
	// UIURL is the tenant portal base URL.
	UIURL string `yaml:"uiURL"`
	// AdminURL is the admin (TAM) portal base URL. Defaults to UIURL + "/Admin".
	AdminURL string `yaml:"adminURL"`
	// APIURL is the REST API base URL.
	APIURL string `yaml:"apiURL"`
}

type Credentials struct {
	AdminUser      string `yaml:"adminUser"`
	AdminPassword  string `yaml:"adminPassword"`
	TAMUser        string `yaml:"tamUser"`
	TAMPassword    string `yaml:"tamPassword"`
	TenantCode     string `yaml:"tenantCode"`
	TenantUser     string `yaml:"tenantUser"`
	TenantPassword string `yaml:"tenantPassword"`
	// APIKey/APISecret authenticate the REST client with the client-credentials grant.
	APIKey    string `yaml:"apiKey"`
	APISecret string `yaml:"apiSecret"`
}

type Browser struct {
	Headless      bool   `yaml:"headless"`
	WindowWidth   int    `yaml:"windowWidth"`
	WindowHeight  int    `yaml:"windowHeight"`
	DownloadDir   string `yaml:"downloadDir"`
	ScreenshotDir string `yaml:"screenshotDir"`
	// Timeout bounds a single browser action (e.g. "30s").
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"userAgent"`
	// ExecPath points at a specific Chrome binary; empty uses chromedp's lookup.
	ExecPath string `yaml:"execPath"`
}

type Waits struct {
	Timeout      string `yaml:"timeout"`
	PollInterval string `yaml:"pollInterval"`
}

type Retry struct {
	// MaxRetryCount is applied to scenarios that do not declare their own.
	MaxRetryCount int `yaml:"maxRetryCount"`
}

type API struct {
	Timeout            string  `yaml:"timeout"`
	Rate               float64 `yaml:"rate"`
	Burst              int     `yaml:"burst"`
	InsecureSkipVerify bool    `yaml:"insecureSkipVerify"`
	MaxRetries         int     `yaml:"maxRetries"`
	InitialBackoff     string  `yaml:"initialBackoff"`
	MaxBackoff         string  `yaml:"maxBackoff"`
}

type Database struct {
	// Driver is "postgres" or "sqlite3". Empty disables product database lookups.
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type SSO struct {
	Issuer       string   `yaml:"issuer"`
	ClientID     string   `yaml:"clientID"`
	ClientSecret string   `yaml:"clientSecret"`
	Scopes       []string `yaml:"scopes"`
	JWKSURL      string   `yaml:"jwksURL"`

	KeycloakURL           string `yaml:"keycloakURL"`
	KeycloakRealm         string `yaml:"keycloakRealm"`
	KeycloakAdminRealm    string `yaml:"keycloakAdminRealm"`
	KeycloakAdminUser     string `yaml:"keycloakAdminUser"`
	KeycloakAdminPassword string `yaml:"keycloakAdminPassword"`
}

type WebhookSink struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Timeout string            `yaml:"timeout"`
}

type KafkaSink struct {
	Brokers            []string `yaml:"brokers"`
	Topic              string   `yaml:"topic"`
	TLS                bool     `yaml:"tls"`
	CAFile             string   `yaml:"caFile"`
	InsecureSkipVerify bool     `yaml:"insecureSkipVerify"`
	SASLMechanism      string   `yaml:"saslMechanism"`
	SASLUsername       string   `yaml:"saslUsername"`
	SASLPassword       string   `yaml:"saslPassword"`
	Compression        string   `yaml:"compression"`
}

type Results struct {
	// Log writes every result event to the process logger.
	Log     bool         `yaml:"log"`
	Webhook *WebhookSink `yaml:"webhook"`
	Kafka   *KafkaSink   `yaml:"kafka"`
}

type Mail struct {
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	User               string   `yaml:"user"`
	Password           string   `yaml:"password"`
	SenderAddress      string   `yaml:"senderAddress"`
	SenderName         string   `yaml:"senderName"`
	InsecureSkipVerify bool     `yaml:"insecureSkipVerify"`
	Receivers          []string `yaml:"receivers"`
	RetryCount         int      `yaml:"retryCount"`
	RetryBackoff       string   `yaml:"retryBackoff"`
}

type Metrics struct {
	PushGateway string `yaml:"pushGateway"`
	Job         string `yaml:"job"`
}

type Telemetry struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SamplingRate float64 `yaml:"samplingRate"`
}

// Receiver configures the webhook receiver the product delivers to during WebHooks scenarios.
type Receiver struct {
	ListenAddress string `yaml:"listenAddress"`
	// PublicURL is the address the product can reach the receiver on.
	PublicURL string  `yaml:"publicURL"`
	Rate      float64 `yaml:"rate"`
	Burst     int     `yaml:"burst"`
	// ArtifactsDir is served under /artifacts, e.g. the browser download directory.
	ArtifactsDir string `yaml:"artifactsDir"`
	// AllowOrigins enables CORS on the deliveries API for these origins.
	AllowOrigins []string `yaml:"allowOrigins"`
}

type Runner struct {
	Parallel   int      `yaml:"parallel"`
	Groups     []string `yaml:"groups"`
	ReportPath string   `yaml:"reportPath"`
}

type Config struct {
	Environment Environment `yaml:"environment"`
	Credentials Credentials `yaml:"credentials"`
	Browser     Browser     `yaml:"browser"`
	Waits       Waits       `yaml:"waits"`
	Retry       Retry       `yaml:"retry"`
	API         API         `yaml:"api"`
	Database    Database    `yaml:"database"`
	SSO         SSO         `yaml:"sso"`
	Results     Results     `yaml:"results"`
	Mail        Mail        `yaml:"mail"`
	Metrics     Metrics     `yaml:"metrics"`
	Telemetry   Telemetry   `yaml:"telemetry"`
	Receiver    Receiver    `yaml:"receiver"`
	Runner      Runner      `yaml:"runner"`
}

// DefaultPath returns FODTEST_CONFIG_PATH if set, otherwise DefaultConfigPath.
func DefaultPath() string {
	if p := os.Getenv("FODTEST_CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultConfigPath
}

// Load reads the configuration file, fills defaults and applies FOD_* environment
// overrides. If no path is given and the default file does not exist, the
// configuration is built from defaults and environment alone.
func Load(configPath ...string) (Config, error) {
	var cfg Config

	path := ""
	explicit := false
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
		explicit = true
	} else {
		path = DefaultPath()
		explicit = os.Getenv("FODTEST_CONFIG_PATH") != ""
	}

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("error unmarshaling YAML %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("trying to open fodtest config file %s: %w", path, err)
	}

	cfg.Defaults()
	cfg.ApplyEnv()
	return cfg, nil
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.Environment.Name == "" {
		c.Environment.Name = "qa"
	}
	if c.Environment.AdminURL == "" && c.Environment.UIURL != "" {
		c.Environment.AdminURL = strings.TrimRight(c.Environment.UIURL, "/") + "/Admin"
	}
	if c.Browser.WindowWidth == 0 {
		c.Browser.WindowWidth = 1920
	}
	if c.Browser.WindowHeight == 0 {
		c.Browser.WindowHeight = 1080
	}
	if c.Browser.DownloadDir == "" {
		c.Browser.DownloadDir = "downloads"
	}
	if c.Browser.ScreenshotDir == "" {
		c.Browser.ScreenshotDir = "screenshots"
	}
	if c.Browser.Timeout == "" {
		c.Browser.Timeout = "30s"
	}
	if c.Waits.Timeout == "" {
		c.Waits.Timeout = "60s"
	}
	if c.Waits.PollInterval == "" {
		c.Waits.PollInterval = "1s"
	}
	if c.API.Timeout == "" {
		c.API.Timeout = "60s"
	}
	if c.API.Rate == 0 {
		c.API.Rate = 5
	}
	if c.API.Burst == 0 {
		c.API.Burst = 10
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = 3
	}
	if c.API.InitialBackoff == "" {
		c.API.InitialBackoff = "500ms"
	}
	if c.API.MaxBackoff == "" {
		c.API.MaxBackoff = "10s"
	}
	if c.SSO.KeycloakAdminRealm == "" {
		c.SSO.KeycloakAdminRealm = "master"
	}
	if len(c.SSO.Scopes) == 0 {
		c.SSO.Scopes = []string{"openid", "profile", "email"}
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = 25
	}
	if c.Mail.SenderName == "" {
		c.Mail.SenderName = "FoD Regression"
	}
	if c.Mail.RetryCount == 0 {
		c.Mail.RetryCount = 3
	}
	if c.Mail.RetryBackoff == "" {
		c.Mail.RetryBackoff = "2s"
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "fodtest"
	}
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = "otlp"
	}
	if c.Receiver.ListenAddress == "" {
		c.Receiver.ListenAddress = ":8089"
	}
	if c.Runner.Parallel == 0 {
		c.Runner.Parallel = 1
	}
}

// ApplyEnv overrides fields from FOD_* environment variables.
func (c *Config) ApplyEnv() {
	setString(&c.Environment.Name, "FOD_ENVIRONMENT")
	setString(&c.Environment.UIURL, "FOD_UI_URL")
	setString(&c.Environment.AdminURL, "FOD_ADMIN_URL")
	setString(&c.Environment.APIURL, "FOD_API_URL")

	setString(&c.Credentials.AdminUser, "FOD_ADMIN_USER")
	setString(&c.Credentials.AdminPassword, "FOD_ADMIN_PASSWORD")
	setString(&c.Credentials.TAMUser, "FOD_TAM_USER")
	setString(&c.Credentials.TAMPassword, "FOD_TAM_PASSWORD")
	setString(&c.Credentials.TenantCode, "FOD_TENANT_CODE")
	setString(&c.Credentials.TenantUser, "FOD_TENANT_USER")
	setString(&c.Credentials.TenantPassword, "FOD_TENANT_PASSWORD")
	setString(&c.Credentials.APIKey, "FOD_API_KEY")
	setString(&c.Credentials.APISecret, "FOD_API_SECRET")

	setBool(&c.Browser.Headless, "FOD_HEADLESS")
	setString(&c.Browser.DownloadDir, "FOD_DOWNLOAD_DIR")
	setString(&c.Browser.ExecPath, "FOD_CHROME_PATH")

	setString(&c.Waits.Timeout, "FOD_WAIT_TIMEOUT")
	setInt(&c.Retry.MaxRetryCount, "FOD_MAX_RETRY_COUNT")

	setString(&c.Database.Driver, "FOD_DB_DRIVER")
	setString(&c.Database.DSN, "FOD_DB_DSN")

	setString(&c.SSO.Issuer, "FOD_SSO_ISSUER")
	setString(&c.SSO.ClientID, "FOD_SSO_CLIENT_ID")
	setString(&c.SSO.ClientSecret, "FOD_SSO_CLIENT_SECRET")
	setString(&c.SSO.KeycloakURL, "FOD_KEYCLOAK_URL")
	setString(&c.SSO.KeycloakRealm, "FOD_KEYCLOAK_REALM")
	setString(&c.SSO.KeycloakAdminUser, "FOD_KEYCLOAK_ADMIN_USER")
	setString(&c.SSO.KeycloakAdminPassword, "FOD_KEYCLOAK_ADMIN_PASSWORD")

	setString(&c.Metrics.PushGateway, "FOD_PUSHGATEWAY_URL")
	setString(&c.Receiver.PublicURL, "FOD_RECEIVER_URL")
}

// Validate checks the fields every run needs.
func (c Config) Validate() error {
	var errs []error
	if c.Environment.UIURL == "" {
		errs = append(errs, errors.New("environment.uiURL is required"))
	} else if err := checkURL(c.Environment.UIURL); err != nil {
		errs = append(errs, fmt.Errorf("environment.uiURL: %w", err))
	}
	if c.Environment.APIURL != "" {
		if err := checkURL(c.Environment.APIURL); err != nil {
			errs = append(errs, fmt.Errorf("environment.apiURL: %w", err))
		}
	}
	if c.Retry.MaxRetryCount < 0 {
		errs = append(errs, fmt.Errorf("retry.maxRetryCount must be >= 0, got %d", c.Retry.MaxRetryCount))
	}
	if c.Runner.Parallel < 1 {
		errs = append(errs, fmt.Errorf("runner.parallel must be >= 1, got %d", c.Runner.Parallel))
	}
	switch c.Database.Driver {
	case "", "postgres", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported (postgres, sqlite3)", c.Database.Driver))
	}
	switch c.Telemetry.Exporter {
	case "", "otlp", "stdout", "none":
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter %q is not supported (otlp, stdout, none)", c.Telemetry.Exporter))
	}
	for name, v := range map[string]string{
		"browser.timeout":    c.Browser.Timeout,
		"waits.timeout":      c.Waits.Timeout,
		"waits.pollInterval": c.Waits.PollInterval,
		"api.timeout":        c.API.Timeout,
		"api.initialBackoff": c.API.InitialBackoff,
		"api.maxBackoff":     c.API.MaxBackoff,
		"mail.retryBackoff":  c.Mail.RetryBackoff,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

const redacted = "********"

// Redacted returns a copy with passwords and secrets masked.
func (c Config) Redacted() Config {
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	mask(&c.Credentials.AdminPassword)
	mask(&c.Credentials.TAMPassword)
	mask(&c.Credentials.TenantPassword)
	mask(&c.Credentials.APISecret)
	mask(&c.SSO.ClientSecret)
	mask(&c.SSO.KeycloakAdminPassword)
	mask(&c.Mail.Password)
	mask(&c.Database.DSN)
	if c.Results.Kafka != nil {
		k := *c.Results.Kafka
		mask(&k.SASLPassword)
		c.Results.Kafka = &k
	}
	return c
}

// BrowserTimeout returns browser.timeout as a duration.
func (c Config) BrowserTimeout() time.Duration { return parseDuration(c.Browser.Timeout, 30*time.Second) }

// WaitTimeout returns waits.timeout as a duration.
func (c Config) WaitTimeout() time.Duration { return parseDuration(c.Waits.Timeout, 60*time.Second) }

// PollInterval returns waits.pollInterval as a duration.
func (c Config) PollInterval() time.Duration { return parseDuration(c.Waits.PollInterval, time.Second) }

// APITimeout returns api.timeout as a duration.
func (c Config) APITimeout() time.Duration { return parseDuration(c.API.Timeout, 60*time.Second) }

// APIBackoff returns api.initialBackoff and api.maxBackoff as durations.
func (c Config) APIBackoff() (initial, max time.Duration) {
	return parseDuration(c.API.InitialBackoff, 500*time.Millisecond), parseDuration(c.API.MaxBackoff, 10*time.Second)
}

// MailRetryBackoff returns mail.retryBackoff as a duration.
func (c Config) MailRetryBackoff() time.Duration { return parseDuration(c.Mail.RetryBackoff, 2*time.Second) }

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is empty")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
