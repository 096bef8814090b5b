package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fodqa/fod-regression/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fodtest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		expectedUI    string
		expectedAdmin string
		expectedRetry int
		expectError   bool
	}{
		{
			name: "full environment",
			configContent: `
environment:
  uiURL: "https://qa.fod.example.test"
  adminURL: "https://qa.fod.example.test/Tam"
  apiURL: "https://api.qa.fod.example.test"
retry:
  maxRetryCount: 2
`,
			expectedUI:    "https://qa.fod.example.test",
			expectedAdmin: "https://qa.fod.example.test/Tam",
			expectedRetry: 2,
		},
		{
			name: "admin url derived from ui url",
			configContent: `
environment:
  uiURL: "https://qa.fod.example.test/"
`,
			expectedUI:    "https://qa.fod.example.test/",
			expectedAdmin: "https://qa.fod.example.test/Admin",
		},
		{
			name:          "invalid yaml",
			configContent: "environment: [",
			expectError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load(writeConfig(t, tt.configContent))
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedUI, cfg.Environment.UIURL)
			assert.Equal(t, tt.expectedAdmin, cfg.Environment.AdminURL)
			assert.Equal(t, tt.expectedRetry, cfg.Retry.MaxRetryCount)
		})
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadDefaultMissingFileUsesEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("FODTEST_CONFIG_PATH", "")
	t.Setenv("FOD_UI_URL", "https://env.fod.example.test")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://env.fod.example.test", cfg.Environment.UIURL)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultPathFromEnv(t *testing.T) {
	t.Setenv("FODTEST_CONFIG_PATH", "/etc/fodtest/config.yaml")
	assert.Equal(t, "/etc/fodtest/config.yaml", config.DefaultPath())

	t.Setenv("FODTEST_CONFIG_PATH", "")
	assert.Equal(t, config.DefaultConfigPath, config.DefaultPath())
}

func TestDefaults(t *testing.T) {
	var cfg config.Config
	cfg.Defaults()

	assert.Equal(t, 1920, cfg.Browser.WindowWidth)
	assert.Equal(t, 60*time.Second, cfg.WaitTimeout())
	assert.Equal(t, time.Second, cfg.PollInterval())
	assert.Equal(t, 30*time.Second, cfg.BrowserTimeout())
	assert.Equal(t, 0, cfg.Retry.MaxRetryCount)
	assert.Equal(t, 1, cfg.Runner.Parallel)
	assert.Equal(t, "master", cfg.SSO.KeycloakAdminRealm)

	initial, max := cfg.APIBackoff()
	assert.Equal(t, 500*time.Millisecond, initial)
	assert.Equal(t, 10*time.Second, max)
}

func TestDefaultsSecure(t *testing.T) {
	var cfg config.Config
	cfg.Defaults()
	assert.False(t, cfg.Mail.InsecureSkipVerify)
	assert.False(t, cfg.API.InsecureSkipVerify)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FOD_TENANT_CODE", "QA_TENANT")
	t.Setenv("FOD_HEADLESS", "true")
	t.Setenv("FOD_MAX_RETRY_COUNT", "3")
	t.Setenv("FOD_DB_DRIVER", "sqlite3")

	var cfg config.Config
	cfg.ApplyEnv()
	assert.Equal(t, "QA_TENANT", cfg.Credentials.TenantCode)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 3, cfg.Retry.MaxRetryCount)
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
}

func TestApplyEnvIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("FOD_MAX_RETRY_COUNT", "many")
	cfg := config.Config{Retry: config.Retry{MaxRetryCount: 1}}
	cfg.ApplyEnv()
	assert.Equal(t, 1, cfg.Retry.MaxRetryCount)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		c := config.Config{Environment: config.Environment{UIURL: "https://qa.fod.example.test"}}
		c.Defaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "missing ui url", mutate: func(c *config.Config) { c.Environment.UIURL = "" }, wantErr: "uiURL is required"},
		{name: "bad scheme", mutate: func(c *config.Config) { c.Environment.APIURL = "ftp://x" }, wantErr: "scheme"},
		{name: "negative retry", mutate: func(c *config.Config) { c.Retry.MaxRetryCount = -1 }, wantErr: "maxRetryCount"},
		{name: "bad driver", mutate: func(c *config.Config) { c.Database.Driver = "mysql" }, wantErr: "database.driver"},
		{name: "bad exporter", mutate: func(c *config.Config) { c.Telemetry.Exporter = "jaeger" }, wantErr: "telemetry.exporter"},
		{name: "bad duration", mutate: func(c *config.Config) { c.Waits.Timeout = "soon" }, wantErr: "waits.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := config.Config{
		Credentials: config.Credentials{TenantPassword: "secret", APISecret: "s2"},
		Results:     config.Results{Kafka: &config.KafkaSink{SASLPassword: "kpw"}},
	}
	r := cfg.Redacted()
	assert.Equal(t, "********", r.Credentials.TenantPassword)
	assert.Equal(t, "********", r.Credentials.APISecret)
	assert.Equal(t, "********", r.Results.Kafka.SASLPassword)
	assert.Equal(t, "kpw", cfg.Results.Kafka.SASLPassword, "original must not be modified")
	assert.Empty(t, r.Credentials.AdminPassword)

	out, err := r.Marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "secret")
}
