package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 8750, cfg.Server.Port)
	assert.Equal(t, "loopback", cfg.Server.Bind)
	assert.Equal(t, "claude", cfg.Oracle.Provider)
	assert.Equal(t, 3, cfg.Dispute.MaxSteps)
	assert.Equal(t, 30, cfg.Dispute.SessionIdleMinutes)
	assert.Equal(t, 0.70, cfg.Dispute.MinRefundConfidence)
	assert.Equal(t, "https://auth.paywithlocus.com/oauth2/token", cfg.Payment.TokenURL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	// Should return defaults
	assert.Equal(t, 8750, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Dispute.MaxSteps)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
server:
  port: 9100
  bind: lan
  authToken: sekrit
oracle:
  provider: mock
dispute:
  maxSteps: 5
  minRefundConfidence: 0.8
payment:
  mcpUrl: https://mcp.example.com/rpc
  apiKey: pay-key
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "lan", cfg.Server.Bind)
	assert.Equal(t, "sekrit", cfg.Server.AuthToken)
	assert.Equal(t, "mock", cfg.Oracle.Provider)
	assert.Equal(t, 5, cfg.Dispute.MaxSteps)
	assert.Equal(t, 0.8, cfg.Dispute.MinRefundConfidence)
	assert.Equal(t, "https://mcp.example.com/rpc", cfg.Payment.MCPURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unset fields still get defaults.
	assert.Equal(t, 30, cfg.Dispute.SessionIdleMinutes)
	assert.Equal(t, "claude-haiku-4-5", cfg.Oracle.Model)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARBITER_PORT", "9999")
	t.Setenv("ARBITER_BIND", "lan")
	t.Setenv("ARBITER_LOG_LEVEL", "TRACE")
	t.Setenv("ARBITER_ORACLE_API_KEY", "env-key")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "lan", cfg.Server.Bind)
	assert.Equal(t, "trace", cfg.Logging.Level)
	assert.Equal(t, "env-key", cfg.Oracle.APIKey)
}

func TestAnthropicKeyFallback(t *testing.T) {
	t.Setenv("ARBITER_ORACLE_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "anthropic-key", cfg.Oracle.APIKey)
}

func TestExpandSensitiveFields(t *testing.T) {
	t.Setenv("TEST_ORACLE_KEY", "expanded-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
oracle:
  apiKey: ${TEST_ORACLE_KEY}
server:
  authToken: ${UNSET_VAR_XYZ}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "expanded-key", cfg.Oracle.APIKey)
	// Unset variables are left as-is.
	assert.Equal(t, "${UNSET_VAR_XYZ}", cfg.Server.AuthToken)
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg := Defaults()
	cfg.Oracle.APIKey = "k"
	assert.Empty(t, Validate(&cfg))
}

func TestValidateIssues(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = 99999
	cfg.Server.Bind = "wan"
	cfg.Oracle.Provider = "gpt"
	cfg.Dispute.MaxSteps = 0
	cfg.Dispute.MinRefundConfidence = 1.5
	cfg.Payment.MCPURL = "https://mcp.example.com"
	cfg.Logging.Level = "shouty"

	issues := Validate(&cfg)
	paths := make([]string, 0, len(issues))
	for _, issue := range issues {
		paths = append(paths, issue.Path)
	}

	assert.Contains(t, paths, "server.port")
	assert.Contains(t, paths, "server.bind")
	assert.Contains(t, paths, "oracle.provider")
	assert.Contains(t, paths, "dispute.maxSteps")
	assert.Contains(t, paths, "dispute.minRefundConfidence")
	assert.Contains(t, paths, "payment")
	assert.Contains(t, paths, "logging.level")
}

func TestValidateClaudeRequiresKey(t *testing.T) {
	cfg := Defaults()
	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "oracle.apiKey", issues[0].Path)

	cfg.Oracle.Provider = "mock"
	assert.Empty(t, Validate(&cfg))
}

func TestValidateTLSRequiresPaths(t *testing.T) {
	cfg := Defaults()
	cfg.Oracle.Provider = "mock"
	cfg.Server.TLS.Enabled = true

	issues := Validate(&cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, "server.tls", issues[0].Path)
}
