package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so keys and tokens can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Server.AuthToken = expandEnvVars(cfg.Server.AuthToken)
	cfg.Oracle.APIKey = expandEnvVars(cfg.Oracle.APIKey)
	cfg.Payment.APIKey = expandEnvVars(cfg.Payment.APIKey)
	cfg.Payment.ClientSecret = expandEnvVars(cfg.Payment.ClientSecret)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8750
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = "loopback"
	}
	if cfg.Oracle.Provider == "" {
		cfg.Oracle.Provider = "claude"
	}
	if cfg.Oracle.Model == "" {
		cfg.Oracle.Model = "claude-haiku-4-5"
	}
	if cfg.Oracle.MaxTokens == 0 {
		cfg.Oracle.MaxTokens = 1024
	}
	if cfg.Oracle.TimeoutSeconds == 0 {
		cfg.Oracle.TimeoutSeconds = 120
	}
	if cfg.Dispute.MaxSteps == 0 {
		cfg.Dispute.MaxSteps = 3
	}
	if cfg.Dispute.SessionIdleMinutes == 0 {
		cfg.Dispute.SessionIdleMinutes = 30
	}
	if cfg.Dispute.MinRefundConfidence == 0 {
		cfg.Dispute.MinRefundConfidence = 0.70
	}
	if cfg.Payment.TokenURL == "" {
		cfg.Payment.TokenURL = "https://auth.paywithlocus.com/oauth2/token"
	}
	if cfg.Payment.TimeoutSeconds == 0 {
		cfg.Payment.TimeoutSeconds = 30
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// applyEnvOverrides reads ARBITER_* environment variables and overrides
// config values. ANTHROPIC_API_KEY is honored for the oracle key so the
// conventional variable works without any config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ARBITER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ARBITER_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("ARBITER_AUTH_TOKEN"); v != "" {
		cfg.Server.AuthToken = v
	}
	if v := os.Getenv("ARBITER_ORACLE_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	} else if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.Oracle.APIKey == "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("ARBITER_PAYMENT_API_KEY"); v != "" {
		cfg.Payment.APIKey = v
	}
	if v := os.Getenv("ARBITER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
