package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}
	if cfg.Server.Bind == "custom" && cfg.Server.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "server.customBindHost",
			Message: "required when bind is custom",
		})
	}
	if cfg.Server.TLS.Enabled && (cfg.Server.TLS.CertPath == "" || cfg.Server.TLS.KeyPath == "") {
		issues = append(issues, ValidationIssue{
			Path:    "server.tls",
			Message: "certPath and keyPath are required when TLS is enabled",
		})
	}

	validProviders := []string{"claude", "mock"}
	if cfg.Oracle.Provider != "" && !slices.Contains(validProviders, cfg.Oracle.Provider) {
		issues = append(issues, ValidationIssue{
			Path:    "oracle.provider",
			Message: fmt.Sprintf("must be one of %v, got %q", validProviders, cfg.Oracle.Provider),
		})
	}
	if cfg.Oracle.Provider == "claude" && cfg.Oracle.APIKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "oracle.apiKey",
			Message: "required for the claude provider (or set ANTHROPIC_API_KEY)",
		})
	}

	if cfg.Dispute.MaxSteps < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "dispute.maxSteps",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Dispute.MaxSteps),
		})
	}
	if cfg.Dispute.SessionIdleMinutes < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "dispute.sessionIdleMinutes",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Dispute.SessionIdleMinutes),
		})
	}
	if cfg.Dispute.MinRefundConfidence < 0 || cfg.Dispute.MinRefundConfidence > 1 {
		issues = append(issues, ValidationIssue{
			Path:    "dispute.minRefundConfidence",
			Message: fmt.Sprintf("must be between 0 and 1, got %g", cfg.Dispute.MinRefundConfidence),
		})
	}

	if cfg.Payment.MCPURL != "" {
		hasStatic := cfg.Payment.APIKey != ""
		hasOAuth := cfg.Payment.ClientID != "" && cfg.Payment.ClientSecret != "" && cfg.Payment.TokenURL != ""
		if !hasStatic && !hasOAuth {
			issues = append(issues, ValidationIssue{
				Path:    "payment",
				Message: "apiKey or clientId/clientSecret/tokenUrl required when mcpUrl is set",
			})
		}
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
