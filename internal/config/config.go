package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8750,
			Bind: "loopback",
		},
		Oracle: OracleConfig{
			Provider:       "claude",
			Model:          "claude-haiku-4-5",
			MaxTokens:      1024,
			TimeoutSeconds: 120,
		},
		Dispute: DisputeConfig{
			MaxSteps:            3,
			SessionIdleMinutes:  30,
			MinRefundConfidence: 0.70,
		},
		Payment: PaymentConfig{
			TokenURL: "https://auth.paywithlocus.com/oauth2/token",
			Scopes: []string{
				"payment_context:read",
				"contact_payments:write",
				"address_payments:write",
				"email_payments:write",
			},
			TimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
