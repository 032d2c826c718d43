// Package config handles loading, validation, and defaults for the arbiter
// YAML configuration file.
package config

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server,omitempty"`
	Oracle   OracleConfig   `yaml:"oracle,omitempty"`
	Dispute  DisputeConfig  `yaml:"dispute,omitempty"`
	Payment  PaymentConfig  `yaml:"payment,omitempty"`
	Shipment ShipmentConfig `yaml:"shipment,omitempty"`
	Store    StoreConfig    `yaml:"store,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port           int       `yaml:"port,omitempty"`
	Bind           string    `yaml:"bind,omitempty"` // loopback | lan | custom
	CustomBindHost string    `yaml:"customBindHost,omitempty"`
	AuthToken      string    `yaml:"authToken,omitempty"` // empty disables auth
	AllowedOrigins []string  `yaml:"allowedOrigins,omitempty"`
	TLS            TLSConfig `yaml:"tls,omitempty"`
}

// TLSConfig enables TLS termination on the server.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// OracleConfig selects and configures the analysis model.
type OracleConfig struct {
	Provider       string `yaml:"provider,omitempty"` // claude | mock
	APIKey         string `yaml:"apiKey,omitempty"`
	Model          string `yaml:"model,omitempty"`
	BaseURL        string `yaml:"baseUrl,omitempty"`
	MaxTokens      int    `yaml:"maxTokens,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// DisputeConfig tunes the arbitration state machine.
type DisputeConfig struct {
	MaxSteps            int     `yaml:"maxSteps,omitempty"`
	SessionIdleMinutes  int     `yaml:"sessionIdleMinutes,omitempty"`
	MinRefundConfidence float64 `yaml:"minRefundConfidence,omitempty"`
}

// PaymentConfig configures the Locus payment rail. An empty mcpUrl disables
// disbursement.
type PaymentConfig struct {
	MCPURL         string   `yaml:"mcpUrl,omitempty"`
	APIKey         string   `yaml:"apiKey,omitempty"`
	TokenURL       string   `yaml:"tokenUrl,omitempty"`
	ClientID       string   `yaml:"clientId,omitempty"`
	ClientSecret   string   `yaml:"clientSecret,omitempty"`
	Scopes         []string `yaml:"scopes,omitempty"`
	TimeoutSeconds int      `yaml:"timeoutSeconds,omitempty"`
}

// ShipmentConfig points at an optional YAML seed of shipment records to
// import on startup.
type ShipmentConfig struct {
	SeedFile string `yaml:"seedFile,omitempty"`
}

// StoreConfig configures the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}
