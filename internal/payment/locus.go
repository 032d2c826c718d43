package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/soyeahso/arbiter/internal/logging"
)

// LocusConfig configures the Locus MCP payment client.
type LocusConfig struct {
	MCPURL       string
	APIKey       string // static bearer token; when empty, OAuth2 is used
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Timeout      time.Duration
}

// LocusClient disburses USDC refunds via the Locus MCP JSON-RPC endpoint.
type LocusClient struct {
	cfg    LocusConfig
	client *http.Client
	tokens oauth2.TokenSource
	log    *logging.Logger
}

// NewLocusClient creates a Locus disburser. When no static API key is
// configured, tokens are fetched with the OAuth2 client-credentials flow.
func NewLocusClient(cfg LocusConfig, log *logging.Logger) *LocusClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &LocusClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.Sub("payment"),
	}

	if cfg.APIKey == "" && cfg.ClientID != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		c.tokens = cc.TokenSource(context.Background())
	}

	return c
}

// Name returns the rail name.
func (c *LocusClient) Name() string { return "locus" }

// Send transfers amount to address via the send_to_address MCP tool.
func (c *LocusClient) Send(ctx context.Context, address string, amount float64, memo string) (*Result, error) {
	params := map[string]any{
		"name": "send_to_address",
		"arguments": map[string]any{
			"address": address,
			"amount":  amount,
			"memo":    memo,
		},
	}

	c.log.Info().
		Str("address", address).
		Float64("amount", amount).
		Msg("sending refund")

	result, err := c.callMCP(ctx, "tools/call", params)
	if err != nil {
		return nil, err
	}

	details, _ := json.Marshal(result)
	c.log.Info().RawJSON("result", details).Msg("refund sent")
	return &Result{Success: true, Details: string(details)}, nil
}

// callMCP posts one JSON-RPC request. Replies may arrive as plain JSON or as
// a server-sent-events body whose first data: line carries the JSON.
func (c *LocusClient) callMCP(ctx context.Context, method string, params map[string]any) (map[string]any, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring payment token: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.cfg.MCPURL, strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment API error (%d): %s", resp.StatusCode, string(body))
	}

	raw := extractRPCBody(string(body))

	var rpc struct {
		Result map[string]any `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(raw), &rpc); err != nil {
		return nil, fmt.Errorf("failed to parse payment response: %w", err)
	}
	if rpc.Error != nil {
		msg := rpc.Error.Message
		if msg == "" {
			msg = "MCP error"
		}
		return nil, fmt.Errorf("payment rail rejected request: %s", msg)
	}
	return rpc.Result, nil
}

func (c *LocusClient) bearerToken(ctx context.Context) (string, error) {
	if c.cfg.APIKey != "" {
		return c.cfg.APIKey, nil
	}
	if c.tokens == nil {
		return "", fmt.Errorf("no API key or OAuth2 credentials configured")
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// extractRPCBody returns the first SSE data payload when the body is an
// event stream, otherwise the body itself.
func extractRPCBody(body string) string {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimPrefix(line, "data: ")
		}
	}
	return body
}
