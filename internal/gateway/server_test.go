package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/arbiter/internal/config"
	"github.com/soyeahso/arbiter/internal/dispute"
	"github.com/soyeahso/arbiter/internal/domain"
	"github.com/soyeahso/arbiter/internal/logging"
	"github.com/soyeahso/arbiter/internal/oracle"
	"github.com/soyeahso/arbiter/internal/payment"
)

const denyReply = "DECISION: DENY_REFUND | CONFIDENCE: 0.95 | JUSTIFICATION: signed delivery"

// testServer wires a full gateway over a mock oracle and returns its base URL.
func testServer(t *testing.T, cfg config.Config, replies ...string) (string, *Hub) {
	t.Helper()
	log := logging.New(nil, "silent")

	sessions := dispute.NewSessionStore(0, log)
	orch := dispute.NewOrchestrator(
		sessions,
		dispute.NewAggregator(nil, log),
		dispute.NewTurnController(&oracle.Mock{Replies: replies}, 3, 0, 0, log),
		dispute.NewRefundTrigger(&payment.Mock{}, 0.70, 3, log),
		log,
	)

	hub := NewHub(log, cfg.Server.AllowedOrigins)
	s := New(cfg, log, orch, WithHub(hub))
	s.startedAt = time.Now()

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	srv := httptest.NewServer(withMiddleware(mux, s.log, cfg.Server.AllowedOrigins))
	t.Cleanup(srv.Close)
	return srv.URL, hub
}

func postAnalyze(t *testing.T, base string, req domain.AnalyzeRequest, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq, err := http.NewRequest("POST", base+"/dispute/analyze", bytes.NewReader(payload))
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestAnalyzeEndpoint(t *testing.T) {
	base, _ := testServer(t, config.Config{}, denyReply)

	resp, body := postAnalyze(t, base, domain.AnalyzeRequest{
		DisputeDescription: "Package never arrived",
		TransactionID:      "tx-1",
	}, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, float64(1), body["step"])
	decision := body["decision"].(map[string]any)
	assert.Equal(t, "DENY_REFUND", decision["outcome"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestAnalyzeEvidenceLoopOverHTTP(t *testing.T) {
	base, _ := testServer(t, config.Config{}, "REQUEST_EVIDENCE:USER_PROMPT", denyReply)

	_, first := postAnalyze(t, base, domain.AnalyzeRequest{
		DisputeDescription: "Wrong item received",
	}, nil)

	require.Equal(t, "needs_evidence", first["status"])
	sessionID := first["sessionId"].(string)
	require.NotEmpty(t, sessionID)
	requested := first["evidenceRequested"].(map[string]any)
	assert.Equal(t, "user_prompt", requested["evidenceType"])

	resp, second := postAnalyze(t, base, domain.AnalyzeRequest{
		DisputeDescription: "Wrong item received",
		SessionID:          sessionID,
		AdditionalEvidence: &domain.EvidencePayload{
			Kind: "user_prompt",
			Data: map[string]any{"original_prompt": "buy a blue one"},
		},
	}, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", second["status"])
	assert.Equal(t, float64(2), second["step"])
}

func TestAnalyzeUnknownSession(t *testing.T) {
	base, _ := testServer(t, config.Config{}, denyReply)

	resp, body := postAnalyze(t, base, domain.AnalyzeRequest{
		DisputeDescription: "claim",
		SessionID:          "nope",
	}, nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "session_not_found", body["error"])
}

func TestAnalyzeMissingDescription(t *testing.T) {
	base, _ := testServer(t, config.Config{}, denyReply)

	resp, body := postAnalyze(t, base, domain.AnalyzeRequest{}, nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", body["error"])
}

func TestAnalyzeMalformedBody(t *testing.T) {
	base, _ := testServer(t, config.Config{}, denyReply)

	resp, err := http.Post(base+"/dispute/analyze", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.AuthToken = "sekrit"
	base, _ := testServer(t, cfg, denyReply)

	req := domain.AnalyzeRequest{DisputeDescription: "claim"}

	resp, _ := postAnalyze(t, base, req, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postAnalyze(t, base, req, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := postAnalyze(t, base, req, map[string]string{"Authorization": "Bearer sekrit"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", body["status"])
}

func TestHealthIsOpen(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.AuthToken = "sekrit"
	base, _ := testServer(t, cfg, denyReply)

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestSessionsEndpoint(t *testing.T) {
	base, _ := testServer(t, config.Config{}, "REQUEST_EVIDENCE:USER_PROMPT")

	_, first := postAnalyze(t, base, domain.AnalyzeRequest{DisputeDescription: "claim"}, nil)
	require.Equal(t, "needs_evidence", first["status"])

	resp, err := http.Get(base + "/dispute/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(1), body["count"])
	assert.Contains(t, body["sessions"].([]any), first["sessionId"])
}

func TestUnknownRoute(t *testing.T) {
	base, _ := testServer(t, config.Config{}, denyReply)

	resp, err := http.Get(base + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEventFeed(t *testing.T) {
	base, hub := testServer(t, config.Config{}, denyReply)

	wsURL := "ws" + strings.TrimPrefix(base, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Observers() == 1 },
		time.Second, 10*time.Millisecond)

	hub.Emit("dispute.completed", map[string]any{"sessionId": "s-1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))

	assert.Equal(t, "dispute.completed", frame["event"])
	payload := frame["payload"].(map[string]any)
	assert.Equal(t, "s-1", payload["sessionId"])
	assert.Equal(t, float64(1), frame["seq"])
}

func TestEventFeedAuthViaQueryToken(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.AuthToken = "sekrit"
	base, _ := testServer(t, cfg, denyReply)

	wsURL := "ws" + strings.TrimPrefix(base, "http") + "/ws/events"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token=sekrit", nil)
	require.NoError(t, err)
	conn.Close()
}

func TestResolveBindAddr(t *testing.T) {
	tests := []struct {
		bind string
		host string
		want string
	}{
		{"loopback", "", "127.0.0.1:8750"},
		{"lan", "", "0.0.0.0:8750"},
		{"custom", "10.0.0.5", "10.0.0.5:8750"},
		{"custom", "", "0.0.0.0:8750"},
		{"", "", "127.0.0.1:8750"},
	}

	for _, tt := range tests {
		cfg := config.ServerConfig{Port: 8750, Bind: tt.bind, CustomBindHost: tt.host}
		assert.Equal(t, tt.want, resolveBindAddr(cfg), "bind=%q host=%q", tt.bind, tt.host)
	}
}
