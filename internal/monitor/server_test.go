package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpfun-monitor/internal/config"
	"pumpfun-monitor/internal/hub"
	"pumpfun-monitor/internal/logging"
	"pumpfun-monitor/internal/solana"
)

func testConfig(feedURL string) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 0, CORSOrigins: "*", ShutdownTimeout: time.Second},
		RPC:      config.RPCConfig{URL: "http://127.0.0.1:1", Timeout: time.Second},
		Feed:     config.FeedConfig{URL: feedURL, ReconnectDelay: 50 * time.Millisecond},
		Program:  config.ProgramConfig{ID: solana.PumpFunProgramID},
		Poller:   config.PollerConfig{Interval: time.Hour, RetryDelay: time.Hour, SignatureLimit: 10},
		Hub:      config.HubConfig{FlushInterval: 20 * time.Millisecond, SendQueue: 64},
		State:    config.StateConfig{Capacity: 100, ClearInterval: time.Hour},
		Viewer:   config.ViewerConfig{RatePerSec: 1, Burst: 5},
		Logging:  logging.Config{Level: "error"},
		Metadata: config.MetadataConfig{Timeout: time.Second},
	}
}

func toWS(url string) string {
	return "ws" + strings.TrimPrefix(url, "http")
}

// newFeedServer accepts the subscription and then sends one token creation.
func newFeedServer(t *testing.T, token map[string]interface{}) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub map[string]string
		if err := conn.ReadJSON(&sub); err != nil || sub["method"] != "subscribeNewToken" {
			return
		}
		if err := conn.WriteJSON(token); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestServer_TokenReachesViewer(t *testing.T) {
	feedServer := newFeedServer(t, map[string]interface{}{
		"mint":                  "MintAAA",
		"name":                  "Alpha",
		"symbol":                "ALP",
		"traderPublicKey":       "CreatorAAA",
		"vSolInBondingCurve":    30.0,
		"vTokensInBondingCurve": 1000000.0,
		"marketCapSol":          28.0,
		"initialBuy":            0.5,
	})

	srv := NewServer(testConfig(toWS(feedServer.URL)), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run(ctx) }()

	viewerServer := httptest.NewServer(srv.Handler())
	defer viewerServer.Close()

	conn, _, err := websocket.DefaultDialer.Dial(toWS(viewerServer.URL)+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var welcome hub.Message
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, hub.TypeWelcome, welcome.Type)

	for {
		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type != hub.TypeNewToken {
			continue
		}
		var token struct {
			Mint    string `json:"mint"`
			Creator string `json:"creator"`
			Score   int    `json:"score"`
		}
		require.NoError(t, json.Unmarshal(msg.Data, &token))
		assert.Equal(t, "MintAAA", token.Mint)
		assert.Equal(t, "CreatorAAA", token.Creator)
		break
	}

	cancel()
	select {
	case err := <-runErr:
		assert.True(t, errors.Is(err, context.Canceled), "unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_StatusAndHealth(t *testing.T) {
	srv := NewServer(testConfig("ws://127.0.0.1:1"), zerolog.Nop())
	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "running", status.Status)
	assert.False(t, status.FeedConnected)
	assert.Equal(t, 0, status.ActiveTokens)
	assert.Equal(t, 0, status.Viewers)
}
