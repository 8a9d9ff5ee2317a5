package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/config"
	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/ratelimit"
)

const testWiki = "enwiki"

// testConfig authenticates "Bot" with token "secret" from 192.0.2.0/24,
// the default httptest client address.
func testConfig() *config.Config {
	off := false
	return &config.Config{
		Server: config.ServerConfig{
			Listen:         "127.0.0.1:0",
			RequireHTTPS:   &off,
			TrustedProxies: []string{"10.0.0.0/8"},
		},
		NetworkSession: config.NetworkSessionConfig{
			WikiID: testWiki,
			PrincipalEntries: []config.PrincipalEntry{
				{"username": "Bot", "token": "secret", "ip_ranges": []any{"127.0.0.1", "192.0.2.0/24"}},
			},
		},
		Accounts: config.AccountsConfig{
			DefaultRights: []string{"read"},
			Users:         []config.AccountConfig{{Name: "Bot", Rights: []string{"read", "edit"}}},
		},
	}
}

type testServer struct {
	handler http.Handler
	runtime *config.Runtime
	metrics *Metrics
}

func newTestServer(t *testing.T, cfg *config.Config, limiter ratelimit.FailureLimiter) *testServer {
	t.Helper()
	runtime := config.NewRuntime(cfg)
	metrics := NewMetrics()
	return &testServer{
		handler: SetupRoutes(runtime, limiter, metrics),
		runtime: runtime,
		metrics: metrics,
	}
}

type response struct {
	header http.Header
	body   string
	status int
}

func (s *testServer) do(t *testing.T, req *http.Request) response {
	t.Helper()
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return response{status: rec.Code, body: string(body), header: rec.Header()}
}

func (r response) get(path string) gjson.Result {
	return gjson.Get(r.body, path)
}

func newAuthRequest(target, authorization string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	return req
}
