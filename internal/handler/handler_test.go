package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"license-key-server/internal/database"
	"license-key-server/internal/model"
	"license-key-server/internal/service"
	"license-key-server/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db         *database.DB
	app        *fiber.App
	authSvc    *service.AuthService
	adminToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, nil)
}

// newTestEnvWithStore swaps the check-in storage when store is non-nil.
func newTestEnvWithStore(t *testing.T, store service.CheckStore) *testEnv {
	t.Helper()
	ctx := context.Background()

	db := database.NewTestDB(t)
	require.NoError(t, db.EnsureAdmin(ctx, "admin", "admin-password"))

	if store == nil {
		store = service.NewCheckStore(db)
	}
	authSvc := service.NewAuthService(db, util.NewTokenManager("handler-test-secret-1234", time.Hour), nil)
	h := New(Services{
		Validator:  service.NewValidator(store, nil, nil),
		Systems:    service.NewSystemService(db),
		Licenses:   service.NewLicenseService(db, 3, nil, nil),
		Auth:       authSvc,
		Operations: service.NewOperationLogService(db),
	}, nil)

	login, err := authSvc.Login(ctx, model.LoginInput{Username: "admin", Password: "admin-password"}, "", "")
	require.NoError(t, err)

	return &testEnv{
		db:         db,
		app:        NewApp(h, AppConfig{MetricsPath: "/metrics"}),
		authSvc:    authSvc,
		adminToken: login.Token,
	}
}

// do sends a JSON request and decodes the response body into out when non-nil.
func (e *testEnv) do(t *testing.T, method, target, token string, body interface{}, headers map[string]string, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(b)
	}

	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *testEnv) viewerToken(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	_, err := e.authSvc.Register(ctx, 1, model.RegisterInput{Username: "viewer", Password: "viewer-password", Role: model.RoleViewer})
	require.NoError(t, err)
	login, err := e.authSvc.Login(ctx, model.LoginInput{Username: "viewer", Password: "viewer-password"}, "", "")
	require.NoError(t, err)
	return login.Token
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		remote    string
		want      string
	}{
		{name: "first_hop", forwarded: "1.1.1.1, 10.0.0.1", remote: "10.0.0.2", want: "1.1.1.1"},
		{name: "single_hop_spaces", forwarded: "  2.2.2.2 ", remote: "10.0.0.2", want: "2.2.2.2"},
		{name: "no_header", remote: "10.0.0.2", want: "10.0.0.2"},
		{name: "empty_first_hop", forwarded: " ,3.3.3.3", remote: "10.0.0.2", want: "10.0.0.2"},
		{name: "unknown", want: ""},
		{name: "unspecified_v4_peer", remote: "0.0.0.0", want: ""},
		{name: "unspecified_v6_peer", remote: "::", want: ""},
		{name: "unspecified_hop_falls_back", forwarded: "0.0.0.0", remote: "10.0.0.2", want: "10.0.0.2"},
		{name: "ipv6_peer", remote: "2001:db8::1", want: "2001:db8::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientIP(tt.forwarded, tt.remote))
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	status := env.do(t, "GET", "/healthz", "", nil, nil, nil)
	assert.Equal(t, fiber.StatusOK, status)

	req, _ := http.NewRequest("GET", "/metrics", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "lks_http_requests_total")
}
