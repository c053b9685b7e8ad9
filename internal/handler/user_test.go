package handler

import (
	"testing"

	"license-key-server/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleUserRegister(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.viewerToken(t)

	tests := []struct {
		name       string
		token      string
		input      model.RegisterInput
		wantStatus int
	}{
		{
			name:       "valid_registration",
			token:      env.adminToken,
			input:      model.RegisterInput{Username: "testuser", Password: "password123"},
			wantStatus: fiber.StatusCreated,
		},
		{
			name:       "duplicate_username",
			token:      env.adminToken,
			input:      model.RegisterInput{Username: "testuser", Password: "password123"},
			wantStatus: fiber.StatusConflict,
		},
		{
			name:       "short_password",
			token:      env.adminToken,
			input:      model.RegisterInput{Username: "other", Password: "123"},
			wantStatus: fiber.StatusBadRequest,
		},
		{
			name:       "viewer_cannot_register",
			token:      viewer,
			input:      model.RegisterInput{Username: "third", Password: "password123"},
			wantStatus: fiber.StatusForbidden,
		},
		{
			name:       "anonymous",
			input:      model.RegisterInput{Username: "fourth", Password: "password123"},
			wantStatus: fiber.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]interface{}
			status := env.do(t, "POST", "/api/v1/users/register", tt.token, tt.input, nil, &body)
			assert.Equal(t, tt.wantStatus, status)
			assert.NotContains(t, body, "password")
		})
	}
}

func TestHandleUserLogin(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		input      model.LoginInput
		wantStatus int
	}{
		{name: "valid", input: model.LoginInput{Username: "admin", Password: "admin-password"}, wantStatus: fiber.StatusOK},
		{name: "wrong_password", input: model.LoginInput{Username: "admin", Password: "nope"}, wantStatus: fiber.StatusUnauthorized},
		{name: "unknown_user", input: model.LoginInput{Username: "ghost", Password: "admin-password"}, wantStatus: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]interface{}
			status := env.do(t, "POST", "/api/v1/users/login", "", tt.input,
				map[string]string{"User-Agent": "license-client/1.0"}, &body)
			assert.Equal(t, tt.wantStatus, status)
			if status == fiber.StatusOK {
				assert.NotEmpty(t, body["token"])
				assert.NotEmpty(t, body["expires_at"])
			}
		})
	}
}

func TestHandleUserInfoAndLoginLogs(t *testing.T) {
	env := newTestEnv(t)

	var user model.User
	require.Equal(t, fiber.StatusOK, env.do(t, "GET", "/api/v1/users/info", env.adminToken, nil, nil, &user))
	assert.Equal(t, "admin", user.Username)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.Empty(t, user.Password)

	assert.Equal(t, fiber.StatusUnauthorized, env.do(t, "GET", "/api/v1/users/info", "garbage", nil, nil, nil))

	var logs struct {
		Logs  []model.LoginLog `json:"logs"`
		Total int64            `json:"total"`
	}
	require.Equal(t, fiber.StatusOK, env.do(t, "GET", "/api/v1/users/login-logs", env.adminToken, nil, nil, &logs))
	assert.EqualValues(t, 1, logs.Total)
	assert.Equal(t, "success", logs.Logs[0].Status)
}

func TestHandleValidateToken(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantValid  bool
	}{
		{name: "valid", token: env.adminToken, wantStatus: fiber.StatusOK, wantValid: true},
		{name: "garbage", token: "garbage", wantStatus: fiber.StatusOK, wantValid: false},
		{name: "empty", token: "", wantStatus: fiber.StatusBadRequest, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]interface{}
			status := env.do(t, "POST", "/api/v1/auth/validate-token", "",
				map[string]string{"token": tt.token}, nil, &body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantValid, body["valid"])
		})
	}
}

func TestHandleActiveSystem(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.viewerToken(t)

	var system model.ActiveSystem
	require.Equal(t, fiber.StatusCreated, env.do(t, "POST", "/api/v1/active_system", env.adminToken,
		model.ActiveSystemInput{SystemName: "erp"}, nil, &system))
	assert.Equal(t, "erp", system.SystemName)

	assert.Equal(t, fiber.StatusConflict, env.do(t, "POST", "/api/v1/active_system", env.adminToken,
		model.ActiveSystemInput{SystemName: "erp"}, nil, nil))
	assert.Equal(t, fiber.StatusBadRequest, env.do(t, "POST", "/api/v1/active_system", env.adminToken,
		model.ActiveSystemInput{SystemName: ""}, nil, nil))
	assert.Equal(t, fiber.StatusForbidden, env.do(t, "POST", "/api/v1/active_system", viewer,
		model.ActiveSystemInput{SystemName: "crm"}, nil, nil))

	var systems []model.ActiveSystem
	require.Equal(t, fiber.StatusOK, env.do(t, "GET", "/api/v1/active_system", viewer, nil, nil, &systems))
	assert.Len(t, systems, 1)
}
