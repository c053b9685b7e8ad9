package handler

import (
	"context"
	"errors"
	"testing"

	"license-key-server/internal/model"
	"license-key-server/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) generate(t *testing.T, limit *int) string {
	t.Helper()
	var system model.ActiveSystem
	status := e.do(t, "POST", "/api/v1/active_system", e.adminToken,
		model.ActiveSystemInput{SystemName: "erp"}, nil, &system)
	if status == fiber.StatusConflict {
		found, err := e.db.FindActiveSystemByName(context.Background(), "erp")
		require.NoError(t, err)
		system = *found
	} else {
		require.Equal(t, fiber.StatusCreated, status)
	}

	var resp model.LicenseResponse
	status = e.do(t, "POST", "/api/v1/generate", e.adminToken,
		model.LicenseInput{ActiveSystemID: system.ID, IPLimit: limit}, nil, &resp)
	require.Equal(t, fiber.StatusCreated, status)
	return resp.LicenseKey
}

func TestHandleCheckLicense(t *testing.T) {
	env := newTestEnv(t)
	limit := 3
	key := env.generate(t, &limit)

	tests := []struct {
		name       string
		path       string
		body       interface{}
		forwarded  string
		wantStatus int
		wantValid  bool
		wantMsg    string
	}{
		{name: "first_ip", path: "/check_license", body: model.CheckLicenseInput{LicenseKey: key}, forwarded: "1.1.1.1", wantStatus: fiber.StatusOK, wantValid: true, wantMsg: "valid"},
		{name: "same_ip", path: "/check_license", body: model.CheckLicenseInput{LicenseKey: key}, forwarded: "1.1.1.1, 10.0.0.1", wantStatus: fiber.StatusOK, wantValid: true, wantMsg: "valid"},
		{name: "second_ip", path: "/api/v1/check_license", body: model.CheckLicenseInput{LicenseKey: key}, forwarded: "2.2.2.2", wantStatus: fiber.StatusOK, wantValid: true, wantMsg: "valid"},
		{name: "third_ip", path: "/check_license", body: model.CheckLicenseInput{LicenseKey: key}, forwarded: "3.3.3.3", wantStatus: fiber.StatusOK, wantValid: true, wantMsg: "valid"},
		{name: "over_quota", path: "/check_license", body: model.CheckLicenseInput{LicenseKey: key}, forwarded: "4.4.4.4", wantStatus: fiber.StatusOK, wantValid: false, wantMsg: "quota of 3 IPs exceeded"},
		{name: "unknown_key", path: "/check_license", body: model.CheckLicenseInput{LicenseKey: "nope"}, forwarded: "1.1.1.1", wantStatus: fiber.StatusOK, wantValid: false, wantMsg: "invalid key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result model.CheckResult
			status := env.do(t, "POST", tt.path, "", tt.body,
				map[string]string{"X-Forwarded-For": tt.forwarded}, &result)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantMsg, result.Message)
		})
	}

	var detail model.LicenseDetail
	status := env.do(t, "GET", "/api/v1/licenses/"+key, env.adminToken, nil, nil, &detail)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"}, detail.SeenIPs)
	assert.Equal(t, 3, detail.UsedIPs)

	var usage struct {
		Logs  []model.LicenseUsageLog `json:"logs"`
		Total int64                   `json:"total"`
	}
	status = env.do(t, "GET", "/api/v1/licenses/"+key+"/usage?page_size=100", env.adminToken, nil, nil, &usage)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 5, usage.Total)
}

func TestHandleCheckLicenseWithoutClientAddress(t *testing.T) {
	env := newTestEnv(t)
	limit := 0
	key := env.generate(t, &limit)

	// app.Test connections report 0.0.0.0 as the peer.
	for i := 0; i < 2; i++ {
		var result model.CheckResult
		status := env.do(t, "POST", "/check_license", "", model.CheckLicenseInput{LicenseKey: key}, nil, &result)
		assert.Equal(t, fiber.StatusOK, status)
		assert.True(t, result.Valid)
		assert.Equal(t, "valid", result.Message)
	}

	var detail model.LicenseDetail
	status := env.do(t, "GET", "/api/v1/licenses/"+key, env.adminToken, nil, nil, &detail)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 0, detail.IPLimit)
	assert.Empty(t, detail.SeenIPs)
	assert.Zero(t, detail.UsedIPs)

	ips, err := env.db.DistinctIPs(context.Background(), key)
	require.NoError(t, err)
	assert.Empty(t, ips)
}

func TestHandleCheckLicenseMalformed(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "empty_key", body: model.CheckLicenseInput{}},
		{name: "blank_key", body: model.CheckLicenseInput{LicenseKey: "   "}},
		{name: "wrong_type", body: map[string]int{"license_key": 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := env.do(t, "POST", "/check_license", "", tt.body, nil, nil)
			assert.Equal(t, fiber.StatusBadRequest, status)
		})
	}

	counts, err := env.db.CountUsageByDetails(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts, "malformed requests are not logged")
}

type failingCheckStore struct{}

func (failingCheckStore) FindLicense(ctx context.Context, key string) (*model.License, error) {
	return nil, errors.New("database is locked")
}

func (failingCheckStore) DistinctIPs(ctx context.Context, key string) ([]string, error) {
	return nil, errors.New("database is locked")
}

func (failingCheckStore) RecordUsage(ctx context.Context, entry *model.LicenseUsageLog) error {
	return errors.New("database is locked")
}

func (s failingCheckStore) Atomic(ctx context.Context, fn func(tx service.CheckStore) error) error {
	return fn(s)
}

func TestHandleCheckLicenseStorageFault(t *testing.T) {
	env := newTestEnvWithStore(t, failingCheckStore{})

	var body map[string]interface{}
	status := env.do(t, "POST", "/check_license", "", model.CheckLicenseInput{LicenseKey: "k"}, nil, &body)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, body, "valid")
}

func TestHandleLicenseGenerate(t *testing.T) {
	env := newTestEnv(t)
	var system model.ActiveSystem
	require.Equal(t, fiber.StatusCreated, env.do(t, "POST", "/api/v1/active_system", env.adminToken,
		model.ActiveSystemInput{SystemName: "erp"}, nil, &system))
	viewer := env.viewerToken(t)
	negative := -1

	tests := []struct {
		name       string
		token      string
		input      model.LicenseInput
		wantStatus int
	}{
		{name: "default_limit", token: env.adminToken, input: model.LicenseInput{ActiveSystemID: system.ID}, wantStatus: fiber.StatusCreated},
		{name: "unknown_system", token: env.adminToken, input: model.LicenseInput{ActiveSystemID: 999}, wantStatus: fiber.StatusNotFound},
		{name: "negative_limit", token: env.adminToken, input: model.LicenseInput{ActiveSystemID: system.ID, IPLimit: &negative}, wantStatus: fiber.StatusBadRequest},
		{name: "viewer", token: viewer, input: model.LicenseInput{ActiveSystemID: system.ID}, wantStatus: fiber.StatusForbidden},
		{name: "anonymous", input: model.LicenseInput{ActiveSystemID: system.ID}, wantStatus: fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp model.LicenseResponse
			status := env.do(t, "POST", "/api/v1/generate", tt.token, tt.input, nil, &resp)
			assert.Equal(t, tt.wantStatus, status)
			if status == fiber.StatusCreated {
				assert.NotEmpty(t, resp.LicenseKey)
				assert.Equal(t, "erp", resp.ActiveSystem)
				assert.Equal(t, 3, resp.IPLimit)
			}
		})
	}
}

func TestHandleLicenseListStatisticsDelete(t *testing.T) {
	env := newTestEnv(t)
	key := env.generate(t, nil)
	viewer := env.viewerToken(t)

	env.do(t, "POST", "/check_license", "", model.CheckLicenseInput{LicenseKey: key}, nil, nil)

	var items []model.LicenseListItem
	require.Equal(t, fiber.StatusOK, env.do(t, "GET", "/api/v1/licenses", viewer, nil, nil, &items))
	require.Len(t, items, 1)
	assert.Equal(t, key, items[0].LicenseKey)

	var stats struct {
		Statistics  model.LicenseStatistics `json:"statistics"`
		SuccessRate float64                 `json:"success_rate"`
	}
	require.Equal(t, fiber.StatusOK, env.do(t, "GET", "/api/v1/licenses/statistics", viewer, nil, nil, &stats))
	assert.EqualValues(t, 1, stats.Statistics.TotalLicenses)
	assert.EqualValues(t, 1, stats.Statistics.TotalChecks)
	assert.InDelta(t, 1.0, stats.SuccessRate, 0.001)

	assert.Equal(t, fiber.StatusForbidden, env.do(t, "DELETE", "/api/v1/licenses/"+key, viewer, nil, nil, nil))
	assert.Equal(t, fiber.StatusNoContent, env.do(t, "DELETE", "/api/v1/licenses/"+key, env.adminToken, nil, nil, nil))
	assert.Equal(t, fiber.StatusNotFound, env.do(t, "DELETE", "/api/v1/licenses/"+key, env.adminToken, nil, nil, nil))
	assert.Equal(t, fiber.StatusNotFound, env.do(t, "GET", "/api/v1/licenses/"+key, env.adminToken, nil, nil, nil))

	var usage struct {
		Total int64 `json:"total"`
	}
	require.Equal(t, fiber.StatusOK, env.do(t, "GET", "/api/v1/licenses/"+key+"/usage", env.adminToken, nil, nil, &usage))
	assert.EqualValues(t, 1, usage.Total)

	var ops struct {
		Logs  []model.OperationLog `json:"logs"`
		Total int64                `json:"total"`
	}
	require.Equal(t, fiber.StatusOK, env.do(t, "GET", "/api/v1/logs", env.adminToken, nil, nil, &ops))
	require.NotEmpty(t, ops.Logs)
	assert.Equal(t, model.ActionLicensePurge, ops.Logs[0].Action)
	assert.Equal(t, fiber.StatusForbidden, env.do(t, "GET", "/api/v1/logs", viewer, nil, nil, nil))
}
