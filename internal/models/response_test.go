package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("something went wrong", ErrorCodeInternalError)

	assert.Equal(t, "error", resp.Error)
	assert.Equal(t, "something went wrong", resp.Message)
	assert.Equal(t, ErrorCodeInternalError, resp.Code)
	assert.WithinDuration(t, time.Now(), resp.Timestamp, time.Second)
	assert.Empty(t, resp.Details)
	assert.Empty(t, resp.RequestID)
}

func TestErrorResponseJSONOmitsEmptyFields(t *testing.T) {
	resp := NewErrorResponse("bad input", ErrorCodeBadRequest)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "details")
	assert.NotContains(t, string(data), "request_id")
}

func TestLockoutStatusResponseJSON(t *testing.T) {
	until := time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC)
	resp := LockoutStatusResponse{
		Kind:              "username",
		Identifier:        "alice",
		Locked:            true,
		Attempts:          5,
		RemainingAttempts: 0,
		LockedUntil:       &until,
		RetryAfterSeconds: 300,
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "username", decoded["kind"])
	assert.Equal(t, "alice", decoded["identifier"])
	assert.Equal(t, true, decoded["locked"])
	assert.Equal(t, float64(300), decoded["retry_after_seconds"])
	assert.Contains(t, decoded, "locked_until")
}

func TestLockoutStatusResponseUnlockedOmitsLockFields(t *testing.T) {
	resp := LockoutStatusResponse{
		Kind:              "ip",
		Identifier:        "192.0.2.1",
		Locked:            false,
		Attempts:          2,
		RemainingAttempts: 3,
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "locked_until")
	assert.NotContains(t, string(data), "retry_after_seconds")
}

func TestNewHealthCheckResponse(t *testing.T) {
	resp := NewHealthCheckResponse(StatusHealthy)

	assert.Equal(t, StatusHealthy, resp.Status)
	assert.NotNil(t, resp.Components)
	assert.NotNil(t, resp.Metrics)
	assert.WithinDuration(t, time.Now(), resp.Timestamp, time.Second)
}

func TestHealthCheckResponse_AddComponent(t *testing.T) {
	resp := NewHealthCheckResponse(StatusHealthy)
	resp.AddComponent("guard", StatusHealthy, "tracking 12 identifiers")

	comp, ok := resp.Components["guard"]
	require.True(t, ok)
	assert.Equal(t, StatusHealthy, comp.Status)
	assert.Equal(t, "tracking 12 identifiers", comp.Message)
}

func TestHealthCheckResponse_AddMetric(t *testing.T) {
	resp := NewHealthCheckResponse(StatusHealthy)
	resp.AddMetric("locked_usernames", 3)
	resp.AddMetric("locked_ips", 0)

	assert.Equal(t, 3, resp.Metrics["locked_usernames"])
	assert.Equal(t, 0, resp.Metrics["locked_ips"])
}
