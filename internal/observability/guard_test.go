package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"bruteguard/internal/lockout"
	"bruteguard/internal/models"
	"bruteguard/internal/version"
)

func testGuard(t *testing.T) lockout.Guard {
	t.Helper()

	cfg := lockout.ProtectorConfig{
		IP: lockout.Config{
			MaxAttempts:   10,
			Window:        time.Minute,
			Lockout:       time.Minute,
			RetentionIdle: 5 * time.Minute,
		},
		Username: lockout.Config{
			MaxAttempts:   3,
			Window:        time.Minute,
			Lockout:       time.Minute,
			RetentionIdle: 5 * time.Minute,
		},
	}

	protector, err := lockout.NewProtector(cfg)
	require.NoError(t, err)
	t.Cleanup(protector.Close)
	return protector
}

func setupInstrumentedGuard(t *testing.T) *InstrumentedGuard {
	t.Helper()

	metrics := models.MetricsConfig{Enabled: true, Path: "/metrics", Port: 9090}
	obs := models.ObservabilityConfig{
		ServiceName: "test",
		Tracing:     models.TracingConfig{Enabled: false},
	}

	provider, err := Setup(metrics, obs, version.Info{})
	require.NoError(t, err)
	t.Cleanup(func() { provider.Shutdown(context.Background()) })

	guard, err := NewInstrumentedGuard(testGuard(t))
	require.NoError(t, err)
	return guard
}

func TestInstrumentedGuard_PassesThrough(t *testing.T) {
	guard := setupInstrumentedGuard(t)

	allowed, err := guard.Allowed("192.0.2.1", "alice")
	require.NoError(t, err)
	assert.True(t, allowed)

	ipStatus, userStatus, err := guard.RecordFailure("192.0.2.1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, ipStatus.Attempts)
	assert.Equal(t, 1, userStatus.Attempts)
	assert.False(t, userStatus.Locked)

	st, err := guard.UserStatus("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Attempts)
	assert.Equal(t, 2, st.Remaining)
}

func TestInstrumentedGuard_LockoutFlow(t *testing.T) {
	guard := setupInstrumentedGuard(t)

	for i := 0; i < 3; i++ {
		_, userStatus, err := guard.RecordFailure("192.0.2.1", "bob")
		require.NoError(t, err)
		if i == 2 {
			assert.True(t, userStatus.Locked)
		}
	}

	allowed, err := guard.Allowed("192.0.2.1", "bob")
	require.NoError(t, err)
	assert.False(t, allowed)

	assert.Equal(t, []string{"bob"}, guard.LockedUsers())
	assert.Empty(t, guard.LockedIPs())

	require.NoError(t, guard.ResetUser("bob"))

	allowed, err = guard.Allowed("192.0.2.1", "bob")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestInstrumentedGuard_PropagatesErrors(t *testing.T) {
	guard := setupInstrumentedGuard(t)

	_, _, err := guard.RecordFailure("", "alice")
	assert.ErrorIs(t, err, lockout.ErrInvalidIdentifier)

	_, err = guard.UserStatus("")
	assert.ErrorIs(t, err, lockout.ErrInvalidIdentifier)

	err = guard.Reset("", "")
	assert.ErrorIs(t, err, lockout.ErrInvalidIdentifier)
}

func TestInstrumentedGuard_ExportsPrometheusMetrics(t *testing.T) {
	// A dedicated registry keeps this test independent of collectors other
	// tests have registered globally.
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	require.NoError(t, err)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	t.Cleanup(func() { mp.Shutdown(context.Background()) })
	otel.SetMeterProvider(mp)

	guard, err := NewInstrumentedGuard(testGuard(t))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, err := guard.RecordFailure("192.0.2.1", "eve")
		require.NoError(t, err)
	}

	families, err := registry.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	var haveDuration, haveLockouts bool
	for name, mf := range byName {
		if strings.HasPrefix(name, "guard_operation_duration") {
			haveDuration = true
			assert.Equal(t, dto.MetricType_HISTOGRAM, mf.GetType())
		}
		if strings.HasPrefix(name, "guard_lockouts") {
			haveLockouts = true
			assert.Equal(t, dto.MetricType_COUNTER, mf.GetType())
		}
	}
	assert.True(t, haveDuration, "expected a guard operation duration histogram")
	assert.True(t, haveLockouts, "expected a guard lockouts counter")
}

func TestInstrumentedGuard_Sweep(t *testing.T) {
	guard := setupInstrumentedGuard(t)

	_, _, err := guard.RecordFailure("192.0.2.1", "carol")
	require.NoError(t, err)

	// Nothing is idle yet, so the sweep evicts nothing.
	assert.Equal(t, 0, guard.Sweep())
}
