package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"bruteguard/internal/lockout"
)

// InstrumentedGuard wraps a lockout.Guard implementation with OpenTelemetry
// tracing and metrics instrumentation.
type InstrumentedGuard struct {
	inner    lockout.Guard
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
	failures metric.Int64Counter
	lockouts metric.Int64Counter
}

// NewInstrumentedGuard creates a guard wrapper that records trace spans,
// operation latency histograms, and counters for failed attempts and
// triggered lockouts.
func NewInstrumentedGuard(inner lockout.Guard) (*InstrumentedGuard, error) {
	tracer := otel.Tracer("bruteguard/guard")
	meter := otel.Meter("bruteguard/guard")

	duration, err := meter.Float64Histogram(
		"guard.operation.duration",
		metric.WithDescription("Duration of guard operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"guard.operation.errors",
		metric.WithDescription("Number of guard operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"guard.failed_attempts",
		metric.WithDescription("Number of failed authentication attempts recorded"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	lockouts, err := meter.Int64Counter(
		"guard.lockouts",
		metric.WithDescription("Number of lockouts triggered, by key kind"),
		metric.WithUnit("{lockout}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedGuard{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
		failures: failures,
		lockouts: lockouts,
	}, nil
}

var _ lockout.Guard = (*InstrumentedGuard)(nil)

func (g *InstrumentedGuard) startSpan(operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := g.tracer.Start(context.Background(), "guard."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("guard.operation", operation),
		}, attrs...)...),
	)
	return ctx, span
}

func (g *InstrumentedGuard) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	g.duration.Record(ctx, elapsed, attrs)

	if err != nil {
		g.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

func (g *InstrumentedGuard) Allowed(ip, username string) (bool, error) {
	ctx, span := g.startSpan("Allowed")
	start := time.Now()
	allowed, err := g.inner.Allowed(ip, username)
	if err == nil {
		span.SetAttributes(attribute.Bool("guard.allowed", allowed))
	}
	g.record(ctx, span, "Allowed", start, err)
	return allowed, err
}

func (g *InstrumentedGuard) RecordFailure(ip, username string) (lockout.Status, lockout.Status, error) {
	ctx, span := g.startSpan("RecordFailure")
	start := time.Now()
	ipStatus, userStatus, err := g.inner.RecordFailure(ip, username)
	if err == nil {
		g.failures.Add(ctx, 1)
		if ipStatus.Locked {
			g.lockouts.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "ip")))
		}
		if userStatus.Locked {
			g.lockouts.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "username")))
		}
		span.SetAttributes(
			attribute.Bool("guard.ip_locked", ipStatus.Locked),
			attribute.Bool("guard.username_locked", userStatus.Locked),
		)
	}
	g.record(ctx, span, "RecordFailure", start, err)
	return ipStatus, userStatus, err
}

func (g *InstrumentedGuard) Reset(ip, username string) error {
	ctx, span := g.startSpan("Reset")
	start := time.Now()
	err := g.inner.Reset(ip, username)
	g.record(ctx, span, "Reset", start, err)
	return err
}

func (g *InstrumentedGuard) ResetIP(ip string) error {
	ctx, span := g.startSpan("ResetIP")
	start := time.Now()
	err := g.inner.ResetIP(ip)
	g.record(ctx, span, "ResetIP", start, err)
	return err
}

func (g *InstrumentedGuard) ResetUser(username string) error {
	ctx, span := g.startSpan("ResetUser")
	start := time.Now()
	err := g.inner.ResetUser(username)
	g.record(ctx, span, "ResetUser", start, err)
	return err
}

func (g *InstrumentedGuard) IPStatus(ip string) (lockout.Status, error) {
	ctx, span := g.startSpan("IPStatus")
	start := time.Now()
	st, err := g.inner.IPStatus(ip)
	g.record(ctx, span, "IPStatus", start, err)
	return st, err
}

func (g *InstrumentedGuard) UserStatus(username string) (lockout.Status, error) {
	ctx, span := g.startSpan("UserStatus")
	start := time.Now()
	st, err := g.inner.UserStatus(username)
	g.record(ctx, span, "UserStatus", start, err)
	return st, err
}

func (g *InstrumentedGuard) LockedIPs() []string {
	ctx, span := g.startSpan("LockedIPs")
	start := time.Now()
	ids := g.inner.LockedIPs()
	span.SetAttributes(attribute.Int("guard.locked_count", len(ids)))
	g.record(ctx, span, "LockedIPs", start, nil)
	return ids
}

func (g *InstrumentedGuard) LockedUsers() []string {
	ctx, span := g.startSpan("LockedUsers")
	start := time.Now()
	ids := g.inner.LockedUsers()
	span.SetAttributes(attribute.Int("guard.locked_count", len(ids)))
	g.record(ctx, span, "LockedUsers", start, nil)
	return ids
}

func (g *InstrumentedGuard) Sweep() int {
	ctx, span := g.startSpan("Sweep")
	start := time.Now()
	removed := g.inner.Sweep()
	span.SetAttributes(attribute.Int("guard.evicted", removed))
	g.record(ctx, span, "Sweep", start, nil)
	return removed
}

func (g *InstrumentedGuard) Close() {
	g.inner.Close()
}
