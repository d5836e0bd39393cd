// Package telemetry wraps Sentry error capture and tracing.
package telemetry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const (
	serviceName  = "mcqgen"
	flushTimeout = 5 * time.Second
)

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	Debug            bool
}

// Init initializes Sentry with tracing enabled and returns a function that
// flushes pending events. Without a DSN it is a no-op.
func Init(cfg Config, log *zap.Logger) (func(), error) {
	if cfg.DSN == "" {
		return func() {}, nil
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate == 0 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
		ServerName:       serviceName,
		TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
			if ctx.Span.Name == "GET /health" {
				return 0.0
			}
			// Child spans follow the parent's decision.
			var emptySpanID sentry.SpanID
			if ctx.Span.ParentSpanID != emptySpanID {
				if ctx.Span.Sampled.Bool() {
					return 1.0
				}
				return 0.0
			}
			return cfg.TracesSampleRate
		}),
	})
	if err != nil {
		log.Warn("sentry init failed, continuing without tracing", zap.Error(err))
		return func() {}, nil
	}

	log.Info("sentry tracing initialized",
		zap.String("environment", cfg.Environment),
		zap.Float64("sample_rate", cfg.TracesSampleRate))

	return func() { sentry.Flush(flushTimeout) }, nil
}

// SpanAttributes are the tags attached to pipeline and service spans.
type SpanAttributes struct {
	QuestionSetID string
	JobID         string
	Operation     string
	MaxItems      int
}

// Span wraps sentry.Span; a nil inner span makes every method a no-op.
type Span struct {
	inner *sentry.Span
}

// End finishes the span.
func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

// SetStatus sets the span status.
func (s *Span) SetStatus(status sentry.SpanStatus) {
	if s.inner != nil {
		s.inner.Status = status
	}
}

// SetData attaches a value to the span.
func (s *Span) SetData(key string, value any) {
	if s.inner != nil {
		s.inner.SetData(key, value)
	}
}

// SetError marks the span as errored and captures err.
func (s *Span) SetError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	if hub := sentry.GetHubFromContext(s.inner.Context()); hub != nil {
		hub.CaptureException(err)
	}
}

func setAttributes(span *sentry.Span, attrs SpanAttributes) {
	if span == nil {
		return
	}
	if attrs.QuestionSetID != "" {
		span.SetTag("question_set_id", attrs.QuestionSetID)
	}
	if attrs.JobID != "" {
		span.SetTag("job_id", attrs.JobID)
	}
	if attrs.Operation != "" {
		span.SetData("operation", attrs.Operation)
	}
	if attrs.MaxItems > 0 {
		span.SetData("max_items", attrs.MaxItems)
	}
}

// StartSpan starts a child of the span in ctx, or a new transaction when
// ctx carries none.
func StartSpan(ctx context.Context, name string, attrs SpanAttributes) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	setAttributes(span, attrs)

	return span.Context(), &Span{inner: span}
}

// CaptureError reports err through the hub in ctx, or the global hub.
func CaptureError(ctx context.Context, err error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
