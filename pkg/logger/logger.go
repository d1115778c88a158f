// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns the logger the request middleware injected, already tagged
// with request_id, so every line from a handler is correlated:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("venta registrada", "venta_id", id)
//	// → time=... level=INFO msg="venta registrada" request_id=6f1c... venta_id=12
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/shashiranjanraj/rincon/config"
)

var L *slog.Logger

func init() {
	L = slog.New(consoleHandler(os.Stdout, config.AppEnv()))
	slog.SetDefault(L)
}

// consoleHandler is JSON in production and text everywhere else.
func consoleHandler(w io.Writer, env string) slog.Handler {
	switch env {
	case "production", "prod":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
}

// Setup rebuilds L from configuration. When LOG_MONGO_URI is set, records are
// also shipped to MongoDB; the returned func flushes and disconnects that sink.
// A Mongo connection failure is logged and the console handler is kept.
func Setup() func() {
	console := consoleHandler(os.Stdout, config.AppEnv())

	uri := config.LogMongoURI()
	if uri == "" {
		Use(slog.New(console))
		return func() {}
	}

	mh, err := NewMongoHandler(uri, config.LogMongoDB(), config.LogMongoCollection())
	if err != nil {
		Use(slog.New(console))
		L.Warn("mongo log sink disabled", "error", err)
		return func() {}
	}

	Use(slog.New(NewMultiHandler(console, mh)))
	return mh.Close
}

// Use replaces the base logger.
func Use(l *slog.Logger) {
	L = l
	slog.SetDefault(l)
}

// LevelFor maps an HTTP status to the level its access line is logged at.
func LevelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or the base
// logger when there is none.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
