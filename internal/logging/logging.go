// Package logging builds the process logger and the request logging
// middleware.
package logging

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-hyperdemo/internal/config"
	"github.com/goliatone/go-hyperdemo/pkg/enhance"
)

// HeaderRequestID carries the request id in and out.
const HeaderRequestID = "X-Request-Id"

// New builds a zap logger from cfg. verbose forces debug level.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "console") {
		zcfg = zap.NewDevelopmentConfig()
	}

	level := zapcore.InfoLevel
	if raw := strings.TrimSpace(cfg.Level); raw != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
			return nil, fmt.Errorf("logging: level %q: %w", raw, err)
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger, nil
}

// Middleware logs one line per request and makes sure every response
// carries a request id, reusing the caller's when present.
func Middleware(logger *zap.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(HeaderRequestID, id)
		}
		w.Header().Set(HeaderRequestID, id)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		client := enhance.Detect(r)
		fields := []zap.Field{
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.Status()),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
			zap.Bool("enhanced", client.Enhanced()),
		}
		if client.Library != "" {
			fields = append(fields, zap.String("library", string(client.Library)))
		}

		switch status := rec.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
