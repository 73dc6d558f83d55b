package logging

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Logger = zerolog.Logger

// Access-log output formats.
const (
	LogConsolePretty string = "consolepretty"
)

// init sets the time zone to UTC.
func init() {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}
}

// InitZerolog initializes the global zerolog logger used for access logging.
func InitZerolog(level string, logFormat string) (*Logger, error) {
	switch logFormat {
	case LogJSON:
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	case LogConsolePretty:
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	case LogDiscard:
		log.Logger = zerolog.New(io.Discard)
	default:
		return nil, fmt.Errorf("logFormat %q not known", logFormat)
	}
	logLevelZ, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("could not parse log level %q", level)
	}
	zerolog.SetGlobalLevel(logLevelZ)
	return &log.Logger, nil
}

// GetGlobalLogger returns the global zerolog logger instance.
func GetGlobalLogger() *Logger {
	return &log.Logger
}

// ZerologMiddleware logs access and converts panics to stack traces.
func ZerologMiddleware(logger *zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			startTime := time.Now()

			defer func() {
				endTime := time.Now()
				errorLog := subLoggerWithRequestIDAndTopic(r, "error")

				// Recover and record stack traces in case of a panic
				if rec := recover(); rec != nil {
					errorLog.Panic().
						Timestamp().
						Interface("recover_info", rec).
						Bytes("debug_stack", debug.Stack()).
						Msg("Runtime error (panic)")
					http.Error(ww, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}

				accessLog := subLoggerWithRequestIDAndTopic(r, "access")
				accessLog.Info().
					Timestamp().
					Fields(map[string]interface{}{
						"remote_ip":  r.RemoteAddr,
						"url":        r.URL.Path,
						"proto":      r.Proto,
						"method":     r.Method,
						"user_agent": r.Header.Get("User-Agent"),
						"status":     ww.Status(),
						"latency_ms": float64(endTime.Sub(startTime).Nanoseconds()) / 1000000.0,
						"bytes_in":   r.Header.Get("Content-Length"),
						"bytes_out":  ww.BytesWritten(),
					}).
					Msg("Incoming request")
			}()
			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

// subLoggerWithRequestIDAndTopic creates a sub-logger with request_id and
// topic fields.
func subLoggerWithRequestIDAndTopic(r *http.Request, topic string) *zerolog.Logger {
	logger := log.Logger.With().
		Str("request_id", GetRequestID(r)).
		Str("topic", topic).
		Logger()
	return &logger
}
