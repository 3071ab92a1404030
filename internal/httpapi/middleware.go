package httpapi

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"net/http"
	"time"

	"quizzly/internal/logger"
)

const maxLoggedErrorBody = 512

// statusRecorder captures the status and the head of the body so failed
// requests can be logged with their error payload.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
	maxLogBytes  int
	logBody      bytes.Buffer
	truncated    bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(payload []byte) (int, error) {
	if remaining := r.maxLogBytes - r.logBody.Len(); remaining > 0 {
		if len(payload) > remaining {
			r.logBody.Write(payload[:remaining])
			r.truncated = true
		} else {
			r.logBody.Write(payload)
		}
	} else if len(payload) > 0 {
		r.truncated = true
	}

	written, err := r.ResponseWriter.Write(payload)
	r.bytesWritten += written
	return written, err
}

// Hijack lets the socket upgrade pass through the middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func withRequestLogging(log *logger.Logger, next http.Handler) http.Handler {
	log = logger.OrNop(log)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			maxLogBytes:    maxLoggedErrorBody,
		}

		next.ServeHTTP(recorder, r)

		keysAndValues := []interface{}{
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.statusCode,
			"bytes", recorder.bytesWritten,
			"duration", time.Since(started),
		}
		switch {
		case recorder.statusCode >= http.StatusInternalServerError:
			log.Error("request failed", append(keysAndValues, "body", recorder.logBody.String(), "truncated", recorder.truncated)...)
		case recorder.statusCode >= http.StatusBadRequest:
			log.Warn("request rejected", append(keysAndValues, "body", recorder.logBody.String())...)
		default:
			log.Debug("request served", keysAndValues...)
		}
	})
}
