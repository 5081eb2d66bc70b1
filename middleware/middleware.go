// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/danielhkuo/riot-network/models"
	"github.com/danielhkuo/riot-network/muxvideo"
	"github.com/danielhkuo/riot-network/paypal"
	"github.com/danielhkuo/riot-network/supabase"
)

// maxJSONBody caps request bodies read by ParseJSONBody
const maxJSONBody = 1 << 20

// Upstream service names used in error messages
const (
	ServicePayments = "Payment provider"
	ServiceVideo    = "Video provider"
	ServiceAuth     = "Authentication service"
	ServiceStorage  = "Storage"
)

// WithLogging wraps a handler with request logging
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		attrs := []any{
			"method", r.Method,
			"route", r.Pattern,
			"path", r.URL.Path,
			"client", GetClientIP(r),
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if rec.status >= 500 {
			slog.Warn("request failed", attrs...)
			return
		}
		slog.Info("request completed", attrs...)
	}
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// UpstreamError answers for a failed call to an external service. Rejected
// credentials give 401 with the provider's message, a missing remote
// resource gives 404 with message, a timeout 504 and anything else 502.
func UpstreamError(w http.ResponseWriter, err error, service, message string) {
	status := UpstreamStatus(err)

	switch status {
	case http.StatusUnauthorized:
		var sbErr *supabase.Error
		if errors.As(err, &sbErr) && sbErr.Message != "" {
			message = sbErr.Message
		}
	case http.StatusGatewayTimeout:
		message = service + " timed out, please try again"
	case http.StatusBadGateway:
		message = service + " unavailable"
	}

	if status >= 500 {
		slog.Error("upstream call failed", "service", service, "status", status, "error", err)
	}
	ErrorResponse(w, status, message)
}

// UpstreamStatus maps a provider client error to the status we answer with
func UpstreamStatus(err error) int {
	var (
		ppErr  *paypal.APIError
		muxErr *muxvideo.APIError
		sbErr  *supabase.Error
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case supabase.IsAuthError(err):
		return http.StatusUnauthorized
	case paypal.IsNotFound(err), muxvideo.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &ppErr), errors.As(err, &muxErr), errors.As(err, &sbErr):
		return http.StatusBadGateway
	}
	// Transport failures never reached the provider
	return http.StatusBadGateway
}

// ParseJSONBody parses a request body of at most 1 MiB into v
func ParseJSONBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v)
}

// CORS allows credentialed cross-origin requests from the listed front-end
// origins only. Other origins get no CORS headers, and their preflights 403.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		allowed = append(allowed, strings.TrimRight(o, "/"))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			ok := origin != "" && slices.Contains(allowed, origin)

			w.Header().Add("Vary", "Origin")
			if ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if !ok {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				w.Header().Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// TrustProxy replaces RemoteAddr with the client address reported by the
// reverse proxy in front of the server: X-Real-IP, else the last
// X-Forwarded-For hop, which is the one the proxy appended. Only install it
// when every request arrives through that proxy.
func TrustProxy(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := proxiedIP(r.Header); ip != "" {
			r.RemoteAddr = net.JoinHostPort(ip, "0")
		}
		next.ServeHTTP(w, r)
	})
}

func proxiedIP(h http.Header) string {
	if xri := strings.TrimSpace(h.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	hops := strings.Split(h.Get("X-Forwarded-For"), ",")
	last := strings.TrimSpace(hops[len(hops)-1])
	if net.ParseIP(last) != nil {
		return last
	}
	return ""
}

// GetClientIP returns the host part of RemoteAddr. Forwarding headers are
// honored only through TrustProxy.
func GetClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
