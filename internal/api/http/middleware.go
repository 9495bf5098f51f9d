package http

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"landrent-backend/internal/config"
	"landrent-backend/internal/logger"
	"landrent-backend/internal/security"
)

// AuthMiddleware authenticates requests to non-public routes and attaches
// the caller address to the request context.
type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.SecurityAccess
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				level = config.RequiredLevel(r.Method, tpl)
			}
		}

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			writeError(w, r, errUnauthenticated)
			return
		}

		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token: " + err.Error()})
			return
		}
		if claims.Type != security.TokenTypeAccess {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "access token required"})
			return
		}

		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), claims.Address)))
	})
}

func extractToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}

// RateLimiter keeps a token bucket per caller, keyed by the authenticated
// address or, for anonymous requests, the client IP. Idle buckets expire.
type RateLimiter struct {
	limiters *cache.Cache
	r        rate.Limit
	b        int
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		limiters: cache.New(10*time.Minute, 20*time.Minute),
		r:        r,
		b:        b,
	}
}

// GetLimiter returns the limiter for key, creating it on first use.
func (l *RateLimiter) GetLimiter(key string) *rate.Limiter {
	if v, found := l.limiters.Get(key); found {
		l.limiters.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(l.r, l.b)
	// Add fails when a concurrent request created the bucket first.
	if err := l.limiters.Add(key, limiter, cache.DefaultExpiration); err != nil {
		if v, found := l.limiters.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if caller, ok := CallerFromContext(r.Context()); ok {
			key = caller.String()
		}
		if !l.GetLimiter(key).Allow() {
			logger.Warn("Rate limit exceeded", "key", key, "path", r.URL.Path)
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
