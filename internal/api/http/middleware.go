package http

import (
	"net/http"
	"strings"
	"time"

	"sponsorhub-backend/internal/config"
	"sponsorhub-backend/internal/logger"
	"sponsorhub-backend/internal/security"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

// Handler authenticates requests according to the security level of the matched route
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		level := config.GetSecurityLevel(routeName(r))

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			if level == config.SecurityOptional {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, r, errUnauthenticated)
			return
		}

		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			logger.Debug("Rejected bearer token", "route", routeName(r), "error", err)
			writeError(w, r, errInvalidToken)
			return
		}
		if claims.Type != security.TokenTypeAccess {
			writeError(w, r, errAccessRequired)
			return
		}

		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), claims.UserID)))
	})
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		return route.GetName()
	}
	return ""
}

func extractToken(r *http.Request) string {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger tags the request context with a request id and logs one line per request
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := logger.WithRequestID(r.Context(), requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		logger.InfoContext(ctx, "HTTP request",
			"method", r.Method,
			"route", routeName(r),
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
