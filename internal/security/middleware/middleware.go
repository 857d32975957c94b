package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/storefront/internal/security/audit"
	"github.com/yourorg/storefront/internal/security/auth"
	"github.com/yourorg/storefront/internal/security/ratelimit"
)

type ClaimsContextKey struct{}
type UserContextKey struct{}

// AccessVerifier checks an access token's signature, expiry and revocation
// state.
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, accessToken string) (*auth.Claims, error)
}

// publicPath reports whether a request path is reachable without a token.
func publicPath(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics",
		"/api/auth/register", "/api/auth/login", "/api/auth/refresh":
		return true
	}
	return strings.HasPrefix(path, "/ws/orders/")
}

// authPath reports whether a path belongs to the credential endpoints that get
// the strict rate limit.
func authPath(path string) bool {
	return path == "/api/auth/register" || path == "/api/auth/login" || path == "/api/auth/refresh"
}

func JWTMiddleware(verifier AccessVerifier, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS preflight carries no credentials.
			if r.Method == http.MethodOptions || publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"success":false,"message":"missing authorization header"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"success":false,"message":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.VerifyAccess(r.Context(), tokenString)
			if err != nil {
				log.Info("rejected access token", slog.String("path", r.URL.Path))
				http.Error(w, `{"success":false,"message":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			ctx = context.WithValue(ctx, UserContextKey{}, claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware applies the standard limit per authenticated user and a
// strict limit per client address on the credential endpoints.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if authPath(r.URL.Path) {
				if !limiter.AllowStrict(clientAddr(r), 10, time.Minute) {
					log.Warn("rate limit exceeded on auth endpoint", slog.String("addr", clientAddr(r)))
					http.Error(w, `{"success":false,"message":"too many requests"}`, http.StatusTooManyRequests)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := GetUserFromContext(r.Context())
			if key == "" {
				key = clientAddr(r)
			}
			if !limiter.Allow(key) {
				http.Error(w, `{"success":false,"message":"too many requests"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records the mutating API calls before they execute.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserFromContext(r.Context())

			switch {
			case r.Method == http.MethodPost && r.URL.Path == "/api/orders":
				auditLog.LogCheckout(r.Context(), userID, "", "initiated", "")
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/cancel"):
				auditLog.LogOrderChange(r.Context(), userID, pathID(r.URL.Path, "/cancel"), "cancel", "initiated")
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/stock"):
				auditLog.LogStockMutation(r.Context(), userID, pathID(r.URL.Path, "/stock"), "adjust_stock", "initiated")
			case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/users/"):
				auditLog.LogAction(r.Context(), userID, "", "deactivate", "user", pathID(r.URL.Path, ""), "initiated", "")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// pathID returns the path segment preceding suffix. The middleware runs
// outside the mux, so wildcard path values are not populated yet and the
// resource ID has to come from the raw path.
func pathID(urlPath, suffix string) string {
	trimmed := strings.TrimSuffix(urlPath, suffix)
	return trimmed[strings.LastIndex(trimmed, "/")+1:]
}

// clientAddr strips the port from RemoteAddr so one client shares one bucket
// across connections.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func GetUserFromContext(ctx context.Context) string {
	if u := ctx.Value(UserContextKey{}); u != nil {
		return u.(string)
	}
	return ""
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}
