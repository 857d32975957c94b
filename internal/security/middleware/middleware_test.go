package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yourorg/storefront/internal/security/audit"
)

// The audit middleware wraps the mux, so it sees requests before routing and
// cannot rely on wildcard path values. It must still record the real resource
// ID from the raw path.
func TestAuditMiddlewareRecordsResourceID(t *testing.T) {
	cases := []struct {
		name   string
		method string
		path   string
		want   string
	}{
		{"order cancel", http.MethodPost, "/api/orders/abc123/cancel", `"resource_id":"abc123"`},
		{"stock adjust", http.MethodPost, "/api/inventory/rec-9/stock", `"resource_id":"rec-9"`},
		{"user deactivate", http.MethodDelete, "/api/users/u42", `"resource_id":"u42"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			auditLog := audit.NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/orders/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {})
			mux.HandleFunc("POST /api/inventory/{id}/stock", func(w http.ResponseWriter, r *http.Request) {})
			mux.HandleFunc("DELETE /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {})

			handler := AuditMiddleware(auditLog)(mux)
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, nil))

			if !strings.Contains(buf.String(), tc.want) {
				t.Fatalf("audit entry missing %s: %s", tc.want, buf.String())
			}
			if strings.Contains(buf.String(), `"resource_id":""`) {
				t.Fatalf("audit entry recorded an empty resource ID: %s", buf.String())
			}
		})
	}
}
