package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPMetricsMiddleware instruments requests with Prometheus metrics. Paths
// are normalized so per-resource IDs don't explode label cardinality.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)
		dur := time.Since(start)
		ObserveHTTPRequest(r.Method, normalizePath(r.URL.Path), strconv.Itoa(ww.status), dur)
	})
}

// normalizePath collapses resource IDs: /api/orders/abc123/cancel becomes
// /api/orders/:id/cancel.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		prev := parts[i-1]
		if prev == "orders" || prev == "inventory" || prev == "users" || prev == "discounts" {
			if parts[i] != "" && parts[i] != "quote" && parts[i] != "low-stock" && parts[i] != "me" {
				parts[i] = ":id"
			}
		}
	}
	return strings.Join(parts, "/")
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
