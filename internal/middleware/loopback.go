// Package middleware provides HTTP middlewares for access control, locale
// negotiation and logging.
package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/atinyakov/AgriVision/internal/locale"
)

type ctxKey string

const localeKey ctxKey = "locale"

// LoopbackOnly rejects requests that do not come from the local machine.
// The local API holds one device's session and must not be reachable from
// the network even when bound to a wider address.
func LoopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Locale negotiates the request's Accept-Language header against the
// supported languages and stores the result in the request context.
func Locale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := locale.Negotiate(r.Header.Get("Accept-Language"))
		ctx := context.WithValue(r.Context(), localeKey, code)
		w.Header().Set("Content-Language", string(code))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetLocaleFromContext returns the negotiated language, or English if the
// Locale middleware did not run.
func GetLocaleFromContext(ctx context.Context) locale.Code {
	if c, ok := ctx.Value(localeKey).(locale.Code); ok {
		return c
	}
	return locale.English
}
