// Package debugserver exposes profiling and metrics on a separate listener.
// Loopback callers are trusted; everyone else needs basic-auth credentials.
package debugserver

import (
	"crypto/subtle"
	"net"
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Credentials guard non-loopback access. Empty credentials deny remote callers.
type Credentials struct {
	User string
	Pass string
}

// Handler returns the debug routes: /metrics and /debug/pprof/*.
func Handler(creds Credentials, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(guard(creds))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/debug/pprof", func(r chi.Router) {
		r.HandleFunc("/", pprof.Index)
		r.HandleFunc("/cmdline", pprof.Cmdline)
		r.HandleFunc("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.HandleFunc("/trace", pprof.Trace)
		for _, name := range []string{"heap", "goroutine", "allocs", "block", "mutex", "threadcreate"} {
			r.Handle("/"+name, pprof.Handler(name))
		}
	})
	return r
}

func guard(creds Credentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if fromLoopback(r.RemoteAddr) || creds.match(r) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}

func (c Credentials) match(r *http.Request) bool {
	if c.User == "" || c.Pass == "" {
		return false
	}
	u, p, ok := r.BasicAuth()
	return ok && constEq(u, c.User) && constEq(p, c.Pass)
}

func constEq(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func fromLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
