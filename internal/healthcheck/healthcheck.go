// Package healthcheck runs an optional liveness endpoint next to the
// bot process.
package healthcheck

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// NormalizeListen turns a config value into a listen address. A bare
// port ("8086") becomes ":8086"; empty means disabled.
func NormalizeListen(listen string) string {
	listen = strings.TrimSpace(listen)
	if listen == "" {
		return ""
	}
	if !strings.Contains(listen, ":") {
		return ":" + listen
	}
	return listen
}

// StartServer starts an HTTP server answering GET /healthz with the
// component name. The returned server should be shut down on exit.
func StartServer(ctx context.Context, logger *slog.Logger, listen, component string) (*http.Server, error) {
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return nil, fmt.Errorf("health listen %s: %w", listen, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "ok %s\n", component)
	})

	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Warn("health_server_error", "addr", listen, "error", err.Error())
		}
	}()
	logger.Info("health_server_start", "addr", ln.Addr().String(), "component", component)
	return srv, nil
}
