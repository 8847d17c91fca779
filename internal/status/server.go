package status

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server hosts the optional --metrics-listen endpoint: /metrics for
// Prometheus scraping and /healthz as a liveness probe.
type Server struct {
	echo *echo.Echo
}

// NewServer builds a Server with its /metrics and /healthz routes. It does
// not listen until Start is called with an address.
func NewServer() *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	return &Server{echo: e}
}

// Start begins serving on addr; it blocks until ctx is cancelled or the
// server fails, and always shuts the listener down cleanly on return.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(addr)
	}()

	select {
	case <-ctx.Done():
		return s.echo.Shutdown(context.Background())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
