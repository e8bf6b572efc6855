// server.go - Echo wiring for the report API
package report

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// NewServer builds the echo instance with middleware and routes registered.
func NewServer(h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 * 1024,
	}))
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/api/health"
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{
			"http://localhost:3000", "http://127.0.0.1:3000",
			"http://localhost:3001", "http://127.0.0.1:3001",
		},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	RegisterRoutes(e, h)
	return e
}

// RegisterRoutes attaches the report endpoints to an echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	api := e.Group("/api")
	api.GET("/health", h.HandleHealth)

	rep := api.Group("/report")
	rep.GET("/summary", h.HandleSummary)
	rep.GET("/systems", h.HandleSystems)
	rep.GET("/credentials", h.HandleCredentials)
	rep.GET("/cookies", h.HandleCookies)
	rep.GET("/domains", h.HandleDomainCounts)
	rep.GET("/export/:format", h.HandleExport)
}

// Serve runs the report server at addr until it fails or is shut down.
func Serve(h *Handler, addr string) error {
	e := NewServer(h)
	s := &http.Server{
		Addr:         addr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}
	return e.StartServer(s)
}
