package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/handlers"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
)

// Init attaches the echo instance, the route groups and every handler to the
// server.
func Init(s *api.Server) {
	s.Echo = echo.New()
	s.Echo.HideBanner = true

	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.RequestID())
	httperrors.HandlerWithConfig(s.Echo)

	s.Router = &api.Router{
		Root:            s.Echo.Group(""),
		Management:      s.Echo.Group("/-"),
		APIV1Assessment: s.Echo.Group("/api/v1/assessment"),
		APIV1Proctoring: s.Echo.Group("/api/v1/proctoring"),
		APIV1Session:    s.Echo.Group("/api/v1/session"),
	}

	s.Router.Management.GET("/healthy", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	s.Router.Management.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.Router.Routes = handlers.AttachAllRoutes(s)
}
