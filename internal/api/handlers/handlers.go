package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/handlers/assessment"
	"github.com/vaishnavucv/droid-proctoring/internal/api/handlers/proctoring"
	sessionhandlers "github.com/vaishnavucv/droid-proctoring/internal/api/handlers/session"
)

// AttachAllRoutes binds every route of the service to the router groups.
func AttachAllRoutes(s *api.Server) []*echo.Route {
	return []*echo.Route{
		assessment.PostStartRoute(s),
		assessment.GetStatusRoute(s),
		assessment.PostCompleteRoute(s),
		assessment.PostResetRoute(s),

		sessionhandlers.PostMediaRoute(s),
		sessionhandlers.PostBeginRoute(s),
		sessionhandlers.PostFinishRoute(s),
		sessionhandlers.PostRetakeRoute(s),
		sessionhandlers.GetStatusRoute(s),
		sessionhandlers.PostFullscreenExitedRoute(s),
		sessionhandlers.PostVisibilityHiddenRoute(s),
		sessionhandlers.PostFullscreenRoute(s),

		proctoring.PostLogRoute(s),
		proctoring.GetLogsRoute(s),
		proctoring.PostRecordRoute(s),
		proctoring.GetSessionsRoute(s),
		proctoring.GetSessionChunksRoute(s),
		proctoring.GetSessionTimelineRoute(s),
		proctoring.GetFileRoute(s),
		proctoring.PostFrameRoute(s),
		proctoring.PostAnalyzeRoute(s),
		proctoring.PostFaceRegisterRoute(s),
		proctoring.PostFaceCheckRoute(s),
	}
}
