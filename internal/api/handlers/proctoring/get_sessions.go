package proctoring

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func GetSessionsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Proctoring.GET("/sessions", getSessionsHandler(s))
}

func getSessionsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		sessions, err := s.Segments.ListSessions()
		if err != nil {
			log.Error().Err(err).Msg("Failed to list recorded sessions")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to list recorded sessions")
		}

		items := make([]types.SessionItem, 0, len(sessions))
		for _, session := range sessions {
			items = append(items, types.SessionItem{
				ID:        session.ID,
				Name:      session.Name,
				Timestamp: session.Timestamp,
			})
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.SessionListResponse{
			Success:  true,
			Sessions: items,
		})
	}
}
