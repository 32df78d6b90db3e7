package session

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func GetStatusRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Session.GET("/status", getStatusHandler(s))
}

func getStatusHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		snapshot, err := s.Controller.Status(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to read session status")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to read session status")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.SessionStatusResponse{
			State:                string(snapshot.State),
			SessionKey:           snapshot.SessionKey,
			Folder:               snapshot.Folder,
			WarningCount:         snapshot.WarningCount,
			RemainingSeconds:     snapshot.RemainingSeconds,
			PendingJustification: snapshot.PendingJustification,
		})
	}
}
