package proctoring

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func GetLogsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Proctoring.GET("/logs/:folder", getLogsHandler(s))
}

func getLogsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		folder := c.Param("folder")
		if folder == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidationFailed, "folder is required")
		}

		events, file, err := s.Logs.Lookup(folder)
		if err != nil {
			log.Error().Err(err).Str("folder", folder).Msg("Failed to look up violation logs")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to look up violation logs")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.ProctoringLogsResponse{
			Success: true,
			File:    file,
			Logs:    events,
		})
	}
}
