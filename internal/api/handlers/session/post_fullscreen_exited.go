package session

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/session"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func PostFullscreenExitedRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Session.POST("/fullscreen-exited", postFullscreenExitedHandler(s))
}

func postFullscreenExitedHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		err := s.Controller.FullscreenExited(ctx)
		if errors.Is(err, session.ErrInvalidState) {
			return httperrors.NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeInvalidState, "No running session")
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to record fullscreen exit")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to record fullscreen exit")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GenericSuccessResponse{Success: true})
	}
}
