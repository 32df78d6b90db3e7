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

func PostFullscreenRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Session.POST("/fullscreen", postFullscreenHandler(s))
}

func postFullscreenHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostFullscreenPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		err := s.Controller.RequestFullscreen(ctx, body.Justification)
		switch {
		case errors.Is(err, session.ErrJustificationRequired):
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeJustification, "A justification is required to re-enter fullscreen")
		case errors.Is(err, session.ErrInvalidState):
			return httperrors.NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeInvalidState, "No running session")
		case err != nil:
			log.Error().Err(err).Msg("Failed to process fullscreen request")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to process fullscreen request")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GenericSuccessResponse{Success: true})
	}
}
