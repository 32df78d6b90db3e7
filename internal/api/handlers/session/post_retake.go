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

func PostRetakeRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Session.POST("/retake", postRetakeHandler(s))
}

func postRetakeHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		err := s.Controller.Retake(ctx)
		if errors.Is(err, session.ErrInvalidState) {
			return httperrors.NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeInvalidState, "No finished session to retake")
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to reset session for retake")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to reset session for retake")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GenericSuccessResponse{Success: true})
	}
}
