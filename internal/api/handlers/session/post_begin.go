package session

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/session"
	"github.com/vaishnavucv/droid-proctoring/internal/storage"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func PostBeginRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Session.POST("/begin", postBeginHandler(s))
}

func postBeginHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostSessionBeginPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		user := session.User{
			UserID:   swag.StringValue(body.UserID),
			Username: swag.StringValue(body.Username),
			CourseID: swag.StringValue(body.CourseID),
		}

		err := s.Controller.Begin(ctx, user)
		switch {
		case errors.Is(err, session.ErrInvalidState):
			return httperrors.NewHTTPError(http.StatusConflict, types.PublicHTTPErrorTypeInvalidState, "A session is already in progress")
		case errors.Is(err, session.ErrMediaNotAcquired):
			return httperrors.NewHTTPError(http.StatusPreconditionFailed, types.PublicHTTPErrorTypeGeneric, "Screen and camera must be shared before the session can start")
		case errors.Is(err, storage.ErrMaxAttempts):
			return httperrors.NewHTTPError(http.StatusForbidden, types.PublicHTTPErrorTypeMaxAttempts, "Maximum attempts reached")
		case err != nil:
			log.Error().Err(err).Str("user_id", user.UserID).Msg("Failed to begin session")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to begin session")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GenericSuccessResponse{Success: true})
	}
}
