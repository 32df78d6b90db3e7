package session

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/media"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func PostMediaRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Session.POST("/media", postMediaHandler(s))
}

// postMediaHandler acquires both capture streams ahead of session begin. The
// grant itself happens on the client; this call opens the server-side handles
// the controller will borrow.
func postMediaHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if err := s.Acquirer.AcquireScreen(ctx); err != nil {
			if errors.Is(err, media.ErrWrongSurface) {
				return httperrors.NewHTTPError(http.StatusPreconditionFailed, types.PublicHTTPErrorTypeGeneric, "A full display must be shared, not a window or tab")
			}
			log.Error().Err(err).Msg("Failed to acquire screen")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to acquire screen")
		}

		if err := s.Acquirer.AcquireCameraMic(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to acquire camera and microphone")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to acquire camera and microphone")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GenericSuccessResponse{Success: true})
	}
}
