package proctoring

import (
	"net/http"
	"time"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
	"github.com/vaishnavucv/droid-proctoring/internal/violation"
)

func PostLogRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Proctoring.POST("/log", postLogHandler(s))
}

func postLogHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostProctoringLogPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		key := violation.LogKey{
			Username:     swag.StringValue(body.Username),
			UserID:       swag.StringValue(body.UserID),
			SessionStart: time.Time(body.SessionStartTime),
		}
		event := violation.Event{
			WarningCount:  body.WarningCount,
			Type:          swag.StringValue(body.Type),
			Duration:      body.Duration,
			Timestamp:     body.Timestamp,
			Justification: "N/A",
		}

		if err := s.Logs.Append(ctx, key, event); err != nil {
			log.Error().Err(err).Str("user_id", key.UserID).Msg("Failed to append violation log")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to append violation log")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GenericSuccessResponse{Success: true})
	}
}
