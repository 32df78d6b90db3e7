package assessment

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/storage"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func PostStartRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Assessment.POST("/start", postStartHandler(s))
}

func postStartHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostAssessmentStartPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		userID := swag.StringValue(body.UserID)
		courseID := swag.StringValue(body.CourseID)

		err := s.Assessments.Start(ctx, userID, courseID, s.Config.Proctoring.MaxAttempts)
		if err == storage.ErrMaxAttempts {
			return httperrors.NewHTTPError(http.StatusForbidden, types.PublicHTTPErrorTypeMaxAttempts, "Maximum attempts reached")
		}
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to start assessment")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to start assessment")
		}

		record, err := s.Assessments.Status(ctx, userID, courseID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to read assessment status")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to read assessment status")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.AssessmentStatusResponse{
			Status:        record.Status,
			AttemptsTaken: record.AttemptsTaken,
			Score:         record.Score,
			Result:        record.Result,
		})
	}
}
