package assessment

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func GetStatusRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Assessment.GET("/status", getStatusHandler(s))
}

func getStatusHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		userID := c.QueryParam("userId")
		courseID := c.QueryParam("courseId")
		if userID == "" || courseID == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidationFailed, "userId and courseId are required")
		}

		record, err := s.Assessments.Status(ctx, userID, courseID)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch assessment status")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to fetch assessment status")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.AssessmentStatusResponse{
			Status:        record.Status,
			AttemptsTaken: record.AttemptsTaken,
			Score:         record.Score,
			Result:        record.Result,
		})
	}
}
