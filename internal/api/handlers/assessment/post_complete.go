package assessment

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func PostCompleteRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Assessment.POST("/complete", postCompleteHandler(s))
}

func postCompleteHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostAssessmentCompletePayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		userID := swag.StringValue(body.UserID)
		courseID := swag.StringValue(body.CourseID)

		score, result, err := s.Assessments.Complete(ctx, userID, courseID, body.Justifications, body.IsFailure)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to complete assessment")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to complete assessment")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.AssessmentCompleteResponse{
			Success: true,
			Score:   score,
			Result:  result,
		})
	}
}
