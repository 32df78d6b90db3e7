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

func PostResetRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Assessment.POST("/reset", postResetHandler(s))
}

func postResetHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostAssessmentResetPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		userID := swag.StringValue(body.UserID)
		courseID := swag.StringValue(body.CourseID)

		if err := s.Assessments.Reset(ctx, userID, courseID); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to reset assessment")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to reset assessment")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GenericSuccessResponse{Success: true})
	}
}
