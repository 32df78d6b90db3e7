package proctoring

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func PostAnalyzeRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Proctoring.POST("/analyze", postAnalyzeHandler(s))
}

// postAnalyzeHandler runs a single classifier pass over a pushed frame. It is
// the stateless sibling of the in-process analysis loop, used by capture
// clients that sample their own frames.
func postAnalyzeHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostAnalyzePayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		frame, err := util.DecodeImagePayload(swag.StringValue(body.Image))
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidationFailed, "image is not valid base64")
		}

		source := swag.StringValue(body.Source)

		var alert bool
		var reason string
		switch source {
		case "camera":
			verdict, err := s.Classifier.AnalyzeCamera(ctx, frame)
			s.Metrics.ClassifierRequest("camera", err)
			if err != nil {
				log.Error().Err(err).Msg("Camera analysis failed")
				return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Analysis failed")
			}
			alert, reason = verdict.Alert, verdict.Reason
		case "screen":
			verdict, err := s.Classifier.AnalyzeScreen(ctx, frame)
			s.Metrics.ClassifierRequest("screen", err)
			if err != nil {
				log.Error().Err(err).Msg("Screen analysis failed")
				return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Analysis failed")
			}
			alert, reason = verdict.Alert, verdict.Reason
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.AnalyzeResponse{
			Success: true,
			Alert:   alert,
			Reason:  reason,
		})
	}
}
