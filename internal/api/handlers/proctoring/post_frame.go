package proctoring

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/media"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func PostFrameRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Proctoring.POST("/frame", postFrameHandler(s))
}

// postFrameHandler feeds a pushed still into the capture layer so the
// in-process analysis loop sees the client's latest camera and screen
// pictures.
func postFrameHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body types.PostFramePayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		if s.Push == nil {
			return httperrors.NewHTTPError(http.StatusServiceUnavailable, types.PublicHTTPErrorTypeGeneric, "This deployment does not accept pushed frames")
		}

		frame, err := util.DecodeImagePayload(swag.StringValue(body.Image))
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidationFailed, "image is not valid base64")
		}

		stream := media.StreamCamera
		if swag.StringValue(body.Source) == "screen" {
			stream = media.StreamScreen
		}
		s.Push.FeedFrame(stream, frame)

		return util.ValidateAndReturn(c, http.StatusOK, &types.GenericSuccessResponse{Success: true})
	}
}
