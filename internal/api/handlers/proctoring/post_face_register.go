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

func PostFaceRegisterRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Proctoring.POST("/face/register", postFaceRegisterHandler(s))
}

func postFaceRegisterHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostFaceRegisterPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		image, err := util.DecodeImagePayload(swag.StringValue(body.Image))
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidationFailed, "image is not valid base64")
		}

		folder := swag.StringValue(body.Folder)
		userID := swag.StringValue(body.UserID)

		if err := s.Segments.SaveReference(folder, userID, image); err != nil {
			log.Error().Err(err).Str("folder", folder).Msg("Failed to save reference identity")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to save reference identity")
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.GenericSuccessResponse{Success: true})
	}
}
