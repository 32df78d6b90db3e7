package proctoring

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func PostRecordRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Proctoring.POST("/record", postRecordHandler(s))
}

// postRecordHandler accepts multipart recording chunks pushed by an external
// capture client and appends them to the session's segment files.
func postRecordHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		folder := c.FormValue("folder")
		sessionKey := c.FormValue("sessionKey")
		streamType := c.FormValue("type")
		if folder == "" || sessionKey == "" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidationFailed, "folder and sessionKey are required")
		}
		if streamType != "camera" && streamType != "screen" {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidationFailed, "type must be camera or screen")
		}

		fileHeader, err := c.FormFile("chunk")
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidationFailed, "chunk file is required")
		}

		src, err := fileHeader.Open()
		if err != nil {
			log.Error().Err(err).Msg("Failed to open uploaded chunk")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to read uploaded chunk")
		}
		defer src.Close()

		payload, err := io.ReadAll(src)
		if err != nil {
			log.Error().Err(err).Msg("Failed to read uploaded chunk")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to read uploaded chunk")
		}

		if err := s.Segments.Append(folder, sessionKey, streamType, payload); err != nil {
			s.Metrics.SegmentFailed(streamType)
			log.Error().Err(err).Str("folder", folder).Str("type", streamType).Msg("Failed to append recording chunk")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to persist recording chunk")
		}
		s.Metrics.SegmentDelivered(streamType)

		return util.ValidateAndReturn(c, http.StatusOK, &types.GenericSuccessResponse{Success: true})
	}
}
