package proctoring

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/identity"
	"github.com/vaishnavucv/droid-proctoring/internal/storage"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func PostFaceCheckRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Proctoring.POST("/face/check", postFaceCheckHandler(s))
}

// postFaceCheckHandler compares a pushed camera frame against the registered
// reference identity and grades any violation it finds.
func postFaceCheckHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		var body types.PostFaceCheckPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		frame, err := util.DecodeImagePayload(swag.StringValue(body.Image))
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidationFailed, "image is not valid base64")
		}

		folder := swag.StringValue(body.Folder)
		userID := swag.StringValue(body.UserID)

		reference, err := s.Segments.LoadReference(folder, userID)
		if errors.Is(err, storage.ErrNoReference) {
			return util.ValidateAndReturn(c, http.StatusOK, &types.FaceCheckResponse{
				Success: true,
				Alert:   false,
				Reason:  "No reference face registered yet",
			})
		}
		if err != nil {
			log.Error().Err(err).Str("folder", folder).Msg("Failed to load reference identity")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to load reference identity")
		}

		signals, err := s.Classifier.CompareIdentity(ctx, reference, frame)
		s.Metrics.ClassifierRequest("identity", err)
		if err != nil {
			log.Error().Err(err).Msg("Identity comparison failed")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Identity comparison failed")
		}

		response := &types.FaceCheckResponse{
			Success: true,
			Behavior: &types.FaceCheckBehavior{
				FaceDetected:       signals.FaceDetected,
				SamePerson:         signals.SamePerson,
				MultipleFaces:      signals.MultipleFaces,
				TalkingToSomeone:   signals.TalkingToSomeone,
				LookingAway:        signals.LookingAway,
				SuspiciousActivity: signals.SuspiciousActivity,
				Confidence:         signals.Confidence,
			},
		}

		if finding := identity.Classify(signals); finding != nil {
			response.Alert = true
			response.Reason = finding.Reason
			response.Category = string(finding.Category)
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
