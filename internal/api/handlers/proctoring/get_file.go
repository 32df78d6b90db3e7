package proctoring

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/storage"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func GetFileRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Proctoring.GET("/files/:folder/:name", getFileHandler(s))
}

// getFileHandler streams a persisted recording artifact. http.ServeContent
// handles Range requests so reviewers can scrub through long recordings.
func getFileHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		folder := c.Param("folder")
		name := c.Param("name")

		f, _, err := s.Segments.Open(folder, name)
		if errors.Is(err, storage.ErrSessionUnknown) {
			return httperrors.NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeSessionNotFound, "Recording not found")
		}
		if err != nil {
			log.Error().Err(err).Str("folder", folder).Str("name", name).Msg("Failed to open recording")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to open recording")
		}
		defer f.Close()

		if strings.HasSuffix(name, ".webm") {
			c.Response().Header().Set(echo.HeaderContentType, "video/webm")
		}

		http.ServeContent(c.Response(), c.Request(), name, time.Time{}, f)
		return nil
	}
}
