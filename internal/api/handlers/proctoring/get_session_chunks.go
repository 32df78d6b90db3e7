package proctoring

import (
	"net/http"

	"github.com/go-openapi/strfmt"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/storage"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func GetSessionChunksRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Proctoring.GET("/sessions/:folder/chunks", getSessionChunksHandler(s))
}

func getSessionChunksHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		folder := c.Param("folder")

		chunks, err := s.Segments.ListChunks(folder)
		if errors.Is(err, storage.ErrSessionUnknown) {
			return httperrors.NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeSessionNotFound, "Session not found")
		}
		if err != nil {
			log.Error().Err(err).Str("folder", folder).Msg("Failed to list session chunks")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to list session chunks")
		}

		items := make([]types.ChunkItem, 0, len(chunks))
		for _, chunk := range chunks {
			items = append(items, types.ChunkItem{
				Name:      chunk.Name,
				URL:       chunk.URL,
				Type:      chunk.Type,
				Timestamp: chunk.Timestamp,
				Size:      chunk.Size,
				Created:   strfmt.DateTime(chunk.Created),
			})
		}

		return util.ValidateAndReturn(c, http.StatusOK, &types.ChunkListResponse{
			Success: true,
			Chunks:  items,
		})
	}
}
