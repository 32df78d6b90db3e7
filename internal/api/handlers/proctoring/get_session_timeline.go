package proctoring

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/api/httperrors"
	"github.com/vaishnavucv/droid-proctoring/internal/review"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
	"github.com/vaishnavucv/droid-proctoring/internal/util"
)

func GetSessionTimelineRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Proctoring.GET("/sessions/:folder/timeline", getSessionTimelineHandler(s))
}

// getSessionTimelineHandler positions a session's violations on the playback
// timeline. An optional ?at=<seconds> playhead resolves the active entry.
func getSessionTimelineHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		folder := c.Param("folder")

		events, _, err := s.Logs.Lookup(folder)
		if err != nil {
			log.Error().Err(err).Str("folder", folder).Msg("Failed to look up violation logs")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to look up violation logs")
		}

		timeline := review.NewTimeline(events)

		entries := make([]types.TimelineEntry, 0, len(timeline.Entries()))
		for _, entry := range timeline.Entries() {
			entries = append(entries, types.TimelineEntry{
				Event:  entry.Event,
				Offset: entry.Offset,
			})
		}

		response := &types.TimelineResponse{
			Success: true,
			Entries: entries,
			Summary: timeline.Summary(),
		}

		if at := c.QueryParam("at"); at != "" {
			playhead, err := strconv.Atoi(at)
			if err != nil {
				return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeValidationFailed, "at must be a playback position in seconds")
			}
			idx := timeline.ActiveAt(playhead)
			response.ActiveIndex = &idx
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
