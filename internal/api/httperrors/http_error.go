package httperrors

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// HTTPError is the public error envelope of the API.
type HTTPError struct {
	Code   int    `json:"status"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Title)
}

func NewHTTPError(code int, errType, title string) *HTTPError {
	return &HTTPError{Code: code, Type: errType, Title: title}
}

func NewHTTPErrorWithDetail(code int, errType, title, detail string) *HTTPError {
	return &HTTPError{Code: code, Type: errType, Title: title, Detail: detail}
}

// HandlerWithConfig is the echo error handler rendering HTTPError envelopes.
func HandlerWithConfig(e *echo.Echo) {
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *HTTPError
		switch v := err.(type) {
		case *HTTPError:
			httpErr = v
		case *echo.HTTPError:
			title := http.StatusText(v.Code)
			if msg, ok := v.Message.(string); ok {
				title = msg
			}
			httpErr = NewHTTPError(v.Code, "generic", title)
		default:
			httpErr = NewHTTPError(http.StatusInternalServerError, "generic", http.StatusText(http.StatusInternalServerError))
		}

		if err := c.JSON(httpErr.Code, httpErr); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
	}
}
