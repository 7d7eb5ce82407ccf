package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/souvik017/livefeed/internal/auth"
	apperrors "github.com/souvik017/livefeed/internal/errors"
)

func (s *Server) handleGetMe(c echo.Context) error {
	user := auth.UserFromContext(c)
	if user == nil {
		return apperrors.UnauthenticatedError("authentication required")
	}
	return c.JSON(http.StatusOK, user)
}
