package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/souvik017/livefeed/internal/auth"
	"github.com/souvik017/livefeed/internal/domain"
	apperrors "github.com/souvik017/livefeed/internal/errors"
)

type createPostRequest struct {
	Content   string `json:"content"`
	MediaType string `json:"mediaType"`
	ImageURL  string `json:"imageUrl"`
	VideoURL  string `json:"videoUrl"`
}

type updatePostRequest struct {
	Content   *string `json:"content"`
	MediaType string  `json:"mediaType"`
	ImageURL  string  `json:"imageUrl"`
	VideoURL  string  `json:"videoUrl"`
}

// feedResponse is the feed read body. Source is set only on the cached
// feed path; owner-scoped reads carry posts alone.
type feedResponse struct {
	Source string        `json:"source,omitempty"`
	Posts  []domain.Post `json:"posts"`
}

// handleGetPosts serves the recent feed. With a userId query parameter it
// serves that author's posts straight from the store instead.
func (s *Server) handleGetPosts(c echo.Context) error {
	ctx := c.Request().Context()

	if uid := c.QueryParam("userId"); uid != "" {
		posts, err := s.app.GetUserFeed(ctx, uid)
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(http.StatusOK, feedResponse{Posts: posts})
	}

	result, err := s.app.GetFeed(ctx)
	if err != nil {
		return mapServiceError(err)
	}

	c.Response().Header().Set("X-Feed-Source", result.Source)
	return c.JSON(http.StatusOK, feedResponse{Source: result.Source, Posts: result.Posts})
}

func (s *Server) handleCreatePost(c echo.Context) error {
	var req createPostRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	post, err := s.app.CreatePost(c.Request().Context(), auth.UserFromContext(c), domain.CreatePostInput{
		Content:   req.Content,
		MediaType: req.MediaType,
		ImageURL:  req.ImageURL,
		VideoURL:  req.VideoURL,
	})
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, post)
}

func (s *Server) handleUpdatePost(c echo.Context) error {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid post id")
	}

	var req updatePostRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	post, err := s.app.UpdatePost(c.Request().Context(), auth.UserFromContext(c), postID, domain.UpdatePostInput{
		Content:   req.Content,
		MediaType: req.MediaType,
		ImageURL:  req.ImageURL,
		VideoURL:  req.VideoURL,
	})
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, post)
}

func (s *Server) handleDeletePost(c echo.Context) error {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid post id")
	}

	if err := s.app.DeletePost(c.Request().Context(), auth.UserFromContext(c), postID); err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "post deleted",
		"id":      postID.String(),
	})
}

// mapServiceError translates domain sentinels into structured errors.
// Structured errors from the service layer pass through untouched.
func mapServiceError(err error) error {
	var structured *apperrors.Error
	if errors.As(err, &structured) {
		return structured
	}

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return apperrors.UnauthenticatedError("authentication required")
	case errors.Is(err, domain.ErrPostNotFound):
		return apperrors.NotFoundError("post not found")
	case errors.Is(err, domain.ErrUserNotFound):
		return apperrors.NotFoundError("user not found")
	case errors.Is(err, domain.ErrNotPostOwner):
		return apperrors.ForbiddenError("you do not own this post")
	default:
		return apperrors.StoreError("request failed", err)
	}
}
