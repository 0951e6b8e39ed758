// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"photogram/internal/models"
	"photogram/internal/repository"
	"photogram/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxDescriptionLength = 255

// GetFeed handles GET /api/posts?page=N
// @Summary Global feed
// @Description Newest-first page of all posts, 20 per page
// @Tags posts
// @Produce json
// @Param page query int false "Zero-based page number"
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	return s.feed(c, repository.FeedAll, optionalUserID(c))
}

// GetLikedFeed handles GET /api/posts/liked?page=N
func (s *Server) GetLikedFeed(c *fiber.Ctx) error {
	return s.feed(c, repository.FeedLiked, c.Locals("userID").(uint))
}

// GetFollowingFeed handles GET /api/posts/following?page=N
func (s *Server) GetFollowingFeed(c *fiber.Ctx) error {
	return s.feed(c, repository.FeedFollowing, c.Locals("userID").(uint))
}

func (s *Server) feed(c *fiber.Ctx, filter repository.FeedFilter, viewerID uint) error {
	ctx := c.Context()
	page, err := s.parsePage(c)
	if err != nil {
		return nil
	}

	posts, err := s.postRepo.ListFeed(ctx, viewerID, filter, page)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.Context()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(ctx, id, optionalUserID(c))
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(post)
}

// CreatePost handles POST /api/posts
// The request is multipart form data: an "image" file plus a "description"
// field. The stored post references the saved image by filename.
// @Summary Create a post
// @Tags posts
// @Accept mpfd
// @Produce json
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	description := strings.TrimSpace(c.FormValue("description"))
	if description == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Description is required"))
	}
	// Counted in characters, not bytes; multibyte captions are legitimate.
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(fmt.Sprintf("Description must be at most %d characters", maxDescriptionLength)))
	}

	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("An image file is required"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	imageName, err := s.imageService.Store(service.UploadImageInput{
		Filename: file.Filename,
		Content:  content,
	})
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	post := &models.Post{
		UserID:      userID,
		Image:       imageName,
		Description: description,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	// Reload with author and like details for the response.
	post, err = s.postRepo.GetByID(ctx, post.ID, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	c.Set(fiber.HeaderLocation, fmt.Sprintf("/api/posts/%d", post.ID))
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PATCH /api/posts/:id
// Only the description is editable. A non-owner request is a silent no-op:
// it returns the post unchanged rather than an error.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Description string `json:"description"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Description is required"))
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(fmt.Sprintf("Description must be at most %d characters", maxDescriptionLength)))
	}

	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	if post.UserID != userID {
		return c.JSON(post)
	}

	post.Description = description
	if err := s.postRepo.Update(ctx, post); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// A non-owner request returns 204 without deleting anything. Image files are
// never removed; a filename can be shared by posts uploaded the same second.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	if post.UserID != userID {
		return c.SendStatus(fiber.StatusNoContent)
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLike handles POST /api/posts/:id/like
// A like is added if absent and removed if present. The response body is a
// bare JSON null; clients refetch feeds for updated counts.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.postRepo.GetByID(ctx, postID, userID); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	if _, err := s.postRepo.ToggleLike(ctx, userID, postID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.Status(fiber.StatusOK).JSON(nil)
}
