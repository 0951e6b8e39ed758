// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"photogram/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userRepo.GetByID(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	return c.JSON(user)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	ctx := c.Context()
	profileID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	page, err := s.parsePage(c)
	if err != nil {
		return nil
	}
	viewerID := c.Locals("userID").(uint)

	// Profile pages use the same page size as the feeds.
	const pageSize = 20
	posts, err := s.postRepo.GetByUserID(ctx, profileID, pageSize, page*pageSize, viewerID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(posts)
}
