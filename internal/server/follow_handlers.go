// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"photogram/internal/models"

	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/users/:id/follow
// Following an already-followed user is a no-op; the edge is unique.
func (s *Server) FollowUser(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if targetID == userID {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("You cannot follow yourself"))
	}

	// The target must exist; a follow edge to a missing user is a 404.
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return models.RespondWithError(c, models.StatusForError(err), err)
	}

	if err := s.followRepo.Follow(ctx, userID, targetID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// UnfollowUser handles DELETE /api/users/:id/follow
// Unfollowing a user who is not followed is a no-op.
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.followRepo.Unfollow(ctx, userID, targetID); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetFollowing handles GET /api/users/me/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	ctx := c.Context()
	userID := c.Locals("userID").(uint)

	users, err := s.followRepo.Following(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(users)
}
