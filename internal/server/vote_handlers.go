package server

import (
	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// castVote is shared by the post and comment vote endpoints.
func (s *Server) castVote(c *fiber.Ctx, targetKind string) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Value string `json:"value"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.voteService.CastVote(c.Context(), service.CastVoteInput{
		Actor:      s.actor(c),
		TargetKind: targetKind,
		TargetID:   targetID,
		Value:      req.Value,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	status := fiber.StatusCreated
	if result.Outcome != models.VoteCreated {
		// Duplicate and replace outcomes are not new resources.
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(result)
}

func (s *Server) retractVote(c *fiber.Ctx, targetKind string) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.voteService.RetractVote(c.Context(), service.RetractVoteInput{
		Actor:      s.actor(c),
		TargetKind: targetKind,
		TargetID:   targetID,
	}); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// CastPostVote handles POST /api/posts/:id/vote
func (s *Server) CastPostVote(c *fiber.Ctx) error {
	return s.castVote(c, models.TargetPost)
}

// RetractPostVote handles DELETE /api/posts/:id/vote
func (s *Server) RetractPostVote(c *fiber.Ctx) error {
	return s.retractVote(c, models.TargetPost)
}

// CastCommentVote handles POST /api/comments/:id/vote
func (s *Server) CastCommentVote(c *fiber.Ctx) error {
	return s.castVote(c, models.TargetComment)
}

// RetractCommentVote handles DELETE /api/comments/:id/vote
func (s *Server) RetractCommentVote(c *fiber.Ctx) error {
	return s.retractVote(c, models.TargetComment)
}
