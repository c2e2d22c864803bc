package server

import (
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) membershipInput(c *fiber.Ctx) (service.MembershipInput, error) {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return service.MembershipInput{}, err
	}
	return service.MembershipInput{
		Actor:  s.actor(c),
		PostID: postID,
	}, nil
}

// AddFavorite handles POST /api/posts/:id/favorite
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	in, err := s.membershipInput(c)
	if err != nil {
		return nil
	}
	if err := s.favoriteService.AddFavorite(c.Context(), in); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveFavorite handles DELETE /api/posts/:id/favorite
func (s *Server) RemoveFavorite(c *fiber.Ctx) error {
	in, err := s.membershipInput(c)
	if err != nil {
		return nil
	}
	if err := s.favoriteService.RemoveFavorite(c.Context(), in); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFavorites handles GET /api/favorites
func (s *Server) GetFavorites(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	posts, err := s.favoriteService.ListFavorites(c.Context(), s.actor(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// Subscribe handles POST /api/posts/:id/subscription
func (s *Server) Subscribe(c *fiber.Ctx) error {
	in, err := s.membershipInput(c)
	if err != nil {
		return nil
	}
	if err := s.favoriteService.Subscribe(c.Context(), in); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Unsubscribe handles DELETE /api/posts/:id/subscription
func (s *Server) Unsubscribe(c *fiber.Ctx) error {
	in, err := s.membershipInput(c)
	if err != nil {
		return nil
	}
	if err := s.favoriteService.Unsubscribe(c.Context(), in); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
