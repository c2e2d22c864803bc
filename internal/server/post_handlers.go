package server

import (
	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Content     string `json:"content"`
		CategoryIDs []uint `json:"category_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.Context(), service.CreatePostInput{
		Actor:       s.actor(c),
		Title:       req.Title,
		Content:     req.Content,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	posts, err := s.postService.ListPosts(c.Context(), service.ListPostsInput{
		Actor:      s.actor(c),
		Limit:      page.Limit,
		Offset:     page.Offset,
		Sort:       c.Query("sort"),
		CategoryID: uint(c.QueryInt("category_id", 0)),
		AuthorID:   uint(c.QueryInt("author_id", 0)),
		Status:     c.Query("status"),
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), s.actor(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title       *string `json:"title"`
		Content     *string `json:"content"`
		CategoryIDs []uint  `json:"category_ids"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.Context(), service.UpdatePostInput{
		Actor:       s.actor(c),
		PostID:      postID,
		Title:       req.Title,
		Content:     req.Content,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(post)
}

// SetPostStatus handles PUT /api/posts/:id/status
func (s *Server) SetPostStatus(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Status string `json:"status"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.SetPostStatus(c.Context(), service.SetPostStatusInput{
		Actor:  s.actor(c),
		PostID: postID,
		Status: req.Status,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), service.DeletePostInput{
		Actor:  s.actor(c),
		PostID: postID,
	}); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// MarkSolution handles PUT /api/posts/:id/solution/:commentId
func (s *Server) MarkSolution(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	post, err := s.postService.MarkSolution(c.Context(), service.SolutionInput{
		Actor:     s.actor(c),
		PostID:    postID,
		CommentID: commentID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(post)
}

// UnmarkSolution handles DELETE /api/posts/:id/solution/:commentId
func (s *Server) UnmarkSolution(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	post, err := s.postService.UnmarkSolution(c.Context(), service.SolutionInput{
		Actor:     s.actor(c),
		PostID:    postID,
		CommentID: commentID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(post)
}
