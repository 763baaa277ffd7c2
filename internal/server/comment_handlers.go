package server

import (
	"recetario/internal/models"
	"recetario/internal/notifications"
	"recetario/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/community/:id/comments and lists top-level comments.
func (s *Server) GetComments(c *fiber.Ctx) error {
	recipeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, 50)

	viewerID, _ := s.optionalUserID(c)
	comments, err := s.commentService.ListComments(c.UserContext(), recipeID, viewerID, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(comments)
}

// GetCommentReplies handles GET /api/community/comments/:commentId/replies
func (s *Server) GetCommentReplies(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)
	replies, err := s.commentService.ListReplies(c.UserContext(), commentID, viewerID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(replies)
}

// CreateComment handles POST /api/community/:id/comments
// @Summary Comment on a recipe
// @Description Set parent_id to reply. Replies to replies attach to the root comment.
// @Tags community
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Community recipe ID"
// @Param request body object{text=string,parent_id=int} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Router /community/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	recipeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Text     string `json:"text"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	userID := currentUserID(c)
	created, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:   userID,
		RecipeID: recipeID,
		Text:     req.Text,
		ParentID: req.ParentID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	payload := map[string]any{
		"recipe_id":   created.Recipe.ID,
		"comment_id":  created.Comment.ID,
		"parent_id":   created.Comment.ParentID,
		"author_id":   created.Comment.AuthorID,
		"author_name": created.Comment.AuthorName,
		"text":        created.Comment.Text,
	}
	s.publishBroadcastEvent(c.UserContext(), notifications.EventCommentCreated, payload)
	if created.Recipe.AuthorID != userID {
		s.publishUserEvent(c.UserContext(), created.Recipe.AuthorID, notifications.EventCommentCreated, payload)
	}
	if created.Parent != nil && created.Parent.AuthorID != userID && created.Parent.AuthorID != created.Recipe.AuthorID {
		s.publishUserEvent(c.UserContext(), created.Parent.AuthorID, notifications.EventCommentCreated, payload)
	}
	return c.Status(fiber.StatusCreated).JSON(created.Comment)
}

// DeleteComment handles DELETE /api/community/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	comment, err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishBroadcastEvent(c.UserContext(), notifications.EventCommentDeleted, map[string]any{
		"recipe_id":  comment.RecipeID,
		"comment_id": comment.ID,
		"parent_id":  comment.ParentID,
	})
	return c.SendStatus(fiber.StatusNoContent)
}
