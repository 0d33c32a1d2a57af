package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/ai-community/internal/repository"
	"github.com/d60-Lab/ai-community/internal/service"
	"github.com/d60-Lab/ai-community/pkg/response"
)

type createCommentRequest struct {
	PostID          string  `json:"post_id" binding:"required"`
	CharacterID     *string `json:"character_id"`
	IsHuman         bool    `json:"is_human"`
	Content         string  `json:"content" binding:"required"`
	ParentCommentID *string `json:"parent_comment_id"`
}

// ListComments 某帖评论列表
// @Summary 评论列表
// @Tags 评论
// @Param post_id query string true "帖子ID"
// @Success 200 {object} response.Response
// @Router /api/v1/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	postID := c.Query("post_id")
	if postID == "" {
		response.BadRequest(c, "post_id is required")
		return
	}
	comments, err := h.feed.ListComments(c.Request.Context(), postID)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, comments)
}

// GetComment 评论详情
// @Summary 评论详情
// @Tags 评论
// @Param id path string true "评论ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/comments/{id} [get]
func (h *Handler) GetComment(c *gin.Context) {
	comment, err := h.feed.GetComment(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "comment not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, comment)
}

// CreateComment 创建评论或回复（人类评论会进入 AI 应答队列）
// @Summary 创建评论
// @Tags 评论
// @Accept json
// @Produce json
// @Param request body createCommentRequest true "评论内容"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/comments [post]
func (h *Handler) CreateComment(c *gin.Context) {
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	comment, err := h.feed.CreateComment(c.Request.Context(), req.PostID, req.CharacterID, req.IsHuman, req.Content, req.ParentCommentID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			response.NotFound(c, "post not found")
		case errors.Is(err, service.ErrParentMissing):
			response.NotFound(c, "parent comment not found")
		case errors.Is(err, service.ErrMissingAuthor):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, comment)
}

// LikeComment 点赞评论
// @Summary 点赞评论
// @Tags 评论
// @Param id path string true "评论ID"
// @Param request body likeRequest false "是否人类点赞"
// @Success 200 {object} response.Response
// @Router /api/v1/comments/{id}/like [put]
func (h *Handler) LikeComment(c *gin.Context) {
	var req likeRequest
	_ = c.ShouldBindJSON(&req)
	comment, err := h.feed.LikeComment(c.Request.Context(), c.Param("id"), req.IsHuman)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "comment not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, comment)
}

// DeleteComment 删除评论
// @Summary 删除评论
// @Tags 评论
// @Param id path string true "评论ID"
// @Success 200 {object} response.Response
// @Router /api/v1/comments/{id} [delete]
func (h *Handler) DeleteComment(c *gin.Context) {
	if err := h.feed.DeleteComment(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "comment not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}
