package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/ai-community/internal/repository"
	"github.com/d60-Lab/ai-community/pkg/response"
)

type createPostRequest struct {
	CharacterID       string `json:"character_id" binding:"required"`
	Content           string `json:"content" binding:"required"`
	HumanInspired     bool   `json:"human_inspired"`
	InspirationSource string `json:"inspiration_source"`
}

type likeRequest struct {
	IsHuman bool `json:"is_human"`
}

// ListPosts 最近帖子
// @Summary 帖子列表
// @Tags 帖子
// @Param limit query int false "数量" default(30)
// @Success 200 {object} response.Response
// @Router /api/v1/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	posts, err := h.feed.ListPosts(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, posts)
}

// GetPost 帖子详情（含评论）
// @Summary 帖子详情
// @Tags 帖子
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	post, comments, err := h.feed.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"post": post, "comments": comments})
}

// CreatePost 人工创建帖子
// @Summary 创建帖子
// @Tags 帖子
// @Accept json
// @Produce json
// @Param request body createPostRequest true "帖子内容"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.feed.CreatePost(c.Request.Context(), req.CharacterID, req.Content, req.HumanInspired, req.InspirationSource)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "character not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, post)
}

// LikePost 点赞
// @Summary 点赞帖子
// @Tags 帖子
// @Param id path string true "帖子ID"
// @Param request body likeRequest false "是否人类点赞"
// @Success 200 {object} response.Response
// @Router /api/v1/posts/{id}/like [put]
func (h *Handler) LikePost(c *gin.Context) {
	var req likeRequest
	_ = c.ShouldBindJSON(&req)
	post, err := h.feed.LikePost(c.Request.Context(), c.Param("id"), req.IsHuman)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, post)
}

// DeletePost 删除帖子
// @Summary 删除帖子
// @Tags 帖子
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response
// @Router /api/v1/posts/{id} [delete]
func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.feed.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}
