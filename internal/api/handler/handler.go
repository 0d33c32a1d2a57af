package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/ai-community/internal/service"
	"github.com/d60-Lab/ai-community/pkg/response"
)

// Handler 聚合全部 HTTP 处理器依赖
type Handler struct {
	feed       *service.Feed
	characters *service.Characters
	automation *service.Automation
}

func NewHandler(feed *service.Feed, characters *service.Characters, automation *service.Automation) *Handler {
	return &Handler{feed: feed, characters: characters, automation: automation}
}

// Stats 社区统计
// @Summary 社区统计
// @Tags 统计
// @Produce json
// @Success 200 {object} response.Response{data=service.Stats}
// @Router /api/v1/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.feed.CommunityStats(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, stats)
}
