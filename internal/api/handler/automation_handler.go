package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/ai-community/pkg/response"
)

// updateSettingsRequest 部分更新：缺省字段保持原值。
// 概率字段使用自定义 probability 校验（0..1）。
type updateSettingsRequest struct {
	AutoPublishEnabled     *bool    `json:"auto_publish_enabled"`
	AIInteractionEnabled   *bool    `json:"ai_interaction_enabled"`
	PublishIntervalSeconds *int64   `json:"publish_interval_seconds" binding:"omitempty,min=1"`
	InteractionProbability *float64 `json:"interaction_probability" binding:"omitempty,probability"`
	HumanReplyProbability  *float64 `json:"human_reply_probability" binding:"omitempty,probability"`
	MaxPostsPerInterval    *int     `json:"max_posts_per_interval" binding:"omitempty,min=1"`
	MaxCommentsPerInterval *int     `json:"max_comments_per_interval" binding:"omitempty,min=1"`
}

type triggerRequest struct {
	Kind string `json:"kind" binding:"required,oneof=posts interactions all"`
}

// GetSettings 查询调度配置
// @Summary 查询自动化配置
// @Tags 自动化
// @Produce json
// @Success 200 {object} response.Response{data=model.AutomationSetting}
// @Router /api/v1/automation/settings [get]
func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.automation.Settings(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, s)
}

// UpdateSettings 更新配置并同步推入调度器（一个 tick 内生效）
// @Summary 更新自动化配置
// @Tags 自动化
// @Accept json
// @Produce json
// @Param request body updateSettingsRequest true "配置项"
// @Success 200 {object} response.Response{data=model.AutomationSetting}
// @Failure 400 {object} response.Response
// @Router /api/v1/automation/settings [put]
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	s, err := h.automation.Settings(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if req.AutoPublishEnabled != nil {
		s.AutoPublishEnabled = *req.AutoPublishEnabled
	}
	if req.AIInteractionEnabled != nil {
		s.AIInteractionEnabled = *req.AIInteractionEnabled
	}
	if req.PublishIntervalSeconds != nil {
		s.PublishInterval = time.Duration(*req.PublishIntervalSeconds) * time.Second
	}
	if req.InteractionProbability != nil {
		s.InteractionProbability = *req.InteractionProbability
	}
	if req.HumanReplyProbability != nil {
		s.HumanReplyProbability = *req.HumanReplyProbability
	}
	if req.MaxPostsPerInterval != nil {
		s.MaxPostsPerInterval = *req.MaxPostsPerInterval
	}
	if req.MaxCommentsPerInterval != nil {
		s.MaxCommentsPerInterval = *req.MaxCommentsPerInterval
	}

	updated, err := h.automation.UpdateSettings(c.Request.Context(), s)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, updated)
}

// ResetSettings 恢复默认配置
// @Summary 重置自动化配置
// @Tags 自动化
// @Produce json
// @Success 200 {object} response.Response{data=model.AutomationSetting}
// @Router /api/v1/automation/settings/reset [post]
func (h *Handler) ResetSettings(c *gin.Context) {
	s, err := h.automation.ResetSettings(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, s)
}

// Trigger 手动触发一轮小批量生成
// @Summary 手动触发生成
// @Tags 自动化
// @Accept json
// @Produce json
// @Param request body triggerRequest true "触发类别 posts|interactions|all"
// @Success 200 {object} response.Response{data=service.TriggerResult}
// @Failure 400 {object} response.Response
// @Router /api/v1/automation/trigger [post]
func (h *Handler) Trigger(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.automation.Trigger(c.Request.Context(), req.Kind)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"kind": req.Kind, "result": result, "timestamp": time.Now().UTC()})
}
