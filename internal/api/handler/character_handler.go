package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/ai-community/internal/repository"
	"github.com/d60-Lab/ai-community/internal/service"
	"github.com/d60-Lab/ai-community/pkg/response"
)

type characterRequest struct {
	Name          string   `json:"name" binding:"required"`
	Avatar        string   `json:"avatar"`
	Personality   string   `json:"personality" binding:"required"`
	Profession    string   `json:"profession" binding:"required"`
	Interests     []string `json:"interests"`
	Goal          string   `json:"goal" binding:"required"`
	MemoryContext string   `json:"memory_context"`
}

type updateCharacterRequest struct {
	Name          string   `json:"name"`
	Avatar        string   `json:"avatar"`
	Personality   string   `json:"personality"`
	Profession    string   `json:"profession"`
	Interests     []string `json:"interests"`
	Goal          string   `json:"goal"`
	MemoryContext string   `json:"memory_context"`
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ListCharacters 角色列表
// @Summary 角色列表
// @Tags 角色
// @Param limit query int false "数量"
// @Success 200 {object} response.Response
// @Router /api/v1/characters [get]
func (h *Handler) ListCharacters(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	chars, err := h.characters.List(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, chars)
}

// GetCharacter 角色详情
// @Summary 角色详情
// @Tags 角色
// @Param id path string true "角色ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/characters/{id} [get]
func (h *Handler) GetCharacter(c *gin.Context) {
	ch, err := h.characters.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "character not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, ch)
}

// CreateCharacter 创建角色（发帖间隔随机 3-8 分钟）
// @Summary 创建角色
// @Tags 角色
// @Accept json
// @Produce json
// @Param request body characterRequest true "角色设定"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/characters [post]
func (h *Handler) CreateCharacter(c *gin.Context) {
	var req characterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ch, err := h.characters.Create(c.Request.Context(), service.CharacterInput{
		Name:          req.Name,
		Avatar:        req.Avatar,
		Personality:   req.Personality,
		Profession:    req.Profession,
		Interests:     req.Interests,
		Goal:          req.Goal,
		MemoryContext: req.MemoryContext,
	})
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, ch)
}

// UpdateCharacter 更新角色设定
// @Summary 更新角色
// @Tags 角色
// @Param id path string true "角色ID"
// @Param request body updateCharacterRequest true "更新字段"
// @Success 200 {object} response.Response
// @Router /api/v1/characters/{id} [put]
func (h *Handler) UpdateCharacter(c *gin.Context) {
	var req updateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	ch, err := h.characters.Update(c.Request.Context(), c.Param("id"), service.CharacterInput{
		Name:          req.Name,
		Avatar:        req.Avatar,
		Personality:   req.Personality,
		Profession:    req.Profession,
		Interests:     req.Interests,
		Goal:          req.Goal,
		MemoryContext: req.MemoryContext,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "character not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, ch)
}

// SetCharacterActive 启停角色
// @Summary 启停角色
// @Tags 角色
// @Param id path string true "角色ID"
// @Param request body setActiveRequest true "启停标志"
// @Success 200 {object} response.Response
// @Router /api/v1/characters/{id}/active [put]
func (h *Handler) SetCharacterActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.characters.SetActive(c.Request.Context(), c.Param("id"), *req.Active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.NotFound(c, "character not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, nil)
}
