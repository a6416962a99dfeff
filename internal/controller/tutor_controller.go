package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TutorController struct {
	Service *service.TutorService
}

func NewTutorController(s *service.TutorService) *TutorController {
	return &TutorController{Service: s}
}

// CreateSession godoc
// @Summary 新建 AI 辅导会话
// @Tags AI辅导
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateSessionRequest true "科目与知识点"
// @Success 201 {object} util.Response{data=model.ChatSession}
// @Router /api/tutor/sessions [post]
func (c *TutorController) CreateSession(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	var req service.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	session, err := c.Service.CreateSession(ctx.Request.Context(), me.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// ListSessions godoc
// @Summary 我的辅导会话
// @Tags AI辅导
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.ChatSession}
// @Router /api/tutor/sessions [get]
func (c *TutorController) ListSessions(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	list, err := c.Service.ListSessions(ctx.Request.Context(), me.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// GetSession godoc
// @Summary 会话详情
// @Tags AI辅导
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Success 200 {object} util.Response{data=model.ChatSession}
// @Failure 403 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Router /api/tutor/sessions/{id} [get]
func (c *TutorController) GetSession(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	session, err := c.Service.GetSession(ctx.Request.Context(), me.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// SendMessage godoc
// @Summary 向 AI 辅导提问
// @Description 以会话历史和该科目的薄弱知识点作为上下文
// @Tags AI辅导
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "会话ID"
// @Param   body body service.SendMessageRequest true "问题"
// @Success 200 {object} util.Response{data=service.SendMessageResult}
// @Failure 503 {object} util.ErrorResponse "AI 服务不可用"
// @Router /api/tutor/sessions/{id}/messages [post]
func (c *TutorController) SendMessage(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	var req service.SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	res, err := c.Service.SendMessage(ctx.Request.Context(), me.UserID, ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
