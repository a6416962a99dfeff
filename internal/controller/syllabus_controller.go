package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SyllabusController struct {
	Service *service.SyllabusService
}

func NewSyllabusController(s *service.SyllabusService) *SyllabusController {
	return &SyllabusController{Service: s}
}

// List godoc
// @Summary 教学大纲列表
// @Description 学生默认查看本班大纲
// @Tags 教学大纲
// @Produce  json
// @Security ApiKeyAuth
// @Param   year query int false "学年"
// @Param   semester query int false "学期"
// @Param   batch query string false "年级"
// @Param   section query string false "班级"
// @Success 200 {object} util.Response{data=[]model.Syllabus}
// @Router /api/syllabus [get]
func (c *SyllabusController) List(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	var q service.SyllabusQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		util.BindError(ctx, err)
		return
	}
	list, err := c.Service.List(me, q)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// Get godoc
// @Summary 教学大纲详情
// @Tags 教学大纲
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "大纲ID"
// @Success 200 {object} util.Response{data=model.Syllabus}
// @Failure 404 {object} util.ErrorResponse
// @Router /api/syllabus/{id} [get]
func (c *SyllabusController) Get(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	s, err := c.Service.Get(id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, s)
}

// Create godoc
// @Summary 创建教学大纲
// @Tags 教学大纲
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CreateSyllabusRequest true "大纲内容"
// @Success 201 {object} util.Response{data=model.Syllabus}
// @Failure 409 {object} util.ErrorResponse "该学期该班级已存在大纲"
// @Router /api/syllabus [post]
func (c *SyllabusController) Create(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	var req service.CreateSyllabusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	s, err := c.Service.Create(me.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, s)
}

// UpdateTopics godoc
// @Summary 更新知识点进度
// @Description 一次更新同一科目下的多个知识点，任一项不合法时整体不生效
// @Tags 教学大纲
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "大纲ID"
// @Param   body body service.UpdateTopicsRequest true "知识点状态"
// @Success 200 {object} util.Response{data=model.Syllabus}
// @Failure 400 {object} util.ErrorResponse "科目/知识点不存在或状态不合法"
// @Failure 404 {object} util.ErrorResponse
// @Router /api/syllabus/{id} [patch]
func (c *SyllabusController) UpdateTopics(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	var req service.UpdateTopicsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	s, err := c.Service.UpdateTopics(ctx.Request.Context(), me.UserID, id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, s)
}

// Delete godoc
// @Summary 删除教学大纲
// @Tags 教学大纲
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "大纲ID"
// @Success 200 {object} util.Response
// @Router /api/syllabus/{id} [delete]
func (c *SyllabusController) Delete(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.Service.Delete(id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}
