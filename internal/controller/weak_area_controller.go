package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type WeakAreaController struct {
	Service *service.WeakAreaService
}

func NewWeakAreaController(s *service.WeakAreaService) *WeakAreaController {
	return &WeakAreaController{Service: s}
}

// Mine godoc
// @Summary 我的薄弱知识点
// @Tags 薄弱知识点
// @Produce  json
// @Security ApiKeyAuth
// @Param   subject query string false "科目"
// @Success 200 {object} util.Response{data=[]model.WeakArea}
// @Router /api/weak-areas/my [get]
func (c *WeakAreaController) Mine(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	list, err := c.Service.ForStudent(me.UserID, ctx.Query("subject"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// ForStudent godoc
// @Summary 指定学生的薄弱知识点
// @Tags 薄弱知识点
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "学生ID"
// @Param   subject query string false "科目"
// @Success 200 {object} util.Response{data=[]model.WeakArea}
// @Router /api/weak-areas/student/{id} [get]
func (c *WeakAreaController) ForStudent(ctx *gin.Context) {
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	list, err := c.Service.ForStudent(id, ctx.Query("subject"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// Class godoc
// @Summary 班级薄弱知识点汇总
// @Description 按知识点聚合班级内所有未掌握的薄弱点，并给出学生摘要和最近作答
// @Tags 薄弱知识点
// @Produce  json
// @Security ApiKeyAuth
// @Param   batch query string true "年级"
// @Param   section query string true "班级"
// @Param   subject query string false "科目"
// @Success 200 {object} util.Response{data=service.ClassWeakAreaReport}
// @Failure 400 {object} util.ErrorResponse "缺少年级或班级"
// @Failure 401 {object} util.ErrorResponse
// @Failure 403 {object} util.ErrorResponse
// @Router /api/weak-areas/class [get]
func (c *WeakAreaController) Class(ctx *gin.Context) {
	var q service.ClassWeakAreaQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		util.BindError(ctx, err)
		return
	}
	report, err := c.Service.ClassReport(q)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, report)
}
