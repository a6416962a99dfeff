package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChangeRequestController struct {
	Service *service.ChangeRequestService
}

func NewChangeRequestController(s *service.ChangeRequestService) *ChangeRequestController {
	return &ChangeRequestController{Service: s}
}

// Submit godoc
// @Summary 提交资料变更申请
// @Tags 变更申请
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.ChangeRequestInput true "变更内容"
// @Success 201 {object} util.Response{data=model.ChangeRequest}
// @Failure 400 {object} util.ErrorResponse "字段不允许修改"
// @Router /api/change-requests [post]
func (c *ChangeRequestController) Submit(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	var in service.ChangeRequestInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BindError(ctx, err)
		return
	}
	req, err := c.Service.Submit(me.UserID, in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, req)
}

// Mine godoc
// @Summary 我的变更申请
// @Tags 变更申请
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.ChangeRequest}
// @Router /api/change-requests/my [get]
func (c *ChangeRequestController) Mine(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	list, err := c.Service.Mine(me.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// List godoc
// @Summary 变更申请列表
// @Tags 变更申请
// @Produce  json
// @Security ApiKeyAuth
// @Param   status query string false "pending|approved|rejected"
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.ChangeRequest}}
// @Router /api/admin/change-requests [get]
func (c *ChangeRequestController) List(ctx *gin.Context) {
	p, limit := util.Pagination(ctx)
	list, total, err := c.Service.List(ctx.Query("status"), p, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, list, total, p, limit)
}

// Review godoc
// @Summary 审核变更申请
// @Description 通过时把变更写入用户资料
// @Tags 变更申请
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "申请ID"
// @Param   body body service.ReviewChangeRequestInput true "审核结果"
// @Success 200 {object} util.Response{data=model.ChangeRequest}
// @Failure 409 {object} util.ErrorResponse "已审核"
// @Router /api/admin/change-requests/{id}/review [post]
func (c *ChangeRequestController) Review(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	var in service.ReviewChangeRequestInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BindError(ctx, err)
		return
	}
	req, err := c.Service.Review(me.UserID, ctx.Param("id"), in)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, req)
}
