package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ForumController struct {
	Service *service.ForumService
}

func NewForumController(s *service.ForumService) *ForumController {
	return &ForumController{Service: s}
}

// ListPosts godoc
// @Summary 讨论区帖子列表
// @Tags 讨论区
// @Produce  json
// @Security ApiKeyAuth
// @Param   subject query string false "科目"
// @Param   search query string false "标题/内容关键词"
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页条数" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse{list=[]model.ForumPost}}
// @Router /api/forum/posts [get]
func (c *ForumController) ListPosts(ctx *gin.Context) {
	var q service.ForumListQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		util.BindError(ctx, err)
		return
	}
	p, limit := util.Pagination(ctx)
	posts, total, err := c.Service.List(q, p, limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	page(ctx, posts, total, p, limit)
}

// CreatePost godoc
// @Summary 发帖
// @Tags 讨论区
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.ForumPostRequest true "帖子内容"
// @Success 201 {object} util.Response{data=model.ForumPost}
// @Router /api/forum/posts [post]
func (c *ForumController) CreatePost(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	var req service.ForumPostRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	post, err := c.Service.Create(me.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, post)
}

// GetPost godoc
// @Summary 帖子详情
// @Tags 讨论区
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "帖子ID"
// @Success 200 {object} util.Response{data=model.ForumPost}
// @Failure 404 {object} util.ErrorResponse
// @Router /api/forum/posts/{id} [get]
func (c *ForumController) GetPost(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	post, err := c.Service.Get(ctx.Request.Context(), me.UserID, ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, post)
}

// CreateComment godoc
// @Summary 评论
// @Tags 讨论区
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "帖子ID"
// @Param   body body service.ForumCommentRequest true "评论内容"
// @Success 201 {object} util.Response{data=model.ForumComment}
// @Router /api/forum/posts/{id}/comments [post]
func (c *ForumController) CreateComment(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	var req service.ForumCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	comment, err := c.Service.Comment(me.UserID, ctx.Param("id"), req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, comment)
}

// DeletePost godoc
// @Summary 删除帖子
// @Description 作者本人或管理员
// @Tags 讨论区
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "帖子ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.ErrorResponse
// @Router /api/forum/posts/{id} [delete]
func (c *ForumController) DeletePost(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	if err := c.Service.Delete(me, ctx.Param("id")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": ctx.Param("id")})
}
