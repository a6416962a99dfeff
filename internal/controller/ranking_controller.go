package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RankingController struct {
	Service *service.RankingService
}

func NewRankingController(s *service.RankingService) *RankingController {
	return &RankingController{Service: s}
}

// Leaderboard godoc
// @Summary 排行榜
// @Description 学生默认查看本班/本年级
// @Tags 排名
// @Produce  json
// @Security ApiKeyAuth
// @Param   type query string false "class|batch|overall" default(class)
// @Param   batch query string false "年级"
// @Param   section query string false "班级"
// @Success 200 {object} util.Response{data=service.Leaderboard}
// @Failure 400 {object} util.ErrorResponse "type 不合法"
// @Router /api/rankings [get]
func (c *RankingController) Leaderboard(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	var q service.LeaderboardQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		util.BindError(ctx, err)
		return
	}
	board, err := c.Service.Leaderboard(me, q)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, board)
}

// Mine godoc
// @Summary 我的排名
// @Tags 排名
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.Ranking}
// @Failure 404 {object} util.ErrorResponse "还没有作答记录"
// @Router /api/rankings/my [get]
func (c *RankingController) Mine(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	row, err := c.Service.ForStudent(me.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, row)
}

// Recompute godoc
// @Summary 重建全部排名
// @Tags 排名
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response
// @Router /api/admin/rankings/recompute [post]
func (c *RankingController) Recompute(ctx *gin.Context) {
	n, err := c.Service.RecomputeAll(ctx.Request.Context())
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"students": n})
}
