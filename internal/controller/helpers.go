package controller

import (
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// identity 取当前登录身份，缺失时直接返回 401
func identity(ctx *gin.Context) (util.Identity, bool) {
	id, ok := util.CurrentIdentity(ctx)
	if !ok {
		util.Unauthorized(ctx)
	}
	return id, ok
}

func page(ctx *gin.Context, list interface{}, total int64, p, limit int) {
	util.Success(ctx, util.PageResponse{List: list, Total: total, Page: p, Limit: limit})
}
