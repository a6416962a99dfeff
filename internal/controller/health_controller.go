package controller

import (
	"context"
	"net/http"
	"time"

	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Mongo *mongo.Client
	Redis *redis.Client
}

func NewHealthController(db *gorm.DB, mongoClient *mongo.Client, rdb *redis.Client) *HealthController {
	return &HealthController{DB: db, Mongo: mongoClient, Redis: rdb}
}

// @Summary 健康检查
// @Description 检查数据库、MongoDB 和 Redis 连接
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.ErrorResponse
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	// 检查数据库连接
	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}
	if err := sqlDB.PingContext(pingCtx); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	components := gin.H{"database": "up", "mongo": "disabled", "redis": "disabled"}
	healthy := true
	if c.Mongo != nil {
		components["mongo"] = "up"
		if err := c.Mongo.Ping(pingCtx, nil); err != nil {
			components["mongo"] = "down"
			healthy = false
		}
	}
	if c.Redis != nil {
		components["redis"] = "up"
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			components["redis"] = "down"
			healthy = false
		}
	}

	status := "ok"
	if !healthy {
		status = "degraded"
	}
	util.Success(ctx, gin.H{
		"status":     status,
		"components": components,
	})
}
