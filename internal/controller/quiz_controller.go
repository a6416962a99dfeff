package controller

import (
	"lms_backend/internal/service"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService    *service.QuizService
	AttemptService *service.QuizAttemptService
	TutorService   *service.TutorService
}

func NewQuizController(quizService *service.QuizService, attemptService *service.QuizAttemptService, tutorService *service.TutorService) *QuizController {
	return &QuizController{
		QuizService:    quizService,
		AttemptService: attemptService,
		TutorService:   tutorService,
	}
}

// CreateQuiz godoc
// @Summary 创建测验
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.QuizRequest true "测验内容"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.ErrorResponse
// @Router /api/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	quiz, err := c.QuizService.Create(me.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// ListQuizzes godoc
// @Summary 测验列表
// @Description 学生只能看到本班已发布的测验，不含答案
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   subject query string false "科目"
// @Param   batch query string false "年级"
// @Param   section query string false "班级"
// @Param   mine query bool false "只看自己创建的"
// @Success 200 {object} util.Response{data=[]model.Quiz}
// @Router /api/quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	var q service.QuizListQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		util.BindError(ctx, err)
		return
	}
	quizzes, err := c.QuizService.List(me, q)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, quizzes)
}

// GetQuiz godoc
// @Summary 测验详情
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.ErrorResponse
// @Router /api/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	quiz, err := c.QuizService.Get(me, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// UpdateQuiz godoc
// @Summary 修改测验
// @Description 已有作答记录的测验不可修改
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Param   body body service.QuizRequest true "测验内容"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 409 {object} util.ErrorResponse "已有作答"
// @Router /api/quizzes/{id} [put]
func (c *QuizController) UpdateQuiz(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	var req service.QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	quiz, err := c.QuizService.Update(me, id, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// DeleteQuiz godoc
// @Summary 删除测验
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.ErrorResponse "已有作答"
// @Router /api/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if err := c.QuizService.Delete(me, id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// SubmitAttempt godoc
// @Summary 提交测验
// @Description 评分后更新薄弱知识点和排名，每个测验只能提交一次
// @Tags 测验作答
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.SubmitAttemptRequest true "答案"
// @Success 201 {object} util.Response{data=service.SubmitAttemptResult}
// @Failure 400 {object} util.ErrorResponse "答案不合法"
// @Failure 404 {object} util.ErrorResponse "测验不存在"
// @Failure 409 {object} util.ErrorResponse "重复提交"
// @Router /api/quiz-attempts [post]
func (c *QuizController) SubmitAttempt(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	var req service.SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BindError(ctx, err)
		return
	}
	res, err := c.AttemptService.Submit(ctx.Request.Context(), me.UserID, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, res)
}

// MyAttempts godoc
// @Summary 我的作答记录
// @Tags 测验作答
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.QuizAttempt}
// @Router /api/quiz-attempts/my [get]
func (c *QuizController) MyAttempts(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	list, err := c.AttemptService.ForStudent(me.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// GetAttempt godoc
// @Summary 作答详情
// @Tags 测验作答
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "作答ID"
// @Success 200 {object} util.Response{data=model.QuizAttempt}
// @Failure 403 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Router /api/quiz-attempts/{id} [get]
func (c *QuizController) GetAttempt(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	attempt, err := c.AttemptService.Get(me, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// ExplainAttempt godoc
// @Summary AI 讲解错题
// @Tags 测验作答
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "作答ID"
// @Success 200 {object} util.Response{data=service.AttemptExplanation}
// @Failure 503 {object} util.ErrorResponse "AI 服务不可用"
// @Router /api/quiz-attempts/{id}/explain [post]
func (c *QuizController) ExplainAttempt(ctx *gin.Context) {
	me, ok := identity(ctx)
	if !ok {
		return
	}
	id, err := util.ParamID(ctx, "id")
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	res, err := c.TutorService.ExplainAttempt(ctx.Request.Context(), me, id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}
