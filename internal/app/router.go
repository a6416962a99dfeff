package app

import (
	"lms_backend/docs"
	"lms_backend/internal/config"
	"lms_backend/internal/middleware"
	"lms_backend/internal/model"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		registerCommonRoutes(authGroup, c)
		registerStudentRoutes(authGroup, c)
		registerStaffRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RoleMiddleware(model.Admin))
	{
		admin.GET("/users", c.user.GetUsers)
		admin.GET("/users/:id", c.user.GetUser)
		admin.POST("/users/:id/approve", c.user.ApproveUser)
		admin.POST("/users/:id/reject", c.user.RejectUser)
		admin.PUT("/users/:id", c.user.UpdateUser)
		admin.DELETE("/users/:id", c.user.DeleteUser)

		admin.GET("/change-requests", c.changeRequest.List)
		admin.POST("/change-requests/:id/review", c.changeRequest.Review)

		admin.POST("/rankings/recompute", c.ranking.Recompute)
	}
}

// registerCommonRoutes 所有登录用户
func registerCommonRoutes(r *gin.RouterGroup, c *controllers) {
	r.GET("/profile", c.auth.Profile)
	r.PUT("/user/profile", c.user.UpdateProfile)
	r.POST("/user/avatar", c.user.UploadAvatar)
	r.GET("/dashboard", c.dashboard.GetDashboard)

	r.POST("/change-requests", c.changeRequest.Submit)
	r.GET("/change-requests/my", c.changeRequest.Mine)

	r.GET("/quizzes", c.quiz.ListQuizzes)
	r.GET("/quizzes/:id", c.quiz.GetQuiz)
	r.GET("/quiz-attempts/:id", c.quiz.GetAttempt)
	r.POST("/quiz-attempts/:id/explain", c.quiz.ExplainAttempt)

	r.GET("/rankings", c.ranking.Leaderboard)
	r.GET("/syllabus", c.syllabus.List)
	r.GET("/syllabus/:id", c.syllabus.Get)

	rooms := r.Group("/chat-rooms")
	{
		rooms.GET("", c.chat.ListRooms)
		rooms.GET("/:id/messages", c.chat.Messages)
		rooms.POST("/:id/messages", c.chat.PostMessage)
		rooms.GET("/:id/online", c.chat.Online)
		rooms.GET("/:id/ws", c.chat.HandleWS)
	}

	forum := r.Group("/forum")
	{
		forum.GET("/posts", c.forum.ListPosts)
		forum.POST("/posts", c.forum.CreatePost)
		forum.GET("/posts/:id", c.forum.GetPost)
		forum.POST("/posts/:id/comments", c.forum.CreateComment)
		forum.DELETE("/posts/:id", c.forum.DeletePost)
	}
}

func registerStudentRoutes(r *gin.RouterGroup, c *controllers) {
	student := r.Group("")
	student.Use(middleware.RoleMiddleware(model.Student))
	{
		student.POST("/quiz-attempts", c.quiz.SubmitAttempt)
		student.GET("/quiz-attempts/my", c.quiz.MyAttempts)
		student.GET("/weak-areas/my", c.weakArea.Mine)
		student.GET("/rankings/my", c.ranking.Mine)

		student.POST("/tutor/sessions", c.tutor.CreateSession)
		student.GET("/tutor/sessions", c.tutor.ListSessions)
		student.GET("/tutor/sessions/:id", c.tutor.GetSession)
		student.POST("/tutor/sessions/:id/messages", c.tutor.SendMessage)
	}
}

// registerStaffRoutes 教师和管理员
func registerStaffRoutes(r *gin.RouterGroup, c *controllers) {
	staff := r.Group("")
	staff.Use(middleware.RoleMiddleware(model.Professor))
	{
		staff.POST("/quizzes", c.quiz.CreateQuiz)
		staff.PUT("/quizzes/:id", c.quiz.UpdateQuiz)
		staff.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)

		staff.GET("/weak-areas/class", c.weakArea.Class)
		staff.GET("/weak-areas/student/:id", c.weakArea.ForStudent)

		staff.POST("/syllabus", c.syllabus.Create)
		staff.PATCH("/syllabus/:id", c.syllabus.UpdateTopics)

		staff.POST("/chat-rooms", c.chat.CreateRoom)
	}

	r.DELETE("/syllabus/:id", middleware.RoleMiddleware(model.Admin), c.syllabus.Delete)
}
