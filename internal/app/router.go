package app

import (
	"grading_center_backend/docs"
	"grading_center_backend/internal/config"
	"grading_center_backend/internal/middleware"
	"grading_center_backend/internal/model"

	"grading_center_backend/pkg/monitoring"

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
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))
	{
		api.GET("/profile", c.auth.GetProfile)

		a.registerExamRoutes(api, c)
		a.registerAnswerRoutes(api, c)
		a.registerArbitrationRoutes(api, c)
	}
}

// registerExamRoutes 考试/题目元数据与评阅工作台列表
func (a *App) registerExamRoutes(api *gin.RouterGroup, c *controllers) {
	marker := middleware.RoleMiddleware(model.Marker, model.Arbitrator)

	api.GET("/exams", c.answer.ListExams)
	api.GET("/exams/:id/questions", c.answer.ListQuestions)
	api.GET("/exams/:id/answers/pending", marker, c.answer.ListPending)
	api.GET("/exams/:id/answers/marked", marker, c.answer.ListMarked)
}

// registerAnswerRoutes 答案录入、详情、评分与争议
func (a *App) registerAnswerRoutes(api *gin.RouterGroup, c *controllers) {
	student := middleware.RoleMiddleware(model.Student)
	marker := middleware.RoleMiddleware(model.Marker, model.Arbitrator)

	api.POST("/answers", student, c.answer.CreateAnswer)
	api.POST("/answers/:id/attachments", student, c.answer.UploadAttachment)
	api.POST("/answers/:id/dispute", student, c.grading.FileDispute)

	api.GET("/answers/:id", marker, c.answer.GetDetail)
	api.POST("/answers/:id/score", middleware.RoleMiddleware(model.Marker), c.grading.SubmitScore)
}

// registerArbitrationRoutes 仲裁单生命周期与事件推送
func (a *App) registerArbitrationRoutes(api *gin.RouterGroup, c *controllers) {
	arbitrator := middleware.RoleMiddleware(model.Arbitrator)

	// 评阅人也可以手动升级，裁决只属于仲裁人
	api.POST("/answers/:id/arbitration", middleware.RoleMiddleware(model.Marker, model.Arbitrator), c.arbitration.Escalate)
	api.GET("/arbitrations", arbitrator, c.arbitration.List)
	api.GET("/arbitrations/:id", arbitrator, c.arbitration.Get)
	api.POST("/arbitrations/:id/claim", arbitrator, c.arbitration.Claim)
	api.POST("/arbitrations/:id/resolve", arbitrator, c.arbitration.Resolve)
	api.GET("/ws/arbitration", arbitrator, c.arbitration.WatchEvents)
}
