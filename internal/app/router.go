package app

import (
	"nihongo_edu_backend/docs"
	"nihongo_edu_backend/internal/config"
	"nihongo_edu_backend/internal/middleware"
	"nihongo_edu_backend/internal/model"
	"nihongo_edu_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		public.GET("/lessons", c.lesson.ListLessons)
		public.GET("/lessons/:id", c.lesson.GetLesson)

		catalog := public.Group("/catalog")
		{
			catalog.GET("/kanji", c.catalog.ListKanji)
			catalog.GET("/vocabulary", c.catalog.ListVocabulary)
			catalog.GET("/grammar", c.catalog.ListGrammar)
		}
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	rg.POST("/lessons/:id/questions/:qid/answers", c.learning.SubmitAnswer)
	rg.GET("/lessons/:id/progress", c.learning.GetProgress)
	rg.POST("/lessons/:id/progress", c.learning.MarkContentComplete)
	rg.DELETE("/lessons/:id/progress", c.learning.ResetProgress)
	rg.GET("/progress", c.learning.ListProgress)

	rg.GET("/analytics/performance", c.analytics.GetPerformance)
	rg.GET("/analytics/study-plan", c.analytics.GetStudyPlan)

	rg.POST("/lessons/personalized", c.learning.GeneratePersonalizedLesson)
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.POST("/lessons", c.lesson.CreateLesson)
		teacher.POST("/lessons/:id/publish", c.lesson.PublishLesson)
		teacher.POST("/lessons/:id/contents", c.lesson.AddContent)
		teacher.POST("/lessons/:id/contents/:cid/questions", c.lesson.AddQuestion)
	}
}
