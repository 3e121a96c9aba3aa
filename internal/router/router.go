package router

import (
	"github.com/blues/fundhive/internal/config"
	"github.com/blues/fundhive/internal/funding"
	"github.com/blues/fundhive/internal/handler"
	"github.com/blues/fundhive/internal/logic"
	"github.com/blues/fundhive/internal/scoring"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, analyzer *scoring.Analyzer, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(handler.Identity())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "fundhive",
		})
	})

	projector := funding.NewProjector()
	projectLogic := logic.NewProjectLogic(db)
	contributeLogic := logic.NewContributeRecordLogic(db)
	fundingLogic := logic.NewFundingLogic(db)

	projectHandler := handler.NewProjectHandler(projectLogic, contributeLogic, projector, cfg.Trending.Limit)
	contributeHandler := handler.NewContributeHandler(fundingLogic, contributeLogic, projector)
	analysisHandler := handler.NewAnalysisHandler(projectLogic, analyzer)

	api := r.Group("/api")
	{
		// 项目相关路由
		projects := api.Group("/projects")
		{
			projects.POST("", handler.RequireIdentity(), projectHandler.CreateProject)
			projects.GET("", projectHandler.GetProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.GET("/:id/contributions", contributeHandler.GetProjectContributeRecords)
			projects.GET("/:id/stats", projectHandler.GetProjectStats)
		}

		// 出资及项目删除路由
		posts := api.Group("/posts", handler.RequireIdentity())
		{
			posts.POST("/:id/invest", contributeHandler.Invest)
			posts.POST("/:id/crowdfund", contributeHandler.Crowdfund)
			posts.DELETE("/:id", projectHandler.DeleteProject)
		}

		api.GET("/rewards", contributeHandler.GetRewardTiers)
		api.POST("/ai-analysis", analysisHandler.Analyze)
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID, x-user-id, x-user-name, x-user-picture")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
