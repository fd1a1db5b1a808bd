package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpHandler "flowfarm/interfaces/http"
	"flowfarm/interfaces/middleware"
	"flowfarm/infrastructure/realtime"
)

func InitiateRouter(
	laneHandler httpHandler.ILaneHandler,
	generateHandler httpHandler.IGenerateHandler,
	sceneHandler httpHandler.ISceneHandler,
	jobHub *realtime.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("api")

	lanes := api.Group("/lanes")
	{
		lanes.GET("", laneHandler.List)
		lanes.POST("", laneHandler.Save)
		lanes.GET("/stats", laneHandler.Stats)
		lanes.POST("/pool", laneHandler.LoadPool)
		lanes.POST("/capture", laneHandler.CaptureImport)
		lanes.GET("/:name", laneHandler.Get)
		lanes.DELETE("/:name", laneHandler.Delete)
		lanes.POST("/:name/refresh", laneHandler.Refresh)
		lanes.POST("/:name/capture", laneHandler.CaptureCurrent)
	}

	api.POST("/generate", generateHandler.Generate)
	api.POST("/generate/chain", generateHandler.GenerateChain)
	api.POST("/operations/status", generateHandler.CheckStatus)
	api.GET("/results/:jobId", generateHandler.GetResult)
	api.POST("/media/upload", generateHandler.UploadImage)

	api.GET("/scenes/:sceneId/clips", sceneHandler.GetClips)
	api.POST("/scenes/:sceneId/clips", sceneHandler.AppendClip)

	if jobHub != nil {
		api.GET("/jobs/stream", jobHub.Serve)
	}

	return router
}
