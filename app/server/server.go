package server

import (
	"context"
	"net/http"

	"transcribe-cafe/app/config"
	"transcribe-cafe/app/database"
	"transcribe-cafe/app/handler"
	"transcribe-cafe/app/logger"
	"transcribe-cafe/app/middleware"
	"transcribe-cafe/app/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Server 表示 HTTP 服务器
type Server struct {
	Config          *config.Config
	Logger          *logger.Logger
	gin             *gin.Engine
	http            *http.Server
	staleJobService *service.StaleJobService
}

// New 创建一个新的 Server 实例
func New(cfg *config.Config, log *logger.Logger) *Server {
	router := gin.Default()

	// CORS 配置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.WorkerTokenHeader},
		AllowCredentials: true,
	}))

	s := &Server{
		gin: router,
		http: &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: router,
		},
		Config: cfg,
		Logger: log,
		staleJobService: service.NewStaleJobService(
			database.GetDB(), log, cfg.Worker.StaleAfter, cfg.Worker.RequeueStale),
	}

	// 设置路由
	s.setupRoutes()

	return s
}

// Start 启动服务器
func (s *Server) Start() error {
	s.Logger.Infof("在端口 %s 启动服务器", s.http.Addr)

	// 启动滞留任务监控
	s.staleJobService.Start()

	return s.http.ListenAndServe()
}

// Shutdown 关闭服务器
func (s *Server) Shutdown(ctx context.Context) error {
	// 停止滞留任务监控
	s.staleJobService.Stop()

	// 关闭数据库连接
	if err := database.Close(); err != nil {
		s.Logger.Errorf("关闭数据库连接失败: %v", err)
	}
	return s.http.Shutdown(ctx)
}

// setupRoutes 设置API路由
func (s *Server) setupRoutes() {
	// 创建服务与处理器实例
	notifyService := service.NewNotifyService(s.Logger, s.Config.Webhook.URL, s.Config.Webhook.Timeout)
	jobService := service.NewJobService(database.GetDB(), s.Logger, notifyService)
	videoHandler := handler.NewVideoHandler(jobService, s.Logger)
	workerHandler := handler.NewWorkerHandler(jobService, s.Logger)

	// 服务元信息
	s.gin.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "transcribe-backend",
			"version": rootVersion,
		})
	})
	s.gin.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Transcribe.Cafe Backend API",
			"health":  "/health",
		})
	})

	// API路由组
	api := s.gin.Group("/api")

	api.GET("/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":  "transcribe-backend",
			"version":  rootVersion,
			"database": "gorm + sqlite/postgres",
			"endpoints": gin.H{
				"videos": "/api/videos",
				"worker": "/api/worker",
			},
		})
	})

	// 视频相关路由
	videos := api.Group("/videos")
	{
		videos.GET("", videoHandler.GetVideos)
		videos.POST("", videoHandler.CreateVideo)
		videos.GET("/:id", videoHandler.GetVideo)
		videos.POST("/:id/rating", videoHandler.SetRating)
		videos.GET("/:id/status", videoHandler.GetStatus)
		videos.POST("/:id/insights", videoHandler.GenerateInsights)
		videos.POST("/:id/insights/regenerate", videoHandler.RegenerateInsights)
	}

	// worker 拉取协议路由，整组走共享密钥鉴权
	worker := api.Group("/worker")
	worker.Use(middleware.WorkerAuth(s.Config))
	{
		worker.GET("/jobs", workerHandler.GetPendingJobs)
		worker.POST("/jobs/:id/claim", workerHandler.ClaimJob)
		worker.POST("/jobs/:id/result", workerHandler.SubmitResult)
		worker.POST("/jobs/:id/progress", workerHandler.UpdateProgress)
		worker.POST("/jobs/:id/stage", workerHandler.UpdateStage)
	}
}

// rootVersion 与 cmd 中的版本号保持一致
const rootVersion = "1.2.0"
