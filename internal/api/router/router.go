package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"course-planner/config"
	"course-planner/internal/api/handler"
	"course-planner/internal/api/middleware"
	"course-planner/pkg/jwt"
)

// maxBodyBytes 请求体上限（自定义课程 + 时段 JSON 远小于此值）
const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎；limiter 为 nil 时只做进程内限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, limiter middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.RequestID())
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 目录（无需认证，限流）
		public := v1.Group("")
		public.Use(middleware.RateLimit(limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger))
		{
			public.GET("/colors/:name", h.Catalog.Colors)
			public.GET("/tags/:year/:semester", h.Catalog.Tags)
			public.POST("/search_query", h.Catalog.Search)
			public.GET("/coursebook", h.Catalog.ListCoursebooks)
			public.GET("/coursebook/recent", h.Catalog.RecentCoursebook)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr))
		{
			// 时间表
			tables := authorized.Group("/tables")
			{
				tables.GET("", h.Timetable.List)
				tables.POST("", h.Timetable.Create)
				tables.GET("/:id", h.Timetable.Get)
				tables.PUT("/:id", h.Timetable.Rename)
				tables.DELETE("/:id", h.Timetable.Delete)
				tables.POST("/:id/copy", h.Timetable.Copy)

				// 条目
				tables.POST("/:id/lecture", h.Lecture.AddCustom)
				tables.DELETE("/:id/lecture", h.Lecture.RemoveByCourseNumber)
				tables.POST("/:id/lecture/:lecture_id", h.Lecture.AddRef)
				tables.PUT("/:id/lecture/:lecture_id", h.Lecture.Modify)
				tables.PUT("/:id/lecture/:lecture_id/reset", h.Lecture.Reset)
				tables.DELETE("/:id/lecture/:lecture_id", h.Lecture.Remove)

				// 导出
				tables.GET("/:id/export/xlsx", h.Export.ExportXLSX)
				tables.GET("/:id/export/ics", h.Export.ExportICS)
			}

			authorized.GET("/notifications", h.Notification.List)

			// 管理员
			admin := authorized.Group("/admin")
			admin.Use(middleware.RoleAuth(jwt.RoleAdmin))
			{
				admin.POST("/coursebook/refresh", h.Admin.RefreshCoursebook)
				admin.POST("/coursebook/refresh/recent", h.Admin.RefreshRecent)
			}
		}
	}

	return r
}
