package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/config"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/api/handler"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/internal/api/middleware"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/pkg/jwt"
	"github.com/Peiji-Yu/SEU-virtualCampus-sub001/pkg/redis"
)

// maxBodyBytes 请求体大小上限（课表 JSON 不会超过 1MB）
const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 选课/退课接口在高峰期按 IP 限流
	enrollLimit := middleware.RateLimit(rdb, cfg.Server.RateLimit.EnrollPerMinute, time.Minute)

	// ── API v1（全部接口需要认证，登录由套件的账户服务负责）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 课程模块
		courses := v1.Group("/courses")
		{
			courses.GET("", h.Course.ListCourses)
			courses.GET("/:id", h.Course.GetCourse)
			courses.POST("", middleware.RoleAuth("admin"), h.Course.CreateCourse)
			courses.PUT("/:id", middleware.RoleAuth("admin"), h.Course.UpdateCourse)
			courses.DELETE("/:id", middleware.RoleAuth("admin"), h.Course.DeleteCourse)
		}

		// 教学班模块
		sections := v1.Group("/sections")
		{
			sections.GET("", h.Section.ListSections)
			sections.GET("/:id", h.Section.GetSection)
			sections.POST("", middleware.RoleAuth("admin"), h.Section.CreateSection)
			sections.PUT("/:id", middleware.RoleAuth("admin"), h.Section.UpdateSection)
			sections.DELETE("/:id", middleware.RoleAuth("admin"), h.Section.DeleteSection)

			// 选课台账
			sections.POST("/:id/enroll", middleware.RoleAuth("student"), enrollLimit, h.Enrollment.Enroll)
			sections.DELETE("/:id/enroll", middleware.RoleAuth("student"), enrollLimit, h.Enrollment.Withdraw)

			// 选课名单导出
			sections.GET("/:id/roster.xlsx", middleware.RoleAuth("admin"), h.Export.ExportRoster)
		}

		// 我的选课
		enrollments := v1.Group("/enrollments")
		{
			enrollments.GET("/mine", h.Enrollment.ListMine)
			enrollments.GET("/mine/timetable", h.Enrollment.MyTimetable)
			enrollments.GET("/mine/timetable.ics", h.Export.ExportTimetableICS)
		}
	}

	return r
}
