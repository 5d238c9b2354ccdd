package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/auth"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/config"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/service"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/storage"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/websocket"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/workflow"
	"gorm.io/gorm"
)

// RouterDeps 路由装配所需的依赖
type RouterDeps struct {
	Config     *config.Config
	DB         *gorm.DB
	Sessions   *auth.SessionManager
	PhotoStore *storage.PhotoStore
	Hub        *websocket.Hub

	AuthSvc  service.AuthService
	FaultSvc service.FaultService
	MaintSvc service.MaintenanceService
	UserSvc  service.UserService
	DeptSvc  service.DepartmentService
	StatsSvc service.StatisticsService
	AuditSvc service.AuditLogService
}

// SetupRoutes 配置路由
func SetupRoutes(deps *RouterDeps) *gin.Engine {
	if config.IsProduction(deps.Config) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// 中间件
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(CORSMiddleware(&deps.Config.CORS))
	router.Use(I18nMiddleware())
	if deps.Config.RateLimit.Enabled {
		router.Use(RateLimitMiddleware(deps.Config.RateLimit.RPS, deps.Config.RateLimit.Burst))
	}
	router.Use(auth.SessionMiddleware(deps.Sessions))

	// 健康检查与指标
	healthController := NewHealthController(deps.DB)
	router.GET("/health", healthController.Check)
	router.GET("/metrics", MetricsHandler)

	// 维修照片静态服务
	router.Static(deps.Config.Storage.MediaURL, deps.PhotoStore.MediaDir())

	// WebSocket 故障事件推送
	if deps.Hub != nil {
		router.GET("/ws/faults", websocket.FaultFeedHandler(deps.Hub))
	}

	serializer := NewSerializer(deps.PhotoStore)
	authController := NewAuthController(deps.AuthSvc, deps.Sessions, serializer)
	faultController := NewFaultController(deps.FaultSvc, serializer)
	maintController := NewMaintenanceController(deps.MaintSvc, serializer)
	userController := NewUserController(deps.UserSvc, serializer)
	deptController := NewDepartmentController(deps.DeptSvc)
	statsController := NewStatsController(deps.StatsSvc)
	auditController := NewAuditController(deps.AuditSvc)

	csrfConfig := DefaultCSRFConfig()
	csrfConfig.CookieSecure = deps.Config.Session.CookieSecure

	// API v1 路由组
	v1 := router.Group("/api/v1")
	v1.Use(CSRFMiddleware(csrfConfig))
	{
		// 认证路由
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authController.Login)
			authGroup.GET("/csrf", authController.CSRFToken)
			authGroup.POST("/logout", auth.RequireAuth(), authController.Logout)
			authGroup.GET("/me", auth.RequireAuth(), authController.Me)
		}

		// 故障路由
		faults := v1.Group("/faults")
		faults.Use(auth.RequireAuth())
		{
			faults.POST("", faultController.Report)
			faults.GET("", faultController.List)
			faults.GET("/:id", faultController.Get)
			faults.DELETE("/:id", faultController.Remove)
			faults.POST("/:id/accept", faultController.Accept)
			faults.POST("/:id/resolve", faultController.Resolve)
			faults.POST("/:id/cannot-resolve", faultController.CannotResolve)
			faults.GET("/:id/export", faultController.Export)
			faults.GET("/:id/history", faultController.History)
		}

		// 维修记录路由
		records := v1.Group("/maintenance-records")
		records.Use(auth.RequireAuth())
		{
			records.GET("", maintController.List)
			records.GET("/:id", maintController.Get)
			records.PUT("/:id", maintController.Update)
			records.POST("/:id/photos", maintController.UploadPhoto)
		}

		// 照片删除仅管理员
		v1.DELETE("/photos/:id", auth.RequireRoles(workflow.RoleAdmin), maintController.DeletePhoto)

		// 统计路由
		v1.GET("/stats/faults", auth.RequireAuth(), statsController.Overview)

		// 管理路由,仅管理员
		admin := v1.Group("")
		admin.Use(auth.RequireRoles(workflow.RoleAdmin))
		{
			users := admin.Group("/users")
			{
				users.POST("", userController.Create)
				users.GET("", userController.List)
				users.GET("/:id", userController.Get)
				users.PUT("/:id", userController.Update)
				users.DELETE("/:id", userController.Delete)
			}

			departments := admin.Group("/departments")
			{
				departments.POST("", deptController.Create)
				departments.GET("", deptController.List)
				departments.GET("/:id", deptController.Get)
				departments.PUT("/:id", deptController.Update)
				departments.DELETE("/:id", deptController.Delete)
			}

			admin.GET("/audit-logs", auditController.ListByResource)
		}
	}

	// 未匹配路由统一返回 JSON 404
	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, TranslateForRequest(c, "error.not_found"), "")
	})

	return router
}
