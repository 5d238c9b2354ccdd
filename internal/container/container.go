package container

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/api"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/auth"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/config"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/database"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/repository"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/service"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/storage"
	"github.com/hardweiwei/fuwuqiyunweiguzhang/internal/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理数据库、会话、存储、Hub 和全部业务服务
type Container struct {
	cfg      *config.Config
	db       *gorm.DB
	logger   *logrus.Logger
	hub      *websocket.Hub
	sessions *auth.SessionManager
	photos   *storage.PhotoStore

	authSvc  service.AuthService
	faultSvc service.FaultService
	maintSvc service.MaintenanceService
	userSvc  service.UserService
	deptSvc  service.DepartmentService
	statsSvc service.StatisticsService
	auditSvc service.AuditLogService
}

// NewContainer 创建依赖注入容器
func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. 日志
	logger, err := api.NewLoggerFromConfig(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	api.SetLogger(logger)

	// 2. 数据库与迁移
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return newWithDB(cfg, db, logger), nil
}

// NewContainerWithDB 用现成的数据库连接装配容器,测试用
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, logger *logrus.Logger) *Container {
	if logger == nil {
		logger = api.NewLogger()
	}
	return newWithDB(cfg, db, logger)
}

func newWithDB(cfg *config.Config, db *gorm.DB, logger *logrus.Logger) *Container {
	// 基础设施
	hub := websocket.NewHub()
	sessions := auth.NewSessionManager(db, cfg.Session.CookieName, time.Duration(cfg.Session.TTLHours)*time.Hour)
	photos := storage.NewPhotoStore(cfg.Storage.MediaDir, cfg.Storage.MediaURL)

	// 仓储
	faultRepo := repository.NewFaultRepository(db)
	recordRepo := repository.NewMaintenanceRecordRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	userRepo := repository.NewUserRepository(db)
	deptRepo := repository.NewDepartmentRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// 服务
	entry := logrus.NewEntry(logger)
	auditSvc := service.NewAuditLogService(auditRepo, entry)
	faultSvc := service.NewFaultService(db, faultRepo, recordRepo, historyRepo, auditSvc, hub, entry)
	maintSvc := service.NewMaintenanceService(recordRepo, photoRepo, photos, auditSvc, entry)
	authSvc := service.NewAuthService(userRepo, sessions, auditSvc, entry)
	userSvc := service.NewUserService(userRepo, deptRepo, sessions, auditSvc, entry)
	deptSvc := service.NewDepartmentService(deptRepo, auditSvc, entry)
	statsSvc := service.NewStatisticsService(db, entry)

	return &Container{
		cfg:      cfg,
		db:       db,
		logger:   logger,
		hub:      hub,
		sessions: sessions,
		photos:   photos,
		authSvc:  authSvc,
		faultSvc: faultSvc,
		maintSvc: maintSvc,
		userSvc:  userSvc,
		deptSvc:  deptSvc,
		statsSvc: statsSvc,
		auditSvc: auditSvc,
	}
}

// Router 装配完整的 HTTP 路由
func (c *Container) Router() *gin.Engine {
	return api.SetupRoutes(c.RouterDeps())
}

// RouterDeps 路由装配依赖
func (c *Container) RouterDeps() *api.RouterDeps {
	return &api.RouterDeps{
		Config:     c.cfg,
		DB:         c.db,
		Sessions:   c.sessions,
		PhotoStore: c.photos,
		Hub:        c.hub,
		AuthSvc:    c.authSvc,
		FaultSvc:   c.faultSvc,
		MaintSvc:   c.maintSvc,
		UserSvc:    c.userSvc,
		DeptSvc:    c.deptSvc,
		StatsSvc:   c.statsSvc,
		AuditSvc:   c.auditSvc,
	}
}

// Config 获取配置
func (c *Container) Config() *config.Config {
	return c.cfg
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Logger 获取日志记录器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// Hub 获取 WebSocket Hub
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// Sessions 获取会话管理器
func (c *Container) Sessions() *auth.SessionManager {
	return c.sessions
}

// PhotoStore 获取照片存储
func (c *Container) PhotoStore() *storage.PhotoStore {
	return c.photos
}

// UserService 获取用户管理服务
func (c *Container) UserService() service.UserService {
	return c.userSvc
}

// StatisticsService 获取统计服务
func (c *Container) StatisticsService() service.StatisticsService {
	return c.statsSvc
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	if c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
