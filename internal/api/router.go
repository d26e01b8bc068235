package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/fruity-slot/internal/errors"
	"github.com/wfunc/fruity-slot/internal/game"
	"github.com/wfunc/fruity-slot/internal/logger"
	"github.com/wfunc/fruity-slot/internal/repository"
	"github.com/wfunc/fruity-slot/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine      *gin.Engine
	db          *gorm.DB
	slotHandler *SlotHandler
	hub         *websocket.Hub
	wsPath      string
	log         *zap.Logger
}

// RouterOptions 路由依赖，DB 与 Hub 可为空
type RouterOptions struct {
	Dispatcher *game.Dispatcher
	DB         *gorm.DB
	Hub        *websocket.Hub
	WSPath     string
	Mode       string
}

// NewRouter 创建路由器
func NewRouter(opts RouterOptions) *Router {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.WSPath == "" {
		opts.WSPath = "/ws"
	}

	engine := gin.New()
	engine.Use(RequestID(), Recovery(), RequestLogger())

	log := logger.GetModuleLogger("api")

	var spins repository.SpinRepository
	if opts.DB != nil {
		spins = repository.NewSpinRepository(opts.DB)
	}

	router := &Router{
		engine:      engine,
		db:          opts.DB,
		slotHandler: NewSlotHandler(opts.Dispatcher, spins, log),
		hub:         opts.Hub,
		wsPath:      opts.WSPath,
		log:         log,
	}
	router.setupRoutes()
	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	{
		slot := v1.Group("/slot")
		{
			slot.GET("/state", r.slotHandler.State)
			slot.POST("/spin", r.slotHandler.Spin)
			slot.POST("/bet/increase", r.slotHandler.IncreaseBet)
			slot.POST("/bet/decrease", r.slotHandler.DecreaseBet)
			slot.POST("/topup", r.slotHandler.TopUp)
			slot.POST("/auto", r.slotHandler.AutoSpin)
			slot.POST("/fast", r.slotHandler.FastSpin)
			slot.POST("/key", r.slotHandler.Key)
			slot.GET("/history", r.slotHandler.History)
			slot.GET("/stats", r.slotHandler.Stats)
			slot.GET("/paytable", r.slotHandler.PayTable)
		}
	}

	if r.hub != nil {
		r.engine.GET(r.wsPath, func(c *gin.Context) {
			r.hub.ServeWS(c.Writer, c.Request)
		})
	}

	r.engine.NoRoute(func(c *gin.Context) {
		fail(c, apperrors.New(apperrors.ErrNotFound, "接口不存在"))
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	status := gin.H{
		"status":   "healthy",
		"session":  r.slotHandler.dispatcher.Session().ID(),
		"database": "disabled",
	}
	if r.hub != nil {
		status["ws_clients"] = r.hub.GetOnlineCount()
	}

	if r.db != nil {
		sqlDB, err := r.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			r.log.Warn("数据库健康检查失败", zap.Error(err))
			status["status"] = "unhealthy"
			status["database"] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["database"] = "ok"
	}

	c.JSON(http.StatusOK, status)
}

// Handler 返回 http.Handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
