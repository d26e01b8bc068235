package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/fruity-slot/internal/api"
	"github.com/wfunc/fruity-slot/internal/config"
	"github.com/wfunc/fruity-slot/internal/database"
	apperrors "github.com/wfunc/fruity-slot/internal/errors"
	"github.com/wfunc/fruity-slot/internal/game"
	"github.com/wfunc/fruity-slot/internal/logger"
	"github.com/wfunc/fruity-slot/internal/repository"
	"github.com/wfunc/fruity-slot/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	db         *gorm.DB
	session    *game.Session
	autoPlayer *game.AutoPlayer
	hub        *websocket.Hub
	httpServer *http.Server

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动水果机服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrUnknown, "初始化组件失败")
	}
	s.startServices()

	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", s.cfg.Server.Addr()),
		zap.String("websocket", s.cfg.WebSocket.Path),
	)
	return nil
}

// initComponents 初始化组件
func (s *Server) initComponents() error {
	var opts []game.Option

	if s.cfg.Database.Enabled {
		if err := database.Init(&s.cfg.Database); err != nil {
			return err
		}
		s.db = database.GetDB()
		opts = append(opts, game.WithRecorder(repository.NewSpinRepository(s.db)))
	}

	engine, err := game.NewEngineFromConfig(s.cfg.Game)
	if err != nil {
		return err
	}
	session, err := game.NewSession(engine, game.SettingsFromConfig(s.cfg.Game), opts...)
	if err != nil {
		return err
	}
	s.session = session
	s.autoPlayer = game.NewAutoPlayer(session)

	dispatcher := game.NewDispatcher(session)
	s.hub = websocket.NewHub(dispatcher, websocket.OptionsFromConfig(s.cfg.WebSocket))

	mode := gin.ReleaseMode
	if s.cfg.Server.Mode == "development" {
		mode = gin.DebugMode
	}
	router := api.NewRouter(api.RouterOptions{
		Dispatcher: dispatcher,
		DB:         s.db,
		Hub:        s.hub,
		WSPath:     s.cfg.WebSocket.Path,
		Mode:       mode,
	})
	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("所有组件初始化完成",
		zap.String("session_id", session.ID()),
		zap.Bool("journal", s.db != nil))
	return nil
}

// startServices 启动服务
func (s *Server) startServices() {
	s.wg.Add(3)

	go func() {
		defer s.wg.Done()
		s.hub.Run(s.ctx)
	}()

	go func() {
		defer s.wg.Done()
		if err := s.autoPlayer.Run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("自动旋转退出", zap.Error(err))
		}
	}()

	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
			s.cancel()
		}
	}()
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case sig := <-sigCh:
		s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
	case <-s.ctx.Done():
	}
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP服务关闭失败", zap.Error(err))
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return apperrors.New(apperrors.ErrTimeout, "关闭超时")
	}

	if s.db != nil {
		if err := database.Close(); err != nil {
			s.logger.Error("关闭数据库失败", zap.Error(err))
		}
	}

	snap := s.session.Snapshot()
	s.logger.Info("会话结束",
		zap.Int("spins", snap.SpinCount),
		zap.Int64("total_bet", snap.TotalBet),
		zap.Int64("total_win", snap.TotalWin),
		zap.Int64("balance", snap.Balance))
	return nil
}

// reloadConfig 重新加载配置，只应用日志级别，玩法参数在重启后生效
func (s *Server) reloadConfig(newCfg *config.Config) {
	logger.SetLevel(newCfg.Log.Level)
	s.logger.Info("配置重新加载完成", zap.String("log_level", newCfg.Log.Level))
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("水果机服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
