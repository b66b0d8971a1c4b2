package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"surekeys_dev_v1/internal/config"
	"surekeys_dev_v1/internal/controller"
	"surekeys_dev_v1/internal/middleware"
	"surekeys_dev_v1/internal/model"
	"surekeys_dev_v1/internal/repository"
	"surekeys_dev_v1/internal/router"
	"surekeys_dev_v1/internal/service"
	"surekeys_dev_v1/internal/task"
	"surekeys_dev_v1/pkg/database"
	"surekeys_dev_v1/pkg/logger"
	"surekeys_dev_v1/pkg/surekeys"
)

// @title SureKeys 房源发布服务 API
// @version 1.0
// @description 房源发布向导、认证转发与房源浏览
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := &cli.App{
		Name:  "surekeys-posting",
		Usage: "SureKeys 房源发布服务",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径，默认查找 ./config.yaml",
				EnvVars: []string{"SUREKEYS_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "启动 HTTP 服务",
				Action: runServe,
			},
			{
				Name:   "migrate",
				Usage:  "创建或更新数据表",
				Action: runMigrate,
			},
			{
				Name:   "cleanup",
				Usage:  "立即清理一次过期会话",
				Action: runCleanup,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// ==================== 子命令 ====================

func runServe(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer zap.L().Sync()

	// 1. 初始化依赖
	deps, err := initDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	// 2. 启动定时任务
	if err := deps.Tasks.Start(); err != nil {
		return fmt.Errorf("启动定时任务失败: %w", err)
	}
	defer deps.Tasks.Stop()

	// 3. 初始化路由
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger())
	router.InitRoutes(r, deps.Controllers)

	// 4. 启动服务
	return startServer(r, cfg.Server.Port)
}

func runMigrate(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer zap.L().Sync()

	db, err := database.InitDB(databaseOptions(cfg), models()...)
	if err != nil {
		return err
	}
	defer database.Close(db)

	zap.L().Info("数据表迁移完成")
	return nil
}

func runCleanup(c *cli.Context) error {
	cfg, err := setup(c)
	if err != nil {
		return err
	}
	defer zap.L().Sync()

	deps, err := initDependencies(cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	ctx, cancel := context.WithTimeout(c.Context, 2*time.Minute)
	defer cancel()

	result, err := deps.Tasks.TriggerCleanup(ctx)
	if err != nil {
		return err
	}
	for name, n := range result {
		fmt.Printf("%s: 清理 %d 个过期会话\n", name, n)
	}
	return nil
}

// setup 加载 .env 与配置，初始化日志
func setup(c *cli.Context) (*config.Config, error) {
	loaded := config.LoadDotEnv()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if _, err := logger.Init(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	if len(loaded) > 0 {
		zap.L().Info("已加载环境变量文件", zap.Strings("files", loaded))
	}
	return cfg, nil
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Repos       *Repositories
	Services    *Services
	Controllers router.Controllers
	Tasks       *task.TaskManager
}

// Repositories 仓库集合
type Repositories struct {
	AuthSession  repository.AuthSessionRepository
	DraftSession repository.DraftSessionRepository // 为空表示草稿只在内存
}

// Services 服务集合
type Services struct {
	Auth    *service.AuthService
	Listing *service.ListingService
	Wizard  *service.WizardService
}

// Close 释放连接
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			zap.L().Warn("关闭 Redis 连接失败", zap.Error(err))
		}
	}
	if d.DB != nil {
		if err := database.Close(d.DB); err != nil {
			zap.L().Warn("关闭数据库连接失败", zap.Error(err))
		}
	}
}

func models() []interface{} {
	return []interface{}{
		&model.AuthSession{}, &model.AuthProfile{},
		&model.DraftSession{},
	}
}

func databaseOptions(cfg *config.Config) database.Options {
	return database.Options{
		Driver:  cfg.Database.Driver,
		DSN:     cfg.Database.DSN,
		Verbose: cfg.Server.Env == "dev",
	}
}

// initDependencies 初始化所有依赖
func initDependencies(cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// -------- 数据库 --------
	var migrate []interface{}
	if cfg.Database.AutoMigrate {
		migrate = models()
	}
	db, err := database.InitDB(databaseOptions(cfg), migrate...)
	if err != nil {
		return nil, err
	}
	deps.DB = db

	// -------- Repo 层 --------
	repos := &Repositories{
		AuthSession: repository.NewAuthSessionRepository(db),
	}
	switch cfg.Draft.Persistence {
	case config.PersistenceDatabase:
		repos.DraftSession = repository.NewDraftSessionRepository(db)
	case config.PersistenceRedis:
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			deps.Close()
			return nil, fmt.Errorf("连接 Redis 失败: %w", err)
		}
		repos.DraftSession = repository.NewDraftCacheRepository(deps.Redis)
	}
	deps.Repos = repos
	zap.L().Info("草稿持久化方式", zap.String("persistence", cfg.Draft.Persistence))

	// -------- 远程 API --------
	client := surekeys.NewClient(surekeys.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Debug:   cfg.API.Debug,
	})

	// -------- 业务服务 --------
	services := &Services{
		Auth:    service.NewAuthService(client, repos.AuthSession, cfg.Auth.TokenTTL),
		Listing: service.NewListingService(client, cfg.Listing.CacheTTL),
	}
	var persister service.DraftPersister
	if repos.DraftSession != nil {
		persister = repos.DraftSession
	}
	services.Wizard = service.NewWizardService(client, client, persister, services.Listing, service.WizardServiceConfig{
		SessionTTL:    cfg.Draft.SessionTTL,
		MaxImageBytes: cfg.Upload.MaxImageBytes,
	})
	deps.Services = services

	// -------- Controller 层 --------
	deps.Controllers = router.Controllers{
		Auth:     controller.NewAuthController(services.Auth),
		Listing:  controller.NewListingController(services.Listing),
		Wizard:   controller.NewWizardController(services.Wizard, cfg.Upload.MaxBatchFiles),
		Resolver: services.Auth,
		Submit:   middleware.NewKeyedLimiter(cfg.Submit.Interval, cfg.Submit.Burst),
	}

	// -------- 定时任务 --------
	deps.Tasks = task.NewTaskManager(&task.TaskManagerDeps{
		WizardSessions: services.Wizard,
		AuthSessions:   services.Auth,
	}, &task.TaskManagerConfig{
		CleanupEnabled: cfg.Cleanup.Enabled,
		CleanupSpec:    cfg.Cleanup.Spec,
	})

	return deps, nil
}

// ==================== 服务启动 ====================

// startServer 启动服务，收到退出信号后优雅关闭
func startServer(r *gin.Engine, port string) error {
	// 关闭时取消所有请求上下文，SSE 连接随之结束
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     r,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("服务启动失败: %w", err)
	case <-quit:
	}

	zap.L().Info("正在关闭服务...")
	cancelRequests()

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务强制关闭: %w", err)
	}

	zap.L().Info("服务已退出")
	return nil
}
