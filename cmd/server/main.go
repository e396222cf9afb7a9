package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lithammer/shortuuid/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	gormlogger "gorm.io/gorm/logger"

	"shortlink-service/docs"
	"shortlink-service/internal/cache"
	"shortlink-service/internal/config"
	"shortlink-service/internal/handler"
	"shortlink-service/internal/metrics"
	"shortlink-service/internal/middleware"
	"shortlink-service/internal/safety"
	"shortlink-service/internal/service"
	"shortlink-service/internal/shortcode"
	"shortlink-service/internal/store"
	"shortlink-service/pkg/database"
	auth "shortlink-service/pkg/jwt"
	"shortlink-service/pkg/logger"
	"shortlink-service/pkg/redis"
)

// @title 短链接服务 API
// @version 1.0
// @description 短链接创建、解析与管理接口
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Println("配置加载失败:", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
		Console:    cfg.Log.Console,
	}); err != nil {
		fmt.Println("日志初始化失败:", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	sugaredLogger := logger.Sugar

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	db, err := database.Open(database.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Name:            cfg.Database.Name,
		Charset:         cfg.Database.Charset,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute,
		LogLevel:        gormLogLevel(cfg.App.Mode),
	})
	if err != nil {
		sugaredLogger.Fatalf("数据库初始化失败: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			sugaredLogger.Errorf("关闭数据库连接失败: %v", err)
		}
	}()
	sugaredLogger.Infof("✅ 数据库连接成功 (%s)", cfg.Database.Driver)

	mappings := store.NewGormStore(db)
	if err := mappings.Migrate(ctx); err != nil {
		sugaredLogger.Fatalf("数据库迁移失败: %v", err)
	}
	sugaredLogger.Info("✅ 数据库迁移成功")

	users := store.NewUserStore(db)
	if cfg.Auth.AdminPassword != "" {
		if _, err := users.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			sugaredLogger.Errorf("创建管理员失败: %v", err)
		} else {
			sugaredLogger.Infow("✅ 管理员账号已就绪", "username", cfg.Auth.AdminUsername)
		}
	} else {
		sugaredLogger.Warn("未配置 auth.admin_password，管理接口将无法登录")
	}

	rdb, err := redis.NewClient(ctx, &redis.Options{
		Host: cfg.Cache.Host, Port: cfg.Cache.Port, Password: cfg.Cache.Password, DB: cfg.Cache.DB,
	})
	switch {
	case err != nil:
		sugaredLogger.Warnf("缓存连接失败，仅使用本地缓存: %v", err)
		rdb = nil
	case rdb != nil:
		defer func() {
			if err := rdb.Close(); err != nil {
				sugaredLogger.Errorf("关闭 Redis 连接失败: %v", err)
			}
		}()
		sugaredLogger.Info("✅ 缓存连接成功")
	}

	local, err := cache.NewLocalCache(cfg.Cache.LocalItems, time.Duration(cfg.Cache.LocalTTL)*time.Second)
	if err != nil {
		sugaredLogger.Fatalf("本地缓存初始化失败: %v", err)
	}
	linkCache := cache.NewShortlinkCache(rdb, local, time.Duration(cfg.Cache.TTL)*time.Second, sugaredLogger)
	defer linkCache.Close()

	// 初始化并启动短码生成器
	generator, err := shortcode.NewRandomGenerator(cfg.Shortener.CodeLength, sugaredLogger)
	if err != nil {
		sugaredLogger.Fatalf("短码生成器初始化失败: %v", err)
	}
	generator.Start(shortcode.DefaultPoolSize)
	defer generator.Stop()
	sugaredLogger.Infof("✅ 短码生成器已启动，长度 %d", generator.Length())

	guardOpts := safety.GuardOptions{
		Timeout:  cfg.SafeBrowsing.TimeoutDuration(),
		FailOpen: cfg.SafeBrowsing.FailOpen,
	}
	if cfg.SafeBrowsing.Enabled {
		guardOpts.Remote = safety.NewSafeBrowsingClient(safety.ClientOptions{
			Endpoint:      cfg.SafeBrowsing.Endpoint,
			APIKey:        cfg.SafeBrowsing.APIKey,
			ClientID:      cfg.SafeBrowsing.ClientID,
			ClientVersion: cfg.App.Version,
			Timeout:       cfg.SafeBrowsing.TimeoutDuration(),
			RetryCount:    cfg.SafeBrowsing.RetryCount,
		})
		sugaredLogger.Infow("✅ Safe Browsing 检查已启用", "fail_open", cfg.SafeBrowsing.FailOpen)
	}
	guard := safety.NewGuard(safety.NewHeuristics(cfg.SafeBrowsing.BlockPrivate), guardOpts, sugaredLogger)

	selfHosts := append([]string{cfg.PublicHost()}, cfg.App.Aliases...)
	shortener := service.NewShortener(mappings, generator, guard, linkCache, service.ShortenerOptions{
		MaxAttempts: cfg.Shortener.MaxAttempts,
		SelfHosts:   selfHosts,
	}, sugaredLogger)
	resolver := service.NewResolver(mappings, linkCache, sugaredLogger)

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = shortuuid.New()
		sugaredLogger.Warn("未配置 auth.secret，使用临时密钥，重启后令牌失效")
	}
	tokenManager := auth.NewTokenManager(secret, cfg.Auth.Issuer, time.Duration(cfg.Auth.ExpirationHours)*time.Hour)
	sugaredLogger.Info("✅ 认证管理器初始化成功")

	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapRecovery(logger.Logger, true))
	router.Use(middleware.RequestID())
	router.Use(middleware.GinZapLogger(logger.Logger))
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cfg.CORS.AllowOrigins))

	rateLimiter := middleware.NewIPRateLimiter(&cfg.RateLimit)
	go rateLimiter.Run(ctx)
	router.Use(rateLimiter.RateLimit())
	router.Use(middleware.Timeout(cfg.Server.RequestTimeoutDuration()))

	if u, err := url.Parse(cfg.App.BaseURL); err == nil {
		docs.SwaggerInfo.Host = u.Host
	}
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	urlHandler := handler.NewShortLinkHandler(shortener, resolver, cfg.App.BaseURL, sugaredLogger)
	authHandler := handler.NewAuthHandler(users, tokenManager, sugaredLogger)
	handler.RegisterRoutes(router, urlHandler, authHandler,
		middleware.AuthMiddleware(tokenManager), middleware.AdminMiddleware())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		sugaredLogger.Infof("🚀 服务启动成功, 访问 http://localhost:%d", cfg.Server.Port)
		sugaredLogger.Infof("📚 Swagger 文档地址: http://localhost:%d/swagger/index.html", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugaredLogger.Fatalf("服务启动失败: %v", err)
		}
	}()

	<-ctx.Done()
	sugaredLogger.Info("收到退出信号，正在关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugaredLogger.Errorf("服务关闭失败: %v", err)
		return
	}
	sugaredLogger.Info("✅ 服务已安全退出")
}

func gormLogLevel(mode string) gormlogger.LogLevel {
	if mode == "production" {
		return gormlogger.Error
	}
	return gormlogger.Warn
}
