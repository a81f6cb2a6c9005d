package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/user/yamdb/internal/auth"
	"github.com/user/yamdb/internal/config"
	"github.com/user/yamdb/internal/handler"
	"github.com/user/yamdb/internal/logging"
	"github.com/user/yamdb/internal/mail"
	"github.com/user/yamdb/internal/middleware"
	"github.com/user/yamdb/internal/repository"
	"github.com/user/yamdb/internal/router"
	"github.com/user/yamdb/internal/service"
)

func main() {
	// 加载配置（含 .env）
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("配置加载失败")
	}
	logging.Init(cfg.Logging())

	// 初始化数据库
	db, err := repository.InitDB(cfg.DSN())
	if err != nil {
		logging.Fatal().Err(err).Msg("数据库连接失败")
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	if err := repository.Migrate(db); err != nil {
		logging.Fatal().Err(err).Msg("数据库迁移失败")
	}

	// 初始化仓库
	repos := repository.NewRepositories(db)

	// 未配置 SMTP 时确认码只写日志
	var mailer auth.Mailer = mail.LogMailer{}
	if cfg.SMTP.Host != "" {
		mailer = mail.NewMailer(mail.NewClient(cfg.SMTP))
	} else {
		logging.Warn().Msg("未配置 SMTP_HOST，确认码将输出到日志")
	}

	// 初始化服务
	tokens := auth.NewTokens(cfg.AppSecret, cfg.JWTExpiry())
	h := handler.NewHandler(
		auth.NewService(repos.User, mailer, auth.NewCoder(cfg.AppSecret), tokens),
		service.NewCatalogService(repos.Title, repos.Category, repos.Genre),
		service.NewContentService(repos.Title, repos.Review, repos.Comment),
		service.NewAccountService(repos.User),
	)

	// 初始化 Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.SecurityHeaders())

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	router.RegisterRoutes(r, h, tokens)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		logging.Info().Str("addr", srv.Addr).Msg("服务器启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("服务器启动失败")
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("正在关闭服务器...")

	// 5 秒超时上下文用于关闭过程
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("服务器强制关闭")
		return
	}

	logging.Info().Msg("服务器已退出")
}
