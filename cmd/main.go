package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-extractor-go/internal/api/handler"
	"resume-extractor-go/internal/api/router"
	"resume-extractor-go/internal/config"
	"resume-extractor-go/internal/extractor"
	appCoreLogger "resume-extractor-go/internal/logger"
	"resume-extractor-go/internal/storage"
	"resume-extractor-go/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

func main() {
	// .env 不存在时静默跳过
	_ = godotenv.Load()

	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file, 为空时按常见位置搜索")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		glog.Fatalf("加载配置失败: %v", err)
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := tracing.InitTracerProvider(ctx, &cfg.Tracing)
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}
	defer func() {
		flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelFlush()
		if err := shutdownTracer(flushCtx); err != nil {
			glog.Warnf("链路追踪关闭失败: %v", err)
		}
	}()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	engine := extractor.NewEngine(cfg.Extractor)
	glog.Infof("解析引擎初始化成功, 版本: %s", cfg.Extractor.ParserVersion)

	parseHandler := handler.NewParseHandler(cfg, storageManager, engine)

	// 异步抽取消费者依赖全套存储组件, 单机纯解析模式下跳过
	if storageManager.RabbitMQ != nil && storageManager.MySQL != nil &&
		storageManager.Redis != nil && storageManager.MinIO != nil {
		go func() {
			if err := parseHandler.StartExtractionConsumer(ctx); err != nil {
				glog.Fatalf("启动简历抽取消费者失败: %v", err)
			}
			glog.Info("简历抽取消费者已启动")
		}()
	} else {
		glog.Warn("存储组件未配置齐全, 抽取消费者不启动, 仅提供同步解析接口")
	}

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, parseHandler, cfg)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func initLogger(cfg *config.Config) {
	appCoreLogger.Init(appCoreLogger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	// Hertz自身的日志也走同一个zerolog实例
	hertzCompatibleLogger := hertzadapter.From(appCoreLogger.Logger)
	glog.SetLogger(hertzCompatibleLogger)
	switch cfg.Logger.Level {
	case "debug":
		glog.SetLevel(glog.LevelDebug)
	case "warn":
		glog.SetLevel(glog.LevelWarn)
	case "error":
		glog.SetLevel(glog.LevelError)
	default:
		glog.SetLevel(glog.LevelInfo)
	}
}
