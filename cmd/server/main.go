package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"stampy-lens/internal/app/routers"
	"stampy-lens/internal/app/services"
	"stampy-lens/internal/pkg/metrics"
	"stampy-lens/internal/pkg/storage"
	"stampy-lens/pkg/config"
)

const defaultConfigPath = "./config/config.yaml"

func main() {
	configPath := flag.String("c", configPathFromEnv(), "config file path")
	flag.Parse()

	// 1. 加载配置
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	setupLogger(config.GetLogConf())

	// 2. 初始化存储，redis 不可用时选项保存在内存中
	if err := storage.InitRedis(); err != nil {
		log.Warnf("redis 不可用，使用内存存储: %v", err)
	}
	defer storage.CloseRedis()

	// 3. 初始化服务与路由
	metrics.Init()
	services.Init()
	if config.GetRunMode() != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routers.SetUp()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.GetServerConf().Port),
		Handler: router,
	}
	go func() {
		log.Infof("stampy-lens 启动，监听 %s，分析服务 %s", srv.Addr, config.GetStampyConf().ApiEndpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("启动服务失败: %v", err)
		}
	}()

	// 等待中断信号优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("服务强制关闭: %v", err)
	}
}

func configPathFromEnv() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return defaultConfigPath
}

func setupLogger(conf config.Log) {
	level, err := log.ParseLevel(conf.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if conf.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
