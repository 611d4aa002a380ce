package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/events"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/handler"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/repository"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/seed"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/store"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Redis.ConnectTimeout)*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("无法连接到 redis", "error", err)
		return
	}

	/**********************************************
	 * 选择持久化后端
	 **********************************************/
	var backend storage.Backend
	switch cfg.Storage.Backend {
	case config.StorageBackendPostgres:
		dbpool, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			logger.Error("无法创建数据库连接池", "error", err)
			return
		}
		defer dbpool.Close()

		dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
		defer cancel()

		// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
		if err := dbpool.PingContext(ctx); err != nil {
			logger.Error("无法连接到数据库", "error", err)
			return
		}

		repo := repository.NewRepository(cfg, dbpool)
		if err := repo.EnsureSchema(ctx); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				logger.Error("无法创建 store_states 表", "code", pgErr.Code, "error", pgErr.Message)
			} else {
				logger.Error("无法创建 store_states 表", "error", err)
			}
			return
		}
		backend = repo
	case config.StorageBackendRedis:
		backend = storage.NewRedis(rdb, cfg.Storage.KeyPrefix, time.Duration(cfg.Redis.OperationExpiration)*time.Second)
	default:
		logger.Warn("使用内存存储，重启后数据会丢失")
		backend = storage.NewMemory()
	}
	logger.Info("已选择持久化后端", "backend", cfg.Storage.Backend)

	/**********************************************
	 * 创建并加载 store
	 **********************************************/
	stores := store.New(backend, events.NewBus(), store.WithLogger(logger))

	if err := seed.HydrateAll(context.Background(), stores, seed.Options{
		SeedOnEmpty: cfg.Storage.SeedOnEmpty,
		Password:    cfg.Seed.User.Password,
		EmailDomain: cfg.Email.UserDomain,
	}); err != nil {
		logger.Error("无法加载数据", "error", err)
		return
	}

	/**********************************************
	 * 确保存在初始管理员
	 **********************************************/
	if err := seed.EnsureInitialAdmin(context.Background(), stores.Users, cfg.InitialAdmin.Name, cfg.InitialAdmin.Email, cfg.InitialAdmin.Password); err != nil {
		logger.Error("无法创建初始管理员", "error", err)
		return
	}

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	// 建立通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法建立通道", "error", err)
		return
	}
	defer ch.Close()

	// 声明队列
	_, err = ch.QueueDeclare(
		cfg.RabbitMQ.Queue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}

	/**********************************************
	 * 创建 handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, stores, ch, rdb)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
	}
	logger.Info("服务器已成功关闭")
}
