package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/events"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/repository"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/seed"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/store"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 写入模拟数据, 3: 列出已保存的数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 选择持久化后端，内存后端在这里没有意义
	var backend storage.Backend
	var repo *repository.Repository
	switch cfg.Storage.Backend {
	case config.StorageBackendPostgres:
		dbpool, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			logger.Error("无法创建数据库连接池", "error", err)
			return
		}
		defer dbpool.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
		defer cancel()

		// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
		if err := dbpool.PingContext(ctx); err != nil {
			logger.Error("无法连接到数据库", "error", err)
			return
		}

		repo = repository.NewRepository(cfg, dbpool)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Error("无法创建 store_states 表", "error", err)
			return
		}
		backend = repo
	case config.StorageBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		backend = storage.NewRedis(rdb, cfg.Storage.KeyPrefix, time.Duration(cfg.Redis.OperationExpiration)*time.Second)
	default:
		logger.Error("seed 工具只支持 postgres 和 redis 后端")
		return
	}

	stores := store.New(backend, events.NewBus(), store.WithLogger(logger))
	ctx := context.Background()

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
			return
		}
		if err := seed.HydrateAll(ctx, stores, seed.Options{}); err != nil {
			slog.Error("无法加载数据", slog.String("error", err.Error()))
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			user := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if _, err := stores.Users.CreateUser(ctx, user); err != nil {
				slog.Error("无法插入用户", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		slog.Info("插入用户成功", slog.Int("count", cnt))
	case 2:
		// 只有为空的 store 会写入模拟数据
		if err := seed.HydrateAll(ctx, stores, seed.Options{
			SeedOnEmpty: true,
			Password:    cfg.Seed.User.Password,
			EmailDomain: cfg.Email.UserDomain,
		}); err != nil {
			slog.Error("无法写入模拟数据", slog.String("error", err.Error()))
			return
		}
	case 3:
		if repo == nil {
			slog.Error("只有 postgres 后端支持列出已保存的数据")
			return
		}
		keys, err := repo.ListKeys(ctx)
		if err != nil {
			slog.Error("无法列出已保存的数据", slog.String("error", err.Error()))
			return
		}
		for key, updatedAt := range keys {
			slog.Info("已保存的数据", slog.String("key", key), slog.Time("updated_at", updatedAt))
		}
	default:
		slog.Error("指定的操作非法")
	}
}
