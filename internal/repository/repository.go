package repository

import (
	"database/sql"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/config"
)

// Repository 是基于 PostgreSQL 的持久化后端，每个 store 的状态保存为 store_states 表中的一行
type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}
