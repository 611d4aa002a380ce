// Package store 包含各类实体的状态容器。每个 store 独占自己的集合，
// 每次修改都会先持久化下一个版本的集合，写入成功后才替换内存中的数据。
package store

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/events"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"
)

const (
	UserStorageKey         = "user-management-storage"
	JobStorageKey          = "job-management-storage"
	InventoryStorageKey    = "inventory-management-storage"
	ReportStorageKey       = "report-management-storage"
	NotificationStorageKey = "notification-storage"
)

type options struct {
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		o.newID = newID
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Stores 汇总所有 store，供 handler 和 seed 使用
type Stores struct {
	Users         *UserStore
	Jobs          *JobStore
	Inventory     *InventoryStore
	Reports       *ReportStore
	Notifications *NotificationStore
}

// New 在同一个后端上创建所有 store，并把工单和报告的快照刷新注册到 bus 上
func New(backend storage.Backend, bus *events.Bus, opts ...Option) Stores {
	users := NewUserStore(backend, bus, opts...)
	s := Stores{
		Users:         users,
		Jobs:          NewJobStore(backend, users, opts...),
		Inventory:     NewInventoryStore(backend, opts...),
		Reports:       NewReportStore(backend, users, opts...),
		Notifications: NewNotificationStore(backend, opts...),
	}
	if bus != nil {
		bus.SubscribeUserProfileChanged(s.Jobs.ApplyUserProfile)
		bus.SubscribeUserProfileChanged(s.Reports.ApplyUserProfile)
	}
	return s
}
