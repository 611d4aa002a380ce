package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/policy"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"
)

const notificationStorageVersion = 1

type notificationState struct {
	Notifications []domain.Notification `json:"notifications"`
}

type NotificationStore struct {
	mu            sync.RWMutex
	notifications []domain.Notification
	hydrated      bool
	persisted     *storage.Persisted[notificationState]
	options
}

func NewNotificationStore(backend storage.Backend, opts ...Option) *NotificationStore {
	return &NotificationStore{
		notifications: make([]domain.Notification, 0),
		persisted:     storage.NewPersisted[notificationState](backend, NotificationStorageKey, notificationStorageVersion, nil),
		options:       newOptions(opts),
	}
}

func (s *NotificationStore) Hydrate(ctx context.Context, seed func() []domain.Notification) error {
	state, _, err := s.persisted.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	notifications := state.Notifications
	if notifications == nil {
		notifications = make([]domain.Notification, 0)
	}

	if len(notifications) == 0 && seed != nil {
		for _, n := range seed() {
			notifications = append(notifications, s.build(n))
		}
		if err := s.commit(ctx, notifications); err != nil {
			return err
		}
		s.logger.Info("已写入种子通知", "count", len(notifications))
	} else {
		s.notifications = notifications
	}

	s.hydrated = true
	return nil
}

func (s *NotificationStore) IsHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

func (s *NotificationStore) commit(ctx context.Context, next []domain.Notification) error {
	if err := s.persisted.Save(ctx, notificationState{Notifications: next}); err != nil {
		return fmt.Errorf("无法保存通知数据: %w", err)
	}
	s.notifications = next
	return nil
}

func (s *NotificationStore) build(n domain.Notification) domain.Notification {
	n = n.Clone()
	if n.ID == "" {
		n.ID = s.newID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	return n
}

func (s *NotificationStore) AddNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n = s.build(n)
	n.Read = false

	next := append(slices.Clone(s.notifications), n)
	if err := s.commit(ctx, next); err != nil {
		return domain.Notification{}, err
	}
	return n.Clone(), nil
}

func (s *NotificationStore) MarkAsRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.notifications, func(n domain.Notification) bool { return n.ID == id })
	if i < 0 {
		s.logger.Warn("通知不存在", "id", id)
		return fmt.Errorf("%w: 通知 %s", domain.ErrNotFound, id)
	}
	if s.notifications[i].Read {
		return nil
	}

	next := slices.Clone(s.notifications)
	next[i].Read = true
	return s.commit(ctx, next)
}

// MarkAllAsRead 把发给 user 的所有通知标记为已读，返回被修改的数量
func (s *NotificationStore) MarkAllAsRead(ctx context.Context, userID string, role domain.Role) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := &domain.User{ID: userID, Role: role}
	next := slices.Clone(s.notifications)
	changed := 0
	for i := range next {
		if !next[i].Read && policy.IsNotificationAddressedTo(&next[i], user) {
			next[i].Read = true
			changed++
		}
	}

	if changed == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, next); err != nil {
		return 0, err
	}
	return changed, nil
}

func (s *NotificationStore) DeleteNotification(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.notifications, func(n domain.Notification) bool { return n.ID == id })
	if i < 0 {
		s.logger.Warn("删除通知失败，通知不存在", "id", id)
		return fmt.Errorf("%w: 通知 %s", domain.ErrNotFound, id)
	}

	next := slices.Delete(slices.Clone(s.notifications), i, i+1)
	return s.commit(ctx, next)
}

func (s *NotificationStore) GetNotificationByID(id string) (domain.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := slices.IndexFunc(s.notifications, func(n domain.Notification) bool { return n.ID == id })
	if i < 0 {
		return domain.Notification{}, false
	}
	return s.notifications[i].Clone(), true
}

// GetNotificationsForUser 返回 user 可见的通知，最新的在前
func (s *NotificationStore) GetNotificationsForUser(userID string, role domain.Role) []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user := &domain.User{ID: userID, Role: role}
	result := make([]domain.Notification, 0)
	for i := range s.notifications {
		if policy.CanViewNotification(&s.notifications[i], user) {
			result = append(result, s.notifications[i].Clone())
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// GetUnreadCountForUser 只统计发给 user 的未读通知
func (s *NotificationStore) GetUnreadCountForUser(userID string, role domain.Role) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user := &domain.User{ID: userID, Role: role}
	count := 0
	for i := range s.notifications {
		if !s.notifications[i].Read && policy.IsNotificationAddressedTo(&s.notifications[i], user) {
			count++
		}
	}
	return count
}
