// Package events 是进程内的同步事件总线，用于在用户资料变化后刷新其他 store 中的快照
package events

import (
	"sync"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
)

type UserProfileChanged struct {
	Before domain.UserSnapshot
	After  domain.UserSnapshot
}

type UserProfileHandler func(UserProfileChanged)

type Bus struct {
	mu       sync.RWMutex
	handlers []UserProfileHandler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) SubscribeUserProfileChanged(h UserProfileHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// PublishUserProfileChanged 按订阅顺序同步调用所有 handler
func (b *Bus) PublishUserProfileChanged(e UserProfileChanged) {
	b.mu.RLock()
	handlers := append([]UserProfileHandler(nil), b.handlers...)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
