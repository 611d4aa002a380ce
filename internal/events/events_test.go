package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.SubscribeUserProfileChanged(func(e UserProfileChanged) {
		got = append(got, "first:"+e.After.Name)
	})
	bus.SubscribeUserProfileChanged(func(e UserProfileChanged) {
		got = append(got, "second:"+e.After.Name)
	})

	bus.PublishUserProfileChanged(UserProfileChanged{
		Before: domain.UserSnapshot{ID: "u1", Name: "old"},
		After:  domain.UserSnapshot{ID: "u1", Name: "new"},
	})

	assert.Equal(t, []string{"first:new", "second:new"}, got)
}

func TestBusWithoutSubscribers(t *testing.T) {
	assert.NotPanics(t, func() {
		NewBus().PublishUserProfileChanged(UserProfileChanged{})
	})
}
