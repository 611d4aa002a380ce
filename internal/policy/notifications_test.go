package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
)

func TestCanViewNotification(t *testing.T) {
	admin, manager, _, emp1, emp2 := testUsers()

	direct := domain.Notification{ID: "n1", UserID: emp1.ID}
	managers := domain.Notification{ID: "n2", TargetRoles: []domain.Role{domain.RoleManager}}
	broadcast := domain.Notification{ID: "n3"}

	assert.True(t, CanViewNotification(&direct, emp1))
	assert.False(t, CanViewNotification(&direct, emp2))
	assert.True(t, CanViewNotification(&direct, admin))

	assert.True(t, CanViewNotification(&managers, manager))
	assert.False(t, CanViewNotification(&managers, emp1))
	assert.True(t, CanViewNotification(&managers, admin))

	assert.True(t, CanViewNotification(&broadcast, emp2))
	assert.False(t, CanViewNotification(&broadcast, nil))
}

func TestIsNotificationAddressedTo(t *testing.T) {
	admin, manager, _, emp1, emp2 := testUsers()

	direct := domain.Notification{ID: "n1", UserID: emp1.ID}
	managers := domain.Notification{ID: "n2", TargetRoles: []domain.Role{domain.RoleManager}}
	broadcast := domain.Notification{ID: "n3"}

	assert.True(t, IsNotificationAddressedTo(&direct, emp1))
	assert.False(t, IsNotificationAddressedTo(&direct, emp2))
	assert.False(t, IsNotificationAddressedTo(&direct, admin))

	assert.True(t, IsNotificationAddressedTo(&managers, manager))
	assert.False(t, IsNotificationAddressedTo(&managers, admin))

	assert.True(t, IsNotificationAddressedTo(&broadcast, admin))
	assert.False(t, IsNotificationAddressedTo(&broadcast, nil))
}
