package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/events"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testOptions() []Option {
	n := 0
	return []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%03d", n)
		}),
	}
}

func newTestUserStore(t *testing.T, backend storage.Backend, bus *events.Bus) *UserStore {
	t.Helper()
	s := NewUserStore(backend, bus, testOptions()...)
	s.SetHashCost(bcrypt.MinCost)
	require.NoError(t, s.Hydrate(context.Background(), nil))
	return s
}

type seededUsers struct {
	admin, manager, lead, emp1, emp2 domain.User
}

// seedUsers 写入 1 个管理员、1 个 A 部门经理、1 个技术组长和 2 个员工
func seedUsers(t *testing.T, s *UserStore) seededUsers {
	t.Helper()
	ctx := context.Background()
	create := func(name, email string, role domain.Role, dept string) domain.User {
		u, err := s.CreateUser(ctx, domain.NewUser{Name: name, Email: email, Password: "secret", Role: role, Department: dept})
		require.NoError(t, err)
		return u
	}
	return seededUsers{
		admin:   create("管理员", "admin@example.com", domain.RoleAdmin, ""),
		manager: create("王经理", "manager@example.com", domain.RoleManager, "A"),
		lead:    create("李组长", "lead@example.com", domain.RoleLeadTechnician, "A"),
		emp1:    create("张伟", "emp1@example.com", domain.RoleEmployee, "A"),
		emp2:    create("陈静", "emp2@example.com", domain.RoleEmployee, "B"),
	}
}
