package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/events"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type fakePublisher struct {
	messages []domain.MailMessage
}

func (p *fakePublisher) PublishWithContext(_ context.Context, _, _ string, _, _ bool, msg amqp.Publishing) error {
	var m domain.MailMessage
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		return err
	}
	p.messages = append(p.messages, m)
	return nil
}

func (p *fakePublisher) ofType(typ string) []domain.MailMessage {
	out := make([]domain.MailMessage, 0)
	for _, m := range p.messages {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

// fakeRedis 只实现 handler 用到的 Get、Set 和 Del
type fakeRedis struct {
	redis.Cmdable
	data map[string]string
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	n := int64(0)
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type testServer struct {
	h         *Handler
	stores    store.Stores
	publisher *fakePublisher
	redis     *fakeRedis

	admin, manager, lead, emp1, emp2 domain.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1
	cfg.InitialAdmin.Email = "admin@example.com"
	cfg.RabbitMQ.Queue = "email_queue"
	cfg.RabbitMQ.PublishTimeout = 1
	cfg.Redis.OperationExpiration = 1
	cfg.OTP.Expiration = 900
	cfg.NewUser.PasswordLength = 12

	stores := store.New(storage.NewMemory(), events.NewBus(), store.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	stores.Users.SetHashCost(bcrypt.MinCost)
	require.NoError(t, stores.Users.Hydrate(ctx, nil))
	require.NoError(t, stores.Inventory.Hydrate(ctx, nil))
	require.NoError(t, stores.Jobs.Hydrate(ctx, nil))
	require.NoError(t, stores.Reports.Hydrate(ctx, nil))
	require.NoError(t, stores.Notifications.Hydrate(ctx, nil))

	publisher := &fakePublisher{}
	rdb := &fakeRedis{data: map[string]string{}}

	h, err := NewHandler(cfg, stores, publisher, rdb)
	require.NoError(t, err)
	h.RegisterRoutes()

	create := func(name, email string, role domain.Role, dept string) domain.User {
		u, err := stores.Users.CreateUser(ctx, domain.NewUser{Name: name, Email: email, Password: "secret", Role: role, Department: dept})
		require.NoError(t, err)
		return u
	}

	return &testServer{
		h:         h,
		stores:    stores,
		publisher: publisher,
		redis:     rdb,
		admin:     create("管理员", "admin@example.com", domain.RoleAdmin, ""),
		manager:   create("王经理", "manager@example.com", domain.RoleManager, "A"),
		lead:      create("李组长", "lead@example.com", domain.RoleLeadTechnician, "A"),
		emp1:      create("张伟", "emp1@example.com", domain.RoleEmployee, "A"),
		emp2:      create("陈静", "emp2@example.com", domain.RoleEmployee, "B"),
	}
}

type testResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (ts *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (testResponse, *http.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.h.Mux.ServeHTTP(rec, req)

	var resp testResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp, rec.Result()
}

func (ts *testServer) login(t *testing.T, email string) *http.Cookie {
	t.Helper()

	resp, res := ts.do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "secret"})
	require.True(t, resp.Success, resp.Message)
	for _, c := range res.Cookies() {
		if c.Name == tokenCookieName {
			return c
		}
	}
	t.Fatalf("登录后没有返回 cookie")
	return nil
}

func decode[T any](t *testing.T, resp testResponse) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Data, &v))
	return v
}
