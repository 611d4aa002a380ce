package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/events"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const userStorageVersion = 1

// 持久化时需要保留密码哈希，而 domain.User 在 JSON 中会忽略它
type userRecord struct {
	domain.User
	Password string `json:"passwordHash"`
}

type userState struct {
	Users []userRecord `json:"users"`
}

type UserStore struct {
	mu        sync.RWMutex
	users     []domain.User
	hydrated  bool
	persisted *storage.Persisted[userState]
	bus       *events.Bus
	hashCost  int
	options
}

func NewUserStore(backend storage.Backend, bus *events.Bus, opts ...Option) *UserStore {
	return &UserStore{
		users:     make([]domain.User, 0),
		persisted: storage.NewPersisted[userState](backend, UserStorageKey, userStorageVersion, nil),
		bus:       bus,
		hashCost:  bcrypt.DefaultCost,
		options:   newOptions(opts),
	}
}

// SetHashCost 修改 bcrypt 的 cost，测试中用 bcrypt.MinCost 加速
func (s *UserStore) SetHashCost(cost int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashCost = cost
}

// Hydrate 从后端加载用户，如果为空并且提供了 seed 则写入 seed 中的用户
func (s *UserStore) Hydrate(ctx context.Context, seed func() []domain.NewUser) error {
	state, _, err := s.persisted.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]domain.User, 0, len(state.Users))
	for _, rec := range state.Users {
		u := rec.User
		u.PasswordHash = rec.Password
		users = append(users, u)
	}

	if len(users) == 0 && seed != nil {
		for _, data := range seed() {
			u, err := s.buildUser(users, data)
			if err != nil {
				s.logger.Warn("跳过无效的种子用户", "email", data.Email, "error", err)
				continue
			}
			users = append(users, u)
		}
		if err := s.commit(ctx, users); err != nil {
			return err
		}
		s.logger.Info("已写入种子用户", "count", len(users))
	} else {
		s.users = users
	}

	s.hydrated = true
	return nil
}

func (s *UserStore) IsHydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

func (s *UserStore) commit(ctx context.Context, next []domain.User) error {
	state := userState{Users: make([]userRecord, 0, len(next))}
	for _, u := range next {
		state.Users = append(state.Users, userRecord{User: u, Password: u.PasswordHash})
	}
	if err := s.persisted.Save(ctx, state); err != nil {
		return fmt.Errorf("无法保存用户数据: %w", err)
	}
	s.users = next
	return nil
}

func (s *UserStore) indexByID(id string) int {
	return slices.IndexFunc(s.users, func(u domain.User) bool { return u.ID == id })
}

func emailTaken(users []domain.User, email, exceptID string) bool {
	for _, u := range users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *UserStore) buildUser(existing []domain.User, data domain.NewUser) (domain.User, error) {
	email := strings.TrimSpace(data.Email)
	if emailTaken(existing, email, "") {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, email)
	}

	role := data.Role
	if role == "" {
		role = domain.RoleEmployee
	}
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("%w: %s", domain.ErrInvalidRole, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), s.hashCost)
	if err != nil {
		return domain.User{}, err
	}

	now := s.now()
	u := domain.User{
		ID:             s.newID(),
		Name:           data.Name,
		Email:          email,
		PasswordHash:   string(hash),
		Role:           role,
		Phone:          data.Phone,
		Bio:            data.Bio,
		Skills:         slices.Clone(data.Skills),
		Department:     data.Department,
		Position:       data.Position,
		EmploymentType: data.EmploymentType,
		HireDate:       data.HireDate,
		AvatarURL:      data.AvatarURL,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if u.Skills == nil {
		u.Skills = []string{}
	}
	return u, nil
}

// Login 按邮箱查找用户并校验密码
func (s *UserStore) Login(email, password string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if !strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return u.Clone(), nil
	}

	return domain.User{}, domain.ErrInvalidCredentials
}

// SwitchUserByID 不校验密码直接返回指定用户，仅供管理员模拟登录使用
func (s *UserStore) SwitchUserByID(id string) (domain.User, error) {
	u, ok := s.GetUserByID(id)
	if !ok {
		s.logger.Warn("切换用户失败，用户不存在", "id", id)
		return domain.User{}, fmt.Errorf("%w: 用户 %s", domain.ErrNotFound, id)
	}
	return u, nil
}

func (s *UserStore) VerifyPassword(id, password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexByID(id)
	if i < 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.users[i].PasswordHash), []byte(password)) == nil
}

func (s *UserStore) CreateUser(ctx context.Context, data domain.NewUser) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.buildUser(s.users, data)
	if err != nil {
		s.logger.Error("创建用户失败", "email", data.Email, "error", err)
		return domain.User{}, err
	}

	next := append(slices.Clone(s.users), u)
	if err := s.commit(ctx, next); err != nil {
		return domain.User{}, err
	}

	return u.Clone(), nil
}

func (s *UserStore) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (domain.User, error) {
	before, after, err := s.updateUser(ctx, id, patch)
	if err != nil {
		return domain.User{}, err
	}

	// 展示信息变化时通知其他 store 刷新快照，必须在释放锁之后发布
	if s.bus != nil && before.Snapshot() != after.Snapshot() {
		s.bus.PublishUserProfileChanged(events.UserProfileChanged{
			Before: before.Snapshot(),
			After:  after.Snapshot(),
		})
	}

	return after, nil
}

func (s *UserStore) updateUser(ctx context.Context, id string, patch domain.UserPatch) (domain.User, domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexByID(id)
	if i < 0 {
		s.logger.Warn("更新用户失败，用户不存在", "id", id)
		return domain.User{}, domain.User{}, fmt.Errorf("%w: 用户 %s", domain.ErrNotFound, id)
	}

	before := s.users[i].Clone()
	u := s.users[i].Clone()

	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if emailTaken(s.users, email, id) {
			s.logger.Error("更新用户失败，邮箱已被占用", "id", id, "email", email)
			return domain.User{}, domain.User{}, fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, email)
		}
		u.Email = email
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return domain.User{}, domain.User{}, fmt.Errorf("%w: %s", domain.ErrInvalidRole, *patch.Role)
		}
		u.Role = *patch.Role
	}
	// 空字符串表示不修改密码
	if patch.Password != nil && *patch.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), s.hashCost)
		if err != nil {
			return domain.User{}, domain.User{}, err
		}
		u.PasswordHash = string(hash)
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
	if patch.Skills != nil {
		u.Skills = slices.Clone(*patch.Skills)
	}
	if patch.Department != nil {
		u.Department = *patch.Department
	}
	if patch.Position != nil {
		u.Position = *patch.Position
	}
	if patch.EmploymentType != nil {
		u.EmploymentType = *patch.EmploymentType
	}
	if patch.HireDate != nil {
		t := *patch.HireDate
		u.HireDate = &t
	}
	if patch.AvatarURL != nil {
		u.AvatarURL = *patch.AvatarURL
	}
	if patch.IsActive != nil {
		u.IsActive = *patch.IsActive
	}
	u.UpdatedAt = s.now()

	next := slices.Clone(s.users)
	next[i] = u
	if err := s.commit(ctx, next); err != nil {
		return domain.User{}, domain.User{}, err
	}

	return before, u.Clone(), nil
}

// DeleteUser 删除用户，不允许删除当前会话中的用户
func (s *UserStore) DeleteUser(ctx context.Context, currentUserID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == currentUserID {
		s.logger.Warn("不能删除当前登录的用户", "id", id)
		return domain.ErrDeleteCurrentUser
	}

	i := s.indexByID(id)
	if i < 0 {
		s.logger.Warn("删除用户失败，用户不存在", "id", id)
		return fmt.Errorf("%w: 用户 %s", domain.ErrNotFound, id)
	}

	next := slices.Delete(slices.Clone(s.users), i, i+1)
	return s.commit(ctx, next)
}

func (s *UserStore) GetUserByID(id string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexByID(id)
	if i < 0 {
		return domain.User{}, false
	}
	return s.users[i].Clone(), true
}

func (s *UserStore) GetUserByEmail(email string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			return u.Clone(), true
		}
	}
	return domain.User{}, false
}

func (s *UserStore) ListUsers() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u.Clone())
	}
	return users
}

func (s *UserStore) UsersByRole(role domain.Role) []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0)
	for _, u := range s.users {
		if u.Role == role {
			users = append(users, u.Clone())
		}
	}
	return users
}
