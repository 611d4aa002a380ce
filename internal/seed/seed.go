// Package seed 提供首次启动时写入的模拟数据，以及按顺序加载所有 store 的 HydrateAll
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/store"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/utils"
)

type mockUser struct {
	name       string
	role       domain.Role
	department string
	position   string
	skills     []string
}

var mockUsers = []mockUser{
	{"黄飞", domain.RoleAdmin, "", "系统管理员", nil},
	{"王建国", domain.RoleManager, "设施维护", "维修部经理", []string{"项目管理"}},
	{"李明", domain.RoleManager, "电气", "电气部经理", []string{"项目管理", "电路检修"}},
	{"张伟", domain.RoleLeadTechnician, "设施维护", "技术组长", []string{"焊接", "管道疏通"}},
	{"刘洋", domain.RoleLeadTechnician, "电气", "技术组长", []string{"电路检修", "消防设备"}},
	{"陈静", domain.RoleEmployee, "设施维护", "维修技术员", []string{"木工"}},
	{"杨磊", domain.RoleEmployee, "电气", "维修技术员", []string{"网络布线"}},
	{"赵敏", domain.RoleEmployee, "暖通空调", "维修技术员", []string{"空调维护"}},
}

func emailOf(name, emailDomain string) string {
	return utils.EmailLocalPartFromChineseName(name) + "@" + emailDomain
}

// Users 返回覆盖所有角色的固定用户，邮箱由姓名的拼音生成
func Users(password, emailDomain string) []domain.NewUser {
	users := make([]domain.NewUser, 0, len(mockUsers))
	for _, u := range mockUsers {
		users = append(users, domain.NewUser{
			Name:           u.name,
			Email:          emailOf(u.name, emailDomain),
			Password:       password,
			Role:           u.role,
			Skills:         u.skills,
			Department:     u.department,
			Position:       u.position,
			EmploymentType: "full_time",
		})
	}
	return users
}

func Inventory() []domain.NewInventoryItem {
	threshold := func(n int) *int { return &n }
	return []domain.NewInventoryItem{
		{Name: "空调滤网", Category: "暖通空调", Quantity: 24, Unit: "片", Location: "A 仓库 1 号架", Price: 35, RequiredFrom: "暖通空调"},
		{Name: "LED 灯管", Category: "电气", Quantity: 4, Unit: "根", Location: "A 仓库 2 号架", Price: 28, RequiredFrom: "电气"},
		{Name: "PPR 水管接头", Category: "给排水", Quantity: 0, Unit: "个", Location: "B 仓库", Price: 6.5, RequiredFrom: "设施维护"},
		{Name: "断路器", Category: "电气", Quantity: 12, Unit: "个", Location: "A 仓库 2 号架", LowStockThreshold: threshold(10), Price: 89, RequiredFrom: "电气"},
		{Name: "网线", Category: "信息网络", Quantity: 300, Unit: "米", Location: "C 仓库", Price: 2, RequiredFrom: "信息网络"},
	}
}

type UserLookup interface {
	GetUserByEmail(email string) (domain.User, bool)
}

type JobLister interface {
	ListJobs() []domain.Job
}

func idOf(users UserLookup, name, emailDomain string) string {
	u, ok := users.GetUserByEmail(emailOf(name, emailDomain))
	if !ok {
		return ""
	}
	return u.ID
}

func ids(users UserLookup, emailDomain string, names ...string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if id := idOf(users, name, emailDomain); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Jobs 返回引用 Users 中用户的模拟工单，引用不到的用户会让对应工单在写入时被跳过
func Jobs(users UserLookup, emailDomain string, now time.Time) []domain.NewJob {
	day := func(offset int, hour int) *time.Time {
		t := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location()).AddDate(0, 0, offset)
		return &t
	}

	return []domain.NewJob{
		{
			Title:               "教学楼空调滤网更换",
			Description:         "三楼所有教室的空调滤网需要更换",
			Departments:         []string{"暖通空调", "设施维护"},
			CreatorID:           idOf(users, "王建国", emailDomain),
			AssignedEmployeeIDs: ids(users, emailDomain, "赵敏", "陈静"),
			LeadTechnicianID:    idOf(users, "张伟", emailDomain),
			Tasks: []domain.Task{
				{Title: "领取滤网", Order: 0},
				{Title: "拆卸旧滤网", Order: 1},
				{Title: "安装并试运行", Order: 2},
			},
			StartDate: day(1, 9),
			EndDate:   day(1, 17),
			Location:  &domain.GeoLocation{Latitude: 23.0965, Longitude: 113.2985, Address: "教学楼 A 座 3 楼"},
		},
		{
			Title:               "配电房断路器检修",
			Description:         "定期检修，重点检查二号配电柜",
			Departments:         []string{"电气"},
			CreatorID:           idOf(users, "李明", emailDomain),
			AssignedEmployeeIDs: ids(users, emailDomain, "杨磊"),
			LeadTechnicianID:    idOf(users, "刘洋", emailDomain),
			Tasks: []domain.Task{
				{Title: "断电并挂牌", Order: 0},
				{Title: "检查断路器", Order: 1},
			},
			StartDate: day(3, 14),
			EndDate:   day(3, 18),
		},
		{
			Title:               "宿舍卫生间漏水",
			Description:         "5 号楼 302 卫生间地漏反水",
			Departments:         []string{"设施维护"},
			CreatorID:           idOf(users, "张伟", emailDomain),
			AssignedEmployeeIDs: ids(users, emailDomain, "陈静"),
			StartDate:           day(0, 10),
			Customer:            &domain.Customer{Name: "宿舍管理处", Phone: "020-84110000"},
		},
		{
			Title:       "机房网线整理",
			Description: "整理机柜内的网线并更换损坏的跳线",
			Departments: []string{"信息网络"},
			CreatorID:   idOf(users, "黄飞", emailDomain),
			StartDate:   day(7, 9),
		},
	}
}

func Reports(users UserLookup, jobs JobLister, emailDomain string) []domain.NewReport {
	jobID := func(title string) string {
		for _, j := range jobs.ListJobs() {
			if j.Title == title {
				return j.ID
			}
		}
		return ""
	}

	return []domain.NewReport{
		{
			Title:       "滤网库存不足以覆盖全部教室",
			Description: "预计还需要 10 片滤网",
			Type:        domain.ReportTypeRequest,
			Priority:    domain.ReportPriorityHigh,
			JobID:       jobID("教学楼空调滤网更换"),
			ReporterID:  idOf(users, "赵敏", emailDomain),
			AssigneeID:  idOf(users, "王建国", emailDomain),
		},
		{
			Title:       "配电柜门锁损坏",
			Description: "二号配电柜门锁无法上锁",
			Type:        domain.ReportTypeIssue,
			JobID:       jobID("配电房断路器检修"),
			ReporterID:  idOf(users, "杨磊", emailDomain),
		},
		{
			Title:       "建议增加漏水检测传感器",
			Type:        domain.ReportTypeImprovement,
			Priority:    domain.ReportPriorityLow,
			ReporterID:  idOf(users, "陈静", emailDomain),
			Description: "宿舍楼多次出现漏水，建议在重点位置安装传感器",
		},
	}
}

func Notifications(users UserLookup, jobs JobLister, emailDomain string) []domain.Notification {
	notifications := []domain.Notification{
		{
			Type:        domain.NotificationInventoryOut,
			Title:       "PPR 水管接头已缺货",
			Description: "请尽快补充库存",
			TargetRoles: []domain.Role{domain.RoleAdmin, domain.RoleManager},
		},
	}

	for _, j := range jobs.ListJobs() {
		for _, e := range j.AssignedEmployees {
			notifications = append(notifications, domain.Notification{
				Type:        domain.NotificationJobAssigned,
				Title:       "你被分配了新工单",
				Description: j.Title,
				UserID:      e.ID,
				JobID:       j.ID,
			})
		}
	}

	if id := idOf(users, "黄飞", emailDomain); id != "" {
		notifications = append(notifications, domain.Notification{
			Type:        domain.NotificationUserCreated,
			Title:       "模拟数据已初始化",
			Description: fmt.Sprintf("共创建了 %d 个用户", len(mockUsers)),
			UserID:      id,
		})
	}
	return notifications
}

type Options struct {
	SeedOnEmpty bool
	Password    string
	EmailDomain string
	Now         time.Time
}

// HydrateAll 依次加载所有 store，后加载的 store 的模拟数据依赖前面的 store
func HydrateAll(ctx context.Context, s store.Stores, opts Options) error {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	var (
		userSeed         func() []domain.NewUser
		inventorySeed    func() []domain.NewInventoryItem
		jobSeed          func() []domain.NewJob
		reportSeed       func() []domain.NewReport
		notificationSeed func() []domain.Notification
	)
	if opts.SeedOnEmpty {
		userSeed = func() []domain.NewUser { return Users(opts.Password, opts.EmailDomain) }
		inventorySeed = Inventory
		jobSeed = func() []domain.NewJob { return Jobs(s.Users, opts.EmailDomain, opts.Now) }
		reportSeed = func() []domain.NewReport { return Reports(s.Users, s.Jobs, opts.EmailDomain) }
		notificationSeed = func() []domain.Notification { return Notifications(s.Users, s.Jobs, opts.EmailDomain) }
	}

	if err := s.Users.Hydrate(ctx, userSeed); err != nil {
		return fmt.Errorf("无法加载用户数据: %w", err)
	}
	if err := s.Inventory.Hydrate(ctx, inventorySeed); err != nil {
		return fmt.Errorf("无法加载物料数据: %w", err)
	}
	if err := s.Jobs.Hydrate(ctx, jobSeed); err != nil {
		return fmt.Errorf("无法加载工单数据: %w", err)
	}
	if err := s.Reports.Hydrate(ctx, reportSeed); err != nil {
		return fmt.Errorf("无法加载报告数据: %w", err)
	}
	if err := s.Notifications.Hydrate(ctx, notificationSeed); err != nil {
		return fmt.Errorf("无法加载通知数据: %w", err)
	}

	slog.Info("所有数据已加载",
		"users", len(s.Users.ListUsers()),
		"jobs", len(s.Jobs.ListJobs()),
		"inventory", len(s.Inventory.ListItems()),
		"reports", len(s.Reports.ListReports()),
	)
	return nil
}

// EnsureInitialAdmin 确保存在指定邮箱的管理员，已经存在时不做任何修改
func EnsureInitialAdmin(ctx context.Context, users *store.UserStore, name, email, password string) error {
	if _, ok := users.GetUserByEmail(email); ok {
		return nil
	}

	_, err := users.CreateUser(ctx, domain.NewUser{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     domain.RoleAdmin,
		Position: "系统管理员",
	})
	if err != nil && !errors.Is(err, domain.ErrDuplicateEmail) {
		return err
	}
	return nil
}
