package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/search"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/store"
)

const tokenCookieName = "__ecnc_maintenance_manager_token"

// MailPublisher 由 *amqp.Channel 实现
type MailPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	stores      store.Stores
	search      *search.Index
	translator  ut.Translator
	mailChannel MailPublisher
	redisClient redis.Cmdable

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, stores store.Stores, mailCh MailPublisher, rdb redis.Cmdable) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		stores:      stores,
		search:      search.NewIndex(stores.Jobs, stores.Users, stores.Inventory, cfg.Search.Limit),
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

var (
	approvers       = []domain.Role{domain.RoleAdmin, domain.RoleManager}
	jobCreators     = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleLeadTechnician}
	onlyAdmin       = []domain.Role{domain.RoleAdmin}
	inventoryAdmins = []domain.Role{domain.RoleAdmin, domain.RoleManager}
)

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)
		r.Use(h.preventInactiveUser)

		r.Route("/my-info", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Patch("/", h.UpdateMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Route("/update-email", func(r chi.Router) {
				r.Post("/require", h.RequireUpdateEmail)
				r.Post("/confirm", h.ConfirmUpdateEmail)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole(onlyAdmin)).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole(onlyAdmin)).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole(onlyAdmin)).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole(onlyAdmin)).Patch("/password", h.UpdateUserPassword)
				r.With(h.RequiredRole(onlyAdmin)).Post("/impersonate", h.ImpersonateUser)
			})
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.GetAllJobs)
			r.Get("/calendar", h.GetJobCalendar)
			r.With(h.RequiredRole(jobCreators)).Post("/", h.CreateJob)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.job)
				r.Get("/", h.GetJob)
				r.With(h.RequiredRole(jobCreators)).Patch("/", h.UpdateJob)
				r.With(h.RequiredRole(approvers)).Delete("/", h.DeleteJob)
				r.Patch("/status", h.UpdateJobStatus)
				r.Patch("/tasks/{taskID}", h.UpdateJobTask)
				r.Post("/work-logs", h.AddJobWorkLog)
				r.Post("/inventory-usage", h.RecordJobInventoryUsage)
				r.Get("/reports", h.GetJobReports)
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.GetAllInventoryItems)
			r.Get("/low-stock", h.GetLowStockItems)
			r.With(h.RequiredRole(inventoryAdmins)).Post("/", h.CreateInventoryItem)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.inventoryItem)
				r.Get("/", h.GetInventoryItem)
				r.With(h.RequiredRole(inventoryAdmins)).Patch("/", h.UpdateInventoryItem)
				r.With(h.RequiredRole(inventoryAdmins)).Delete("/", h.DeleteInventoryItem)
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.GetAllReports)
			r.Post("/", h.CreateReport)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.report)
				r.Get("/", h.GetReport)
				r.Patch("/", h.UpdateReport)
				r.Delete("/", h.DeleteReport)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.GetMyNotifications)
			r.Get("/unread-count", h.GetUnreadNotificationCount)
			r.Post("/read-all", h.MarkAllNotificationsAsRead)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.notification)
				r.Patch("/read", h.MarkNotificationAsRead)
				r.Delete("/", h.DeleteNotification)
			})
		})

		r.Get("/search", h.Search)
		r.Get("/dashboard", h.GetDashboard)
	})
}
