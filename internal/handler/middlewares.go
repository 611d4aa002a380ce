package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/policy"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("已处理请求", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 从 cookie 中获取 token
		cookie, err := r.Cookie(tokenCookieName)
		if err != nil {
			switch {
			case errors.Is(err, http.ErrNoCookie):
				h.errorResponse(w, r, "用户未登录")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		// 验证 token
		claims := &AuthClaims{}
		_, err = jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(h.config.JWT.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			h.errorResponse(w, r, "无效的令牌")
			return
		}

		// 将 claims 中的 role 和 sub 附在 context 中
		ctx := r.Context()
		ctx = context.WithValue(ctx, RoleCtxKey, claims.Role)
		ctx = context.WithValue(ctx, SubCtxKey, claims.Subject)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) myInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub := r.Context().Value(SubCtxKey).(string)

		myInfo, ok := h.stores.Users.GetUserByID(sub)
		if !ok {
			h.errorResponse(w, r, "个人信息不存在")
			return
		}

		ctx := context.WithValue(r.Context(), MyInfoCtx, &myInfo)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) preventInactiveUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
		if !myInfo.IsActive {
			h.errorResponse(w, r, "账号已停用")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequiredRole 以 store 中的最新角色为准，而不是令牌中的角色
func (h *Handler) RequiredRole(roles []domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
			if !slices.Contains(roles, myInfo.Role) {
				h.errorResponse(w, r, "权限不足")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) userInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := h.stores.Users.GetUserByID(chi.URLParam(r, "id"))
		if !ok {
			h.errorResponse(w, r, "用户不存在")
			return
		}

		ctx := context.WithValue(r.Context(), UserInfoCtx, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) preventOperateInitialAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(UserInfoCtx).(*domain.User)
		if strings.EqualFold(user.Email, h.config.InitialAdmin.Email) {
			h.errorResponse(w, r, "禁止操作初始管理员")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// job 加载工单，看不到的工单按不存在处理
func (h *Handler) job(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

		job, ok := h.stores.Jobs.GetJobByID(chi.URLParam(r, "id"))
		if !ok || !policy.CanViewJob(&job, myInfo) {
			h.errorResponse(w, r, "工单不存在")
			return
		}

		ctx := context.WithValue(r.Context(), JobCtx, &job)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) inventoryItem(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		item, ok := h.stores.Inventory.GetItemByID(chi.URLParam(r, "id"))
		if !ok {
			h.errorResponse(w, r, "物料不存在")
			return
		}

		ctx := context.WithValue(r.Context(), InventoryItemCtx, &item)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) report(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

		report, ok := h.stores.Reports.GetReportByID(chi.URLParam(r, "id"))
		if !ok || !policy.CanViewReport(&report, myInfo, h.stores.Jobs) {
			h.errorResponse(w, r, "报告不存在")
			return
		}

		ctx := context.WithValue(r.Context(), ReportCtx, &report)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) notification(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

		n, ok := h.stores.Notifications.GetNotificationByID(chi.URLParam(r, "id"))
		if !ok || !policy.CanViewNotification(&n, myInfo) {
			h.errorResponse(w, r, "通知不存在")
			return
		}

		ctx := context.WithValue(r.Context(), NotificationCtx, &n)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
