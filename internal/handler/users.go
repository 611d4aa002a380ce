package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/utils"
)

func (h *Handler) GetAllUserInfo(w http.ResponseWriter, r *http.Request) {
	role := domain.Role(r.URL.Query().Get("role"))
	if role != "" {
		if !role.Valid() {
			h.errorResponse(w, r, "无效的角色")
			return
		}
		h.successResponse(w, r, "获取用户列表成功", h.stores.Users.UsersByRole(role))
		return
	}

	h.successResponse(w, r, "获取用户列表成功", h.stores.Users.ListUsers())
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string     `json:"name" validate:"required,max=50"`
		Email          string     `json:"email" validate:"required,email"`
		Role           string     `json:"role" validate:"required,oneof=admin manager lead_technician employee"`
		Phone          string     `json:"phone" validate:"omitempty,max=20"`
		Skills         []string   `json:"skills" validate:"omitempty,dive,min=1"`
		Department     string     `json:"department"`
		Position       string     `json:"position"`
		EmploymentType string     `json:"employmentType" validate:"omitempty,oneof=full_time part_time contractor"`
		HireDate       *time.Time `json:"hireDate"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 生成随机密码，通过邮件告知用户
	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)

	user, err := h.stores.Users.CreateUser(r.Context(), domain.NewUser{
		Name:           req.Name,
		Email:          req.Email,
		Password:       password,
		Role:           domain.Role(req.Role),
		Phone:          req.Phone,
		Skills:         req.Skills,
		Department:     req.Department,
		Position:       req.Position,
		EmploymentType: req.EmploymentType,
		HireDate:       req.HireDate,
	})
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	if err := h.publishMail(domain.MailMessage{
		Type: domain.MailTypeCreateUser,
		To:   user.Email,
		Data: domain.CreateUserMailData{
			Name:     user.Name,
			Email:    user.Email,
			Password: password,
		},
	}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.notify(r.Context(), domain.Notification{
		Type:        domain.NotificationUserCreated,
		Title:       "新用户加入",
		Description: user.Name,
		TargetRoles: []domain.Role{domain.RoleAdmin},
	})

	h.successResponse(w, r, "用户创建成功", user)
}

func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取用户信息成功", user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           *string    `json:"name" validate:"omitempty,min=1,max=50"`
		Email          *string    `json:"email" validate:"omitempty,email"`
		Role           *string    `json:"role" validate:"omitempty,oneof=admin manager lead_technician employee"`
		Phone          *string    `json:"phone" validate:"omitempty,max=20"`
		Bio            *string    `json:"bio" validate:"omitempty,max=500"`
		Skills         *[]string  `json:"skills" validate:"omitempty,dive,min=1"`
		Department     *string    `json:"department"`
		Position       *string    `json:"position"`
		EmploymentType *string    `json:"employmentType" validate:"omitempty,oneof=full_time part_time contractor"`
		HireDate       *time.Time `json:"hireDate"`
		AvatarURL      *string    `json:"avatarUrl" validate:"omitempty,url"`
		IsActive       *bool      `json:"isActive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user := r.Context().Value(UserInfoCtx).(*domain.User)

	patch := domain.UserPatch{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Bio:            req.Bio,
		Skills:         req.Skills,
		Department:     req.Department,
		Position:       req.Position,
		EmploymentType: req.EmploymentType,
		HireDate:       req.HireDate,
		AvatarURL:      req.AvatarURL,
		IsActive:       req.IsActive,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}

	updated, err := h.stores.Users.UpdateUser(r.Context(), user.ID, patch)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新用户信息成功", updated)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	if err := h.stores.Users.DeleteUser(r.Context(), myInfo.ID, user.ID); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除用户成功", nil)
}

func (h *Handler) UpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(UserInfoCtx).(*domain.User)

	var req struct {
		Password string `json:"password" validate:"required,min=6"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if _, err := h.stores.Users.UpdateUser(r.Context(), user.ID, domain.UserPatch{Password: &req.Password}); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, "修改密码成功", nil)
}

// ImpersonateUser 让管理员以目标用户的身份登录，用于排查权限问题
func (h *Handler) ImpersonateUser(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	target := r.Context().Value(UserInfoCtx).(*domain.User)

	user, err := h.stores.Users.SwitchUserByID(target.ID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	if err := h.setSessionCookie(w, &user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	slog.Info("管理员切换了登录身份", "admin", myInfo.ID, "target", user.ID)
	h.successResponse(w, r, "切换用户成功", user)
}
