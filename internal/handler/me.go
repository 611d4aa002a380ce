package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/utils"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.successResponse(w, r, "获取个人信息成功", myInfo)
}

// UpdateMyInfo 修改个人资料，姓名或头像变化后工单和报告中的快照会随之刷新
func (h *Handler) UpdateMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		Name      *string   `json:"name" validate:"omitempty,min=1,max=50"`
		Phone     *string   `json:"phone" validate:"omitempty,max=20"`
		Bio       *string   `json:"bio" validate:"omitempty,max=500"`
		Skills    *[]string `json:"skills" validate:"omitempty,dive,min=1"`
		AvatarURL *string   `json:"avatarUrl" validate:"omitempty,url"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.stores.Users.UpdateUser(r.Context(), myInfo.ID, domain.UserPatch{
		Name:      req.Name,
		Phone:     req.Phone,
		Bio:       req.Bio,
		Skills:    req.Skills,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新个人信息成功", user)
}

func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=6"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if !h.stores.Users.VerifyPassword(myInfo.ID, req.OldPassword) {
		h.errorResponse(w, r, "旧密码错误")
		return
	}

	if _, err := h.stores.Users.UpdateUser(r.Context(), myInfo.ID, domain.UserPatch{Password: &req.NewPassword}); err != nil {
		h.storeError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新密码成功", nil)
}

func changeEmailOTPKey(userID, newEmail string) string {
	return fmt.Sprintf("otp_%s_change_email_to_%s", userID, newEmail)
}

func (h *Handler) RequireUpdateEmail(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		NewEmail string `json:"newEmail" validate:"required,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 检测新邮箱是否已被占用
	if _, exists := h.stores.Users.GetUserByEmail(req.NewEmail); exists {
		h.errorResponse(w, r, "邮箱已被占用")
		return
	}

	// 生成 OTP 并将 OTP 存到 redis
	otp := utils.GenerateRandomOTP()

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	if err := h.redisClient.Set(ctx, changeEmailOTPKey(myInfo.ID, req.NewEmail), otp, time.Duration(h.config.OTP.Expiration)*time.Second).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.publishMail(domain.MailMessage{
		Type: domain.MailTypeChangeEmail,
		To:   req.NewEmail,
		Data: domain.ChangeEmailMailData{
			Name:       myInfo.Name,
			OTP:        otp,
			Expiration: h.config.OTP.Expiration / 60,
		},
	}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "更改邮箱所需验证码已通过邮件发送", nil)
}

func (h *Handler) ConfirmUpdateEmail(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		OTP      string `json:"otp" validate:"required"`
		NewEmail string `json:"newEmail" validate:"required,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 检验 OTP
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	otp, err := h.redisClient.Get(ctx, changeEmailOTPKey(myInfo.ID, req.NewEmail)).Result()
	if err != nil || otp != req.OTP {
		h.errorResponse(w, r, "验证码错误")
		return
	}

	user, err := h.stores.Users.UpdateUser(r.Context(), myInfo.ID, domain.UserPatch{Email: &req.NewEmail})
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	if err := h.redisClient.Del(ctx, changeEmailOTPKey(myInfo.ID, req.NewEmail)).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "更改邮箱成功", user)
}
