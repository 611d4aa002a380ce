package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/utils"
)

type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// setSessionCookie 为 user 签发 JWT 并通过 http-only 的 cookie 返回给客户端
func (h *Handler) setSessionCookie(w http.ResponseWriter, user *domain.User) error {
	now := time.Now()
	expiration := now.Add(time.Duration(h.config.JWT.Expiration) * time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   user.ID,
		},
	})
	ss, err := token.SignedString([]byte(h.config.JWT.Secret))
	if err != nil {
		return err
	}

	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    ss,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)
	return nil
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:    tokenCookieName,
		Value:   "",
		Expires: time.Now().Add(-time.Hour),
		Path:    "/",
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.stores.Users.Login(req.Email, req.Password)
	if err != nil {
		// 登录失败时同时清除旧的会话
		clearSessionCookie(w)
		h.storeError(w, r, err)
		return
	}
	if !user.IsActive {
		clearSessionCookie(w)
		h.errorResponse(w, r, "账号已停用")
		return
	}

	if err := h.setSessionCookie(w, &user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "登录成功", user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	h.successResponse(w, r, "登出成功", nil)
}

func resetPasswordOTPKey(userID string) string {
	return fmt.Sprintf("otp_%s_reset_password", userID)
}

func (h *Handler) RequireResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, ok := h.stores.Users.GetUserByEmail(req.Email)
	if !ok {
		// 这里虽然已经知道了用户不存在，但是为了安全起见，还是告诉客户端邮件已发送，以防止接口被滥用
		h.successResponse(w, r, "重置密码所需验证码已通过邮件发送", nil)
		return
	}

	// 生成 OTP 并将 OTP 存到 redis
	otp := utils.GenerateRandomOTP()

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	if err := h.redisClient.Set(ctx, resetPasswordOTPKey(user.ID), otp, time.Duration(h.config.OTP.Expiration)*time.Second).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.publishMail(domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   user.Email,
		Data: domain.ResetPasswordMailData{
			Name:       user.Name,
			OTP:        otp,
			Expiration: h.config.OTP.Expiration / 60, // 邮件中显示的过期时间以分钟为单位，而配置中以秒为单位
		},
	}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "重置密码所需验证码已通过邮件发送", nil)
}

func (h *Handler) ConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		OTP      string `json:"otp" validate:"required,len=6,numeric"`
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

	user, ok := h.stores.Users.GetUserByEmail(req.Email)
	if !ok {
		h.errorResponse(w, r, "验证码错误")
		return
	}

	// 检验 OTP
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	otp, err := h.redisClient.Get(ctx, resetPasswordOTPKey(user.ID)).Result()
	if err != nil || otp != req.OTP {
		h.errorResponse(w, r, "验证码错误")
		return
	}

	if _, err := h.stores.Users.UpdateUser(r.Context(), user.ID, domain.UserPatch{Password: &req.Password}); err != nil {
		h.storeError(w, r, err)
		return
	}

	// 删除 OTP
	if err := h.redisClient.Del(ctx, resetPasswordOTPKey(user.ID)).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "重置密码成功", nil)
}
