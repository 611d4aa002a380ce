package domain

import "errors"

var (
	ErrNotFound            = errors.New("记录不存在")
	ErrDuplicateEmail      = errors.New("邮箱已存在")
	ErrUnresolvedReference = errors.New("引用的记录不存在")
	ErrDeleteCurrentUser   = errors.New("不能删除当前登录的用户")
	ErrIllegalTransition   = errors.New("非法的状态变更")
	ErrInvalidCredentials  = errors.New("邮箱不存在或密码错误")
	ErrInsufficientStock   = errors.New("库存不足")
	ErrInvalidRole         = errors.New("无效的角色")
)
