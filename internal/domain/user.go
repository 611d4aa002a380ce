package domain

import (
	"slices"
	"time"
)

type Role string

const (
	RoleAdmin          Role = "admin"
	RoleManager        Role = "manager"
	RoleLeadTechnician Role = "lead_technician"
	RoleEmployee       Role = "employee"
)

var Roles = []Role{RoleAdmin, RoleManager, RoleLeadTechnician, RoleEmployee}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleLeadTechnician, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	Role           Role       `json:"role"`
	Phone          string     `json:"phone"`
	Bio            string     `json:"bio"`
	Skills         []string   `json:"skills"`
	Department     string     `json:"department"`
	Position       string     `json:"position"`
	EmploymentType string     `json:"employmentType"`
	HireDate       *time.Time `json:"hireDate,omitempty"`
	AvatarURL      string     `json:"avatarUrl,omitempty"`
	IsActive       bool       `json:"isActive"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// UserSnapshot 是嵌入到工单、报告中的用户展示信息副本，不会自动跟随用户资料变化
type UserSnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:        u.ID,
		Name:      u.Name,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
	}
}

func (u *User) Clone() User {
	c := *u
	if u.Skills != nil {
		c.Skills = slices.Clone(u.Skills)
	}
	if u.HireDate != nil {
		t := *u.HireDate
		c.HireDate = &t
	}
	return c
}

type NewUser struct {
	Name           string
	Email          string
	Password       string
	Role           Role
	Phone          string
	Bio            string
	Skills         []string
	Department     string
	Position       string
	EmploymentType string
	HireDate       *time.Time
	AvatarURL      string
}

// UserPatch 中为 nil 的字段表示不修改
type UserPatch struct {
	Name           *string
	Email          *string
	Password       *string
	Role           *Role
	Phone          *string
	Bio            *string
	Skills         *[]string
	Department     *string
	Position       *string
	EmploymentType *string
	HireDate       *time.Time
	AvatarURL      *string
	IsActive       *bool
}
