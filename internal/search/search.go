// Package search 在工单、用户和物料中做简单的子串匹配，工单结果按可见性过滤
package search

import (
	"strings"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/policy"
)

const DefaultLimit = 5

type JobSource interface {
	ListJobs() []domain.Job
}

type UserSource interface {
	ListUsers() []domain.User
}

type InventorySource interface {
	ListItems() []domain.InventoryItem
}

type Results struct {
	Jobs      []domain.Job           `json:"jobs"`
	Users     []domain.User          `json:"users"`
	Inventory []domain.InventoryItem `json:"inventory"`
}

func (r Results) Total() int {
	return len(r.Jobs) + len(r.Users) + len(r.Inventory)
}

type Index struct {
	jobs      JobSource
	users     UserSource
	inventory InventorySource
	limit     int
}

// NewIndex 创建搜索索引，limit 为每组结果的上限，小于等于 0 时使用 DefaultLimit
func NewIndex(jobs JobSource, users UserSource, inventory InventorySource, limit int) *Index {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Index{
		jobs:      jobs,
		users:     users,
		inventory: inventory,
		limit:     limit,
	}
}

func contains(query string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// Search 不区分大小写地匹配工单标题和描述、用户姓名和邮箱、物料名称和分类
func (idx *Index) Search(query string, viewer *domain.User) Results {
	results := Results{
		Jobs:      []domain.Job{},
		Users:     []domain.User{},
		Inventory: []domain.InventoryItem{},
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || viewer == nil {
		return results
	}

	for _, job := range policy.VisibleJobs(idx.jobs.ListJobs(), viewer) {
		if len(results.Jobs) == idx.limit {
			break
		}
		if contains(q, job.Title, job.Description) {
			results.Jobs = append(results.Jobs, job)
		}
	}

	for _, u := range idx.users.ListUsers() {
		if len(results.Users) == idx.limit {
			break
		}
		if contains(q, u.Name, u.Email) {
			results.Users = append(results.Users, u)
		}
	}

	for _, item := range idx.inventory.ListItems() {
		if len(results.Inventory) == idx.limit {
			break
		}
		if contains(q, item.Name, item.Category) {
			results.Inventory = append(results.Inventory, item)
		}
	}

	return results
}
