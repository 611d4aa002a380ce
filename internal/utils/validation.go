package utils

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
)

func ValidateJobSchedule(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return errors.New("工单的结束时间不能早于开始时间")
	}
	return nil
}

func ValidateJobTasks(tasks []domain.Task) error {
	ids := make([]string, 0, len(tasks))
	for i, task := range tasks {
		if strings.TrimSpace(task.Title) == "" {
			return fmt.Errorf("第 %d 个任务的标题不能为空", i+1)
		}
		if task.ID == "" {
			continue
		}
		if slices.Contains(ids, task.ID) {
			return fmt.Errorf("任务 ID %s 重复", task.ID)
		}
		ids = append(ids, task.ID)
	}
	return nil
}

func ValidateGeoLocation(loc *domain.GeoLocation) error {
	if loc == nil {
		return nil
	}
	if loc.Latitude < -90 || loc.Latitude > 90 {
		return fmt.Errorf("纬度 %v 超出范围", loc.Latitude)
	}
	if loc.Longitude < -180 || loc.Longitude > 180 {
		return fmt.Errorf("经度 %v 超出范围", loc.Longitude)
	}
	return nil
}

// ValidateJobDraft 检查新建或修改后的工单中需要跨字段判断的部分
func ValidateJobDraft(start, end *time.Time, tasks []domain.Task, loc *domain.GeoLocation) error {
	if err := ValidateJobSchedule(start, end); err != nil {
		return err
	}
	if err := ValidateJobTasks(tasks); err != nil {
		return err
	}
	return ValidateGeoLocation(loc)
}

// ValidateCalendarRange 检查日历查询的时间范围，最长不超过 366 天
func ValidateCalendarRange(from, to time.Time) error {
	if to.Before(from) {
		return errors.New("结束日期不能早于开始日期")
	}
	if to.Sub(from) > 366*24*time.Hour {
		return errors.New("查询范围不能超过一年")
	}
	return nil
}
