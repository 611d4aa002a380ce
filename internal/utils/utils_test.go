package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
)

func TestEmailLocalPartFromChineseName(t *testing.T) {
	assert.Equal(t, "zhangwei", EmailLocalPartFromChineseName("张伟"))
	assert.Equal(t, "wangfang", EmailLocalPartFromChineseName("王芳"))
}

func TestGenerateRandomUser(t *testing.T) {
	for i := 0; i < 20; i++ {
		u := GenerateRandomUser("secret", "example.com")
		assert.True(t, u.Role.Valid())
		assert.True(t, strings.HasSuffix(u.Email, "@example.com"))
		assert.Equal(t, "secret", u.Password)
		assert.Contains(t, Departments, u.Department)
		assert.NotEmpty(t, u.Skills)
		assert.Len(t, u.Phone, 11)
	}
}

func TestGenerateRandomOTPAndPassword(t *testing.T) {
	assert.Len(t, GenerateRandomOTP(), 6)
	assert.Len(t, GenerateRandomPassword(12), 12)
}

func TestValidateJobDraft(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)

	assert.NoError(t, ValidateJobDraft(&now, &later, nil, nil))
	assert.NoError(t, ValidateJobDraft(nil, &later, nil, nil))
	assert.Error(t, ValidateJobDraft(&later, &now, nil, nil))

	assert.Error(t, ValidateJobDraft(nil, nil, []domain.Task{{Title: " "}}, nil))
	assert.Error(t, ValidateJobDraft(nil, nil, []domain.Task{{ID: "a", Title: "x"}, {ID: "a", Title: "y"}}, nil))
	assert.NoError(t, ValidateJobDraft(nil, nil, []domain.Task{{Title: "x"}, {Title: "y"}}, nil))

	assert.Error(t, ValidateJobDraft(nil, nil, nil, &domain.GeoLocation{Latitude: 91}))
	assert.Error(t, ValidateJobDraft(nil, nil, nil, &domain.GeoLocation{Longitude: -181}))
	assert.NoError(t, ValidateJobDraft(nil, nil, nil, &domain.GeoLocation{Latitude: 23.1, Longitude: 113.3}))
}

func TestValidateCalendarRange(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateCalendarRange(from, from.AddDate(0, 1, 0)))
	assert.Error(t, ValidateCalendarRange(from, from.AddDate(0, 0, -1)))
	assert.Error(t, ValidateCalendarRange(from, from.AddDate(2, 0, 0)))
}
