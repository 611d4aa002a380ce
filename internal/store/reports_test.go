package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/events"
	"github.com/sysu-ecnc-dev/maintenance-manager/backend/internal/storage"
)

func newReportFixture(t *testing.T) (*ReportStore, *UserStore, seededUsers, *events.Bus) {
	t.Helper()
	backend := storage.NewMemory()
	bus := events.NewBus()
	users := newTestUserStore(t, backend, bus)
	seeded := seedUsers(t, users)
	reports := NewReportStore(backend, users, testOptions()...)
	require.NoError(t, reports.Hydrate(context.Background(), nil))
	return reports, users, seeded, bus
}

func TestCreateReportDefaults(t *testing.T) {
	reports, _, s, _ := newReportFixture(t)

	r, err := reports.CreateReport(context.Background(), domain.NewReport{Title: "漏水", ReporterID: s.emp1.ID, JobID: "job-1"})
	require.NoError(t, err)

	assert.Equal(t, domain.ReportTypeIssue, r.Type)
	assert.Equal(t, domain.ReportPriorityMedium, r.Priority)
	assert.Equal(t, domain.ReportStatusOpen, r.Status)
	assert.Equal(t, s.emp1.Snapshot(), r.Reporter)
	assert.Nil(t, r.Assignee)

	_, err = reports.CreateReport(context.Background(), domain.NewReport{Title: "x", ReporterID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrUnresolvedReference)
	assert.Len(t, reports.ListReports(), 1)
}

func TestUpdateReportAssignee(t *testing.T) {
	reports, _, s, _ := newReportFixture(t)
	ctx := context.Background()

	r, err := reports.CreateReport(ctx, domain.NewReport{Title: "x", ReporterID: s.emp1.ID})
	require.NoError(t, err)

	resolved := domain.ReportStatusResolved
	r, err = reports.UpdateReport(ctx, r.ID, domain.ReportPatch{AssigneeID: ptr(s.lead.ID), Status: &resolved})
	require.NoError(t, err)
	require.NotNil(t, r.Assignee)
	assert.Equal(t, s.lead.ID, r.Assignee.ID)
	assert.Equal(t, domain.ReportStatusResolved, r.Status)

	r, err = reports.UpdateReport(ctx, r.ID, domain.ReportPatch{AssigneeID: ptr("")})
	require.NoError(t, err)
	assert.Nil(t, r.Assignee)

	_, err = reports.UpdateReport(ctx, r.ID, domain.ReportPatch{AssigneeID: ptr("ghost")})
	assert.ErrorIs(t, err, domain.ErrUnresolvedReference)

	_, err = reports.UpdateReport(ctx, "missing", domain.ReportPatch{Title: ptr("y")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReportFilters(t *testing.T) {
	reports, _, s, _ := newReportFixture(t)
	ctx := context.Background()

	_, err := reports.CreateReport(ctx, domain.NewReport{Title: "a", ReporterID: s.emp1.ID, JobID: "job-1"})
	require.NoError(t, err)
	_, err = reports.CreateReport(ctx, domain.NewReport{Title: "b", ReporterID: s.emp1.ID, InventoryID: "inv-1", Type: domain.ReportTypeRequest})
	require.NoError(t, err)
	c, err := reports.CreateReport(ctx, domain.NewReport{Title: "c", ReporterID: s.emp2.ID, JobID: "job-1"})
	require.NoError(t, err)

	assert.Len(t, reports.ReportsByJob("job-1"), 2)
	assert.Len(t, reports.ReportsByInventory("inv-1"), 1)

	require.NoError(t, reports.DeleteReport(ctx, c.ID))
	assert.Len(t, reports.ReportsByJob("job-1"), 1)
	assert.ErrorIs(t, reports.DeleteReport(ctx, c.ID), domain.ErrNotFound)
}

func TestReportSnapshotsFollowProfile(t *testing.T) {
	reports, users, s, bus := newReportFixture(t)
	bus.SubscribeUserProfileChanged(reports.ApplyUserProfile)
	ctx := context.Background()

	r, err := reports.CreateReport(ctx, domain.NewReport{Title: "x", ReporterID: s.emp1.ID, AssigneeID: s.emp1.ID})
	require.NoError(t, err)

	_, err = users.UpdateUser(ctx, s.emp1.ID, domain.UserPatch{AvatarURL: ptr("https://cdn/b.png")})
	require.NoError(t, err)

	got, ok := reports.GetReportByID(r.ID)
	require.True(t, ok)
	assert.Equal(t, "https://cdn/b.png", got.Reporter.AvatarURL)
	assert.Equal(t, "https://cdn/b.png", got.Assignee.AvatarURL)
}

func TestReportSnapshotsIgnoreStaleEvent(t *testing.T) {
	reports, users, s, _ := newReportFixture(t)
	ctx := context.Background()

	r, err := reports.CreateReport(ctx, domain.NewReport{Title: "x", ReporterID: s.emp1.ID})
	require.NoError(t, err)

	stale := s.emp1.Snapshot()
	stale.AvatarURL = "https://cdn/old.png"
	_, err = users.UpdateUser(ctx, s.emp1.ID, domain.UserPatch{AvatarURL: ptr("https://cdn/new.png")})
	require.NoError(t, err)

	// 以用户目录中的资料为准
	reports.ApplyUserProfile(events.UserProfileChanged{After: stale})

	got, ok := reports.GetReportByID(r.ID)
	require.True(t, ok)
	assert.Equal(t, "https://cdn/new.png", got.Reporter.AvatarURL)
}
