package services

import (
	"net/http"
	"testing"
	"time"

	"acty-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateActivityWithCodes(t *testing.T) {
	f := newFixture(t)
	item := f.createActivity(t, "Blood donation", models.CategoryCentral, 3, 5)

	assert.Equal(t, models.StatusActive, item.Status)
	assert.Equal(t, 5, item.QRCount)
	assert.Equal(t, 5, item.QRUnusedCount)
	assert.Equal(t, 0, item.QRUsedCount)
	require.NotNil(t, item.CreatorName)
	assert.Equal(t, "Sample Employee", *item.CreatorName)

	codes, err := f.qr.ListForActivity(f.ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, codes, 5)
	for _, qr := range codes {
		assert.Equal(t, models.QRSingleUse, qr.Type)
		assert.Equal(t, 1, qr.MaxUses)
		require.NotNil(t, qr.ExpiredAt)
		assert.Equal(t, f.now.Add(7*24*time.Hour), *qr.ExpiredAt)
	}
}

func TestCreateActivityValidation(t *testing.T) {
	f := newFixture(t)
	start := f.now
	end := f.now.Add(-time.Hour)
	cases := map[string]CreateActivityInput{
		"blank name":    {Name: "  ", Category: "CENTRAL", Hours: 1},
		"bad category":  {Name: "x", Category: "SPORT", Hours: 1},
		"zero hours":    {Name: "x", Category: "FREE", Hours: 0},
		"dates swapped": {Name: "x", Category: "FREE", Hours: 1, StartDate: &start, EndDate: &end},
		"too many qr":   {Name: "x", Category: "FREE", Hours: 1, QRCodeCount: 101},
	}
	for name, input := range cases {
		_, err := f.activities.Create(f.ctx, input, f.employee.ID)
		assert.Equal(t, http.StatusBadRequest, statusOf(t, err), name)
	}
}

func TestListActivitiesFilters(t *testing.T) {
	f := newFixture(t)
	f.createActivity(t, "Orientation day", models.CategoryCentral, 6, 0)
	f.now = f.now.Add(time.Minute)
	f.createActivity(t, "Faculty sports", models.CategoryFaculty, 4, 0)
	f.now = f.now.Add(time.Minute)
	f.createActivity(t, "Tree planting", models.CategoryFree, 3, 0)

	all, err := f.activities.List(f.ctx, "", "", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Tree planting", all[0].Name, "newest first")

	byCategory, err := f.activities.List(f.ctx, "", "2", "")
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Faculty sports", byCategory[0].Name)

	bySearch, err := f.activities.List(f.ctx, "  orientation   ", "", "active")
	require.NoError(t, err)
	require.Len(t, bySearch, 1)

	_, err = f.activities.List(f.ctx, "", "", "DONE")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestUpdateStatusAndDelete(t *testing.T) {
	f := newFixture(t)
	item := f.createActivity(t, "Camp", models.CategoryFree, 8, 2)

	updated, err := f.activities.UpdateStatus(f.ctx, item.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)

	_, err = f.activities.UpdateStatus(f.ctx, item.ID, "")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	_, err = f.activities.UpdateStatus(f.ctx, "missing", "ACTIVE")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = f.activities.UpdateStatus(f.ctx, item.ID, "ACTIVE")
	require.NoError(t, err)
	codes, err := f.qr.ListForActivity(f.ctx, item.ID)
	require.NoError(t, err)
	_, err = f.scans.Scan(f.ctx, codes[0].Code, f.student.ID)
	require.NoError(t, err)

	require.NoError(t, f.activities.Delete(f.ctx, item.ID))
	_, err = f.activities.Get(f.ctx, item.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	rows, err := f.store.ListStudentHistory(f.ctx, f.student.ID)
	require.NoError(t, err)
	assert.Empty(t, rows, "history cascades with the activity")
	_, err = f.store.GetQRCodeByCode(f.ctx, codes[0].Code)
	assert.Error(t, err)

	assert.Equal(t, http.StatusNotFound, statusOf(t, f.activities.Delete(f.ctx, item.ID)))
}

func TestCloseFinished(t *testing.T) {
	f := newFixture(t)
	longAgo := f.now.Add(-72 * time.Hour)
	recently := f.now.Add(-time.Hour)
	old, err := f.activities.Create(f.ctx, CreateActivityInput{Name: "Old", Category: "FREE", Hours: 1, EndDate: &longAgo}, "")
	require.NoError(t, err)
	fresh, err := f.activities.Create(f.ctx, CreateActivityInput{Name: "Fresh", Category: "FREE", Hours: 1, EndDate: &recently}, "")
	require.NoError(t, err)
	open, err := f.activities.Create(f.ctx, CreateActivityInput{Name: "Open", Category: "FREE", Hours: 1}, "")
	require.NoError(t, err)

	closed, err := f.activities.CloseFinished(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), closed)

	for id, want := range map[string]models.ActivityStatus{
		old.ID:   models.StatusInactive,
		fresh.ID: models.StatusActive,
		open.ID:  models.StatusActive,
	} {
		item, err := f.activities.Get(f.ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, item.Status, item.Name)
	}
}

func TestRecentScansPaginates(t *testing.T) {
	f := newFixture(t)
	a := f.createActivity(t, "Seminar", models.CategoryFaculty, 2, 0)
	b := f.createActivity(t, "Workshop", models.CategoryFaculty, 2, 0)
	_, err := f.scans.RecordManual(f.ctx, a.ID, f.student.StdCode)
	require.NoError(t, err)
	f.now = f.now.Add(time.Minute)
	_, err = f.scans.RecordManual(f.ctx, b.ID, f.student.StdCode)
	require.NoError(t, err)

	items, total, err := f.activities.RecentScans(f.ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Workshop", items[0].ActivityName)
	assert.Equal(t, "66010001", items[0].StdCode)

	participants, err := f.activities.Participants(f.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
	assert.Equal(t, "Somchai Jaidee", participants[0].StudentName)
}
