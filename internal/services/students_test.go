package services

import (
	"net/http"
	"testing"
	"time"

	"acty-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardUsesFacultyRequirement(t *testing.T) {
	f := newFixture(t)
	central := f.createActivity(t, "Orientation", models.CategoryCentral, 30, 0)
	free := f.createActivity(t, "Cleanup", models.CategoryFree, 10, 0)
	_, err := f.scans.RecordManual(f.ctx, central.ID, f.student.StdCode)
	require.NoError(t, err)
	f.now = f.now.Add(time.Hour)
	_, err = f.scans.RecordManual(f.ctx, free.ID, f.student.StdCode)
	require.NoError(t, err)

	d, err := f.students.Dashboard(f.ctx, "66010001")
	require.NoError(t, err)
	assert.Equal(t, Requirement{Central: 90, Faculty: 90, Free: 50}, d.Required, "defaults without a faculty row")
	assert.Equal(t, 30.0, d.Hours.Central)
	assert.Equal(t, 10.0, d.Hours.Free)
	require.Len(t, d.RecentActivities, 2)
	assert.Equal(t, "Cleanup", d.RecentActivities[0].Name)

	_, err = f.students.UpsertRequirement(f.ctx, "Engineering", RequirementInput{CentralMin: 30, FacultyMin: 0, FreeMin: 10})
	require.NoError(t, err)
	d, err = f.students.Dashboard(f.ctx, "66010001")
	require.NoError(t, err)
	assert.True(t, d.Status.AllPassed)
	assert.Equal(t, 100.0, d.ProgressPercent)

	_, err = f.students.Dashboard(f.ctx, "99999999")
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestHistoryCategoryFilter(t *testing.T) {
	f := newFixture(t)
	a := f.createActivity(t, "A", models.CategoryCentral, 2, 0)
	b := f.createActivity(t, "B", models.CategoryFaculty, 2, 0)
	for _, id := range []string{a.ID, b.ID} {
		_, err := f.scans.RecordManual(f.ctx, id, f.student.StdCode)
		require.NoError(t, err)
	}

	all, err := f.students.History(f.ctx, f.student.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	faculty, err := f.students.History(f.ctx, f.student.ID, "faculty")
	require.NoError(t, err)
	require.Len(t, faculty, 1)
	assert.Equal(t, "B", faculty[0].ActivityName)

	_, err = f.students.History(f.ctx, f.student.ID, "nope")
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestListStudentsAndRequirements(t *testing.T) {
	f := newFixture(t)
	items, total, err := f.students.ListStudents(f.ctx, "somsri", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "66010002", items[0].StdCode)

	items, total, err = f.students.ListStudents(f.ctx, "", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "66010002", items[0].StdCode)

	_, err = f.students.UpsertRequirement(f.ctx, "Science", RequirementInput{CentralMin: -1})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	_, err = f.students.UpsertRequirement(f.ctx, " ", RequirementInput{})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = f.students.UpsertRequirement(f.ctx, "Science", RequirementInput{CentralMin: 80, FacultyMin: 80, FreeMin: 40})
	require.NoError(t, err)
	rows, err := f.students.Requirements(f.ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 80.0, rows[0].CentralMin)
}
