package services

import (
	"testing"
	"time"

	"acty-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyRow(category models.Category, earned, activityHours float64, at time.Time) models.HistoryDetail {
	return models.HistoryDetail{
		ActivityHistory: models.ActivityHistory{
			ActivityID:  "act-" + at.Format("0102150405"),
			ScannedAt:   at,
			HoursEarned: earned,
		},
		ActivityName:  "Activity " + string(category),
		Category:      category,
		ActivityHours: activityHours,
	}
}

func TestSummarizeSumsAndPasses(t *testing.T) {
	base := time.Date(2024, 11, 1, 9, 0, 0, 0, time.UTC)
	rows := []models.HistoryDetail{
		historyRow(models.CategoryCentral, 60, 60, base),
		historyRow(models.CategoryCentral, 30, 30, base.Add(time.Hour)),
		historyRow(models.CategoryFaculty, 0, 40, base.Add(2*time.Hour)),
		historyRow(models.CategoryFree, 0, 0, base.Add(3*time.Hour)),
	}
	req := Requirement{Central: 90, Faculty: 90, Free: 50}
	student := models.Student{ID: "s1", StdCode: "66010001", Name: "Somchai"}

	d := Summarize(student, rows, req)

	assert.Equal(t, 90.0, d.Hours.Central)
	assert.Equal(t, 40.0, d.Hours.Faculty)
	assert.Equal(t, 1.0, d.Hours.Free, "rows without hours count as one hour")
	assert.Equal(t, 131.0, d.Hours.Total)
	assert.True(t, d.Status.CentralPassed)
	assert.False(t, d.Status.FacultyPassed)
	assert.False(t, d.Status.AllPassed)
	assert.Equal(t, 0.0, d.Remaining.Central)
	assert.Equal(t, 50.0, d.Remaining.Faculty)
	assert.Equal(t, 49.0, d.Remaining.Free)
	assert.Equal(t, 57.0, d.ProgressPercent)
	assert.Equal(t, "66010001", d.Student.StdCode)
}

func TestSummarizeCapsProgressAndAllPassed(t *testing.T) {
	now := time.Now()
	rows := []models.HistoryDetail{
		historyRow(models.CategoryCentral, 100, 100, now),
		historyRow(models.CategoryFaculty, 100, 100, now),
		historyRow(models.CategoryFree, 100, 100, now),
	}
	d := Summarize(models.Student{}, rows, Requirement{Central: 90, Faculty: 90, Free: 50})
	assert.True(t, d.Status.AllPassed)
	assert.Equal(t, 100.0, d.ProgressPercent)
}

func TestSummarizeZeroRequirement(t *testing.T) {
	d := Summarize(models.Student{}, nil, Requirement{})
	assert.Equal(t, 0.0, d.ProgressPercent)
	assert.True(t, d.Status.AllPassed)
	assert.NotNil(t, d.RecentActivities)
	assert.Empty(t, d.RecentActivities)
}

func TestSummarizeRecentIsNewestTen(t *testing.T) {
	base := time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)
	rows := []models.HistoryDetail{}
	for i := 0; i < 12; i++ {
		rows = append(rows, historyRow(models.CategoryFree, 2, 2, base.AddDate(0, 0, i)))
	}
	d := Summarize(models.Student{}, rows, Requirement{Free: 50})
	require.Len(t, d.RecentActivities, 10)
	first := d.RecentActivities[0]
	assert.Equal(t, "2024-10-12", first.Date)
	assert.Equal(t, "2024-10-12T08:00:00Z", first.ScannedAt)
	assert.Equal(t, 3, first.Group)
	assert.Equal(t, "Free", first.GroupName)
	assert.Equal(t, "2024-10-03", d.RecentActivities[9].Date)
}
