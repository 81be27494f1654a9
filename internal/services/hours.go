package services

import (
	"math"
	"sort"
	"time"

	"acty-backend-go/internal/models"
)

const recentLimit = 10

// Requirement is the minimum hours per category a student must reach.
type Requirement struct {
	Central float64 `json:"group1"`
	Faculty float64 `json:"group2"`
	Free    float64 `json:"group3"`
}

func (r Requirement) Total() float64 {
	return r.Central + r.Faculty + r.Free
}

func (r Requirement) For(c models.Category) float64 {
	switch c {
	case models.CategoryCentral:
		return r.Central
	case models.CategoryFaculty:
		return r.Faculty
	case models.CategoryFree:
		return r.Free
	}
	return 0
}

func RequirementFrom(row models.FacultyRequirement) Requirement {
	return Requirement{Central: row.CentralMin, Faculty: row.FacultyMin, Free: row.FreeMin}
}

type HoursByGroup struct {
	Central float64 `json:"group1"`
	Faculty float64 `json:"group2"`
	Free    float64 `json:"group3"`
	Total   float64 `json:"total"`
}

func (h *HoursByGroup) add(c models.Category, hours float64) {
	switch c {
	case models.CategoryCentral:
		h.Central += hours
	case models.CategoryFaculty:
		h.Faculty += hours
	case models.CategoryFree:
		h.Free += hours
	default:
		return
	}
	h.Total += hours
}

type PassStatus struct {
	CentralPassed bool `json:"group1Passed"`
	FacultyPassed bool `json:"group2Passed"`
	FreePassed    bool `json:"group3Passed"`
	AllPassed     bool `json:"allPassed"`
}

type RecentActivity struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Group     int             `json:"group"`
	GroupName string          `json:"groupName"`
	Category  models.Category `json:"category"`
	Hours     float64         `json:"hours"`
	Date      string          `json:"date"`
	ScannedAt string          `json:"scannedAt"`
}

type StudentInfo struct {
	ID      string  `json:"id"`
	StdCode string  `json:"stdCode"`
	Name    string  `json:"name"`
	Faculty *string `json:"faculty"`
	Program *string `json:"program"`
}

type Dashboard struct {
	Student          StudentInfo      `json:"student"`
	Hours            HoursByGroup     `json:"hours"`
	Required         Requirement      `json:"required"`
	Remaining        Requirement      `json:"remaining"`
	Status           PassStatus       `json:"status"`
	ProgressPercent  float64          `json:"progressPercent"`
	RecentActivities []RecentActivity `json:"recentActivities"`
}

// Summarize folds a student's history into per-category hours and compares
// them to req. Rows may come in any order.
func Summarize(student models.Student, rows []models.HistoryDetail, req Requirement) Dashboard {
	var hours HoursByGroup
	for _, row := range rows {
		hours.add(row.Category, models.EffectiveHours(row.HoursEarned, row.ActivityHours))
	}

	status := PassStatus{
		CentralPassed: hours.Central >= req.Central,
		FacultyPassed: hours.Faculty >= req.Faculty,
		FreePassed:    hours.Free >= req.Free,
	}
	status.AllPassed = status.CentralPassed && status.FacultyPassed && status.FreePassed

	return Dashboard{
		Student: StudentInfo{
			ID:      student.ID,
			StdCode: student.StdCode,
			Name:    student.Name,
			Faculty: student.Faculty,
			Program: student.Program,
		},
		Hours:    hours,
		Required: req,
		Remaining: Requirement{
			Central: math.Max(0, req.Central-hours.Central),
			Faculty: math.Max(0, req.Faculty-hours.Faculty),
			Free:    math.Max(0, req.Free-hours.Free),
		},
		Status:           status,
		ProgressPercent:  progress(hours.Total, req.Total()),
		RecentActivities: recent(rows, recentLimit),
	}
}

func progress(total, required float64) float64 {
	if required <= 0 {
		return 0
	}
	pct := math.Min(100, total/required*100)
	return math.Round(pct*10) / 10
}

func recent(rows []models.HistoryDetail, limit int) []RecentActivity {
	sorted := make([]models.HistoryDetail, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ScannedAt.After(sorted[j].ScannedAt) })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	items := make([]RecentActivity, 0, len(sorted))
	for _, row := range sorted {
		scanned := row.ScannedAt.UTC()
		items = append(items, RecentActivity{
			ID:        row.ActivityID,
			Name:      row.ActivityName,
			Group:     row.Category.Group(),
			GroupName: row.Category.Label(),
			Category:  row.Category,
			Hours:     models.EffectiveHours(row.HoursEarned, row.ActivityHours),
			Date:      scanned.Format("2006-01-02"),
			ScannedAt: scanned.Format(time.RFC3339),
		})
	}
	return items
}
