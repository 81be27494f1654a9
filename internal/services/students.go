package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"acty-backend-go/internal/models"
	"acty-backend-go/internal/store"
)

type StudentService struct {
	Store    store.Store
	Defaults Requirement
	Now      func() time.Time
}

type RequirementInput struct {
	CentralMin float64 `json:"centralMin" validate:"gte=0"`
	FacultyMin float64 `json:"facultyMin" validate:"gte=0"`
	FreeMin    float64 `json:"freeMin" validate:"gte=0"`
}

func (s *StudentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *StudentService) Dashboard(ctx context.Context, stdCode string) (Dashboard, error) {
	student, err := s.Store.GetStudentByCode(ctx, strings.TrimSpace(stdCode))
	if err != nil {
		return Dashboard{}, translate(err, "Student not found")
	}
	return s.DashboardFor(ctx, student)
}

func (s *StudentService) DashboardFor(ctx context.Context, student models.Student) (Dashboard, error) {
	rows, err := s.Store.ListStudentHistory(ctx, student.ID)
	if err != nil {
		return Dashboard{}, err
	}
	req, err := s.RequirementFor(ctx, student.Faculty)
	if err != nil {
		return Dashboard{}, err
	}
	return Summarize(student, rows, req), nil
}

// RequirementFor falls back to the configured defaults when the faculty has no row.
func (s *StudentService) RequirementFor(ctx context.Context, faculty *string) (Requirement, error) {
	if faculty == nil || strings.TrimSpace(*faculty) == "" {
		return s.Defaults, nil
	}
	row, err := s.Store.GetRequirement(ctx, strings.TrimSpace(*faculty))
	if errors.Is(err, store.ErrNotFound) {
		return s.Defaults, nil
	}
	if err != nil {
		return Requirement{}, err
	}
	return RequirementFrom(row), nil
}

func (s *StudentService) History(ctx context.Context, studentID, category string) ([]models.HistoryDetail, error) {
	var filter models.Category
	if strings.TrimSpace(category) != "" {
		parsed, ok := models.ParseCategory(category)
		if !ok {
			return nil, ErrBadRequest("Invalid category")
		}
		filter = parsed
	}
	rows, err := s.Store.ListStudentHistory(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return rows, nil
	}
	items := make([]models.HistoryDetail, 0, len(rows))
	for _, row := range rows {
		if row.Category == filter {
			items = append(items, row)
		}
	}
	return items, nil
}

func (s *StudentService) ListStudents(ctx context.Context, search string, page, pageSize int) ([]models.Student, int, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.Store.ListStudents(ctx, CleanSearchTerm(search), pageSize, (page-1)*pageSize)
}

func (s *StudentService) GetByCode(ctx context.Context, stdCode string) (models.Student, error) {
	student, err := s.Store.GetStudentByCode(ctx, strings.TrimSpace(stdCode))
	if err != nil {
		return models.Student{}, translate(err, "Student not found")
	}
	return student, nil
}

func (s *StudentService) Requirements(ctx context.Context) ([]models.FacultyRequirement, error) {
	return s.Store.ListRequirements(ctx)
}

func (s *StudentService) UpsertRequirement(ctx context.Context, faculty string, input RequirementInput) (models.FacultyRequirement, error) {
	name, err := NormalizeRequired(faculty, "Faculty is required")
	if err != nil {
		return models.FacultyRequirement{}, err
	}
	if input.CentralMin < 0 || input.FacultyMin < 0 || input.FreeMin < 0 {
		return models.FacultyRequirement{}, ErrBadRequest("Minimum hours must not be negative")
	}
	row := models.FacultyRequirement{
		Faculty:    name,
		CentralMin: input.CentralMin,
		FacultyMin: input.FacultyMin,
		FreeMin:    input.FreeMin,
		UpdatedAt:  s.now(),
	}
	if err := s.Store.UpsertRequirement(ctx, row); err != nil {
		return models.FacultyRequirement{}, err
	}
	log.Printf("[requirements] %s set to %.1f/%.1f/%.1f", name, row.CentralMin, row.FacultyMin, row.FreeMin)
	return row, nil
}
