package services

import (
	"context"
	"log"
	"strings"
	"time"

	"acty-backend-go/internal/models"
	"acty-backend-go/internal/store"

	"github.com/google/uuid"
)

type ActivityService struct {
	Store     store.Store
	QR        *QRService
	Telemetry *Telemetry
	Grace     time.Duration
	Now       func() time.Time
}

type CreateActivityInput struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Description *string    `json:"description"`
	Category    string     `json:"category" validate:"required"`
	Hours       float64    `json:"hours" validate:"gt=0,lte=1000"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Location    *string    `json:"location" validate:"omitempty,max=200"`
	Organizer   *string    `json:"organizer" validate:"omitempty,max=200"`
	QRCodeCount int        `json:"qrCodeCount" validate:"min=0,max=100"`
}

func (s *ActivityService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *ActivityService) List(ctx context.Context, search, category, status string) ([]models.ActivitySummary, error) {
	filter := models.ActivityFilter{Search: CleanSearchTerm(search)}
	if strings.TrimSpace(category) != "" {
		parsed, ok := models.ParseCategory(category)
		if !ok {
			return nil, ErrBadRequest("Invalid category")
		}
		filter.Category = parsed
	}
	if strings.TrimSpace(status) != "" {
		parsed, ok := models.ParseActivityStatus(status)
		if !ok {
			return nil, ErrBadRequest("Invalid status")
		}
		filter.Status = parsed
	}
	return s.Store.ListActivities(ctx, filter)
}

func (s *ActivityService) Get(ctx context.Context, id string) (models.ActivitySummary, error) {
	item, err := s.Store.GetActivity(ctx, id)
	if err != nil {
		return models.ActivitySummary{}, translate(err, "Activity not found")
	}
	return item, nil
}

func (s *ActivityService) Create(ctx context.Context, input CreateActivityInput, employeeID string) (models.ActivitySummary, error) {
	name, err := NormalizeRequired(input.Name, "Name is required")
	if err != nil {
		return models.ActivitySummary{}, err
	}
	category, ok := models.ParseCategory(input.Category)
	if !ok {
		return models.ActivitySummary{}, ErrBadRequest("Invalid category")
	}
	if input.Hours <= 0 {
		return models.ActivitySummary{}, ErrBadRequest("Hours must be greater than zero")
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return models.ActivitySummary{}, ErrBadRequest("End date must not be before start date")
	}
	if input.QRCodeCount < 0 || input.QRCodeCount > MaxQuantity {
		return models.ActivitySummary{}, ErrBadRequest("QR code count must be between 0 and 100")
	}

	now := s.now()
	activity := models.Activity{
		ID:          uuid.NewString(),
		Name:        name,
		Description: optionalString(input.Description),
		Category:    category,
		Hours:       input.Hours,
		StartDate:   utcPtr(input.StartDate),
		EndDate:     utcPtr(input.EndDate),
		Location:    optionalString(input.Location),
		Organizer:   optionalString(input.Organizer),
		Status:      models.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if employeeID != "" {
		id := employeeID
		activity.CreatedByID = &id
	}

	var codes []models.QRCode
	if input.QRCodeCount > 0 {
		ttl := time.Duration(0)
		if s.QR != nil {
			ttl = s.QR.DefaultTTL
		}
		var expiry *time.Time
		if ttl > 0 {
			at := now.Add(ttl)
			expiry = &at
		}
		codes, err = BuildCodes(activity.ID, models.QRSingleUse, 1, expiry, input.QRCodeCount, now)
		if err != nil {
			return models.ActivitySummary{}, err
		}
	}
	if err := s.Store.CreateActivity(ctx, activity, codes); err != nil {
		return models.ActivitySummary{}, translate(err, "Activity not found")
	}
	s.Telemetry.ObserveGenerated(string(models.QRSingleUse), len(codes))
	log.Printf("[activities] created %s %q with %d codes", activity.ID, activity.Name, len(codes))
	return s.Get(ctx, activity.ID)
}

func (s *ActivityService) UpdateStatus(ctx context.Context, id, status string) (models.ActivitySummary, error) {
	raw, err := NormalizeRequired(status, "Status is required")
	if err != nil {
		return models.ActivitySummary{}, err
	}
	parsed, ok := models.ParseActivityStatus(raw)
	if !ok {
		return models.ActivitySummary{}, ErrBadRequest("Invalid status")
	}
	if err := s.Store.UpdateActivityStatus(ctx, id, parsed, s.now()); err != nil {
		return models.ActivitySummary{}, translate(err, "Activity not found")
	}
	return s.Get(ctx, id)
}

func (s *ActivityService) Delete(ctx context.Context, id string) error {
	if err := s.Store.DeleteActivity(ctx, id); err != nil {
		return translate(err, "Activity not found")
	}
	log.Printf("[activities] deleted %s", id)
	return nil
}

func (s *ActivityService) Participants(ctx context.Context, id string) ([]models.HistoryDetail, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.Store.ListActivityHistory(ctx, id)
}

func (s *ActivityService) RecentScans(ctx context.Context, page, pageSize int) ([]models.HistoryDetail, int, error) {
	page, pageSize = normalizePage(page, pageSize)
	return s.Store.ListRecentHistory(ctx, pageSize, (page-1)*pageSize)
}

// CloseFinished deactivates ACTIVE activities whose end date plus the grace
// period has passed.
func (s *ActivityService) CloseFinished(ctx context.Context) (int64, error) {
	now := s.now()
	closed, err := s.Store.CloseFinishedActivities(ctx, now.Add(-s.Grace), now)
	if err != nil {
		return 0, err
	}
	s.Telemetry.ObserveClosed(closed)
	return closed, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
