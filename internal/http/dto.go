package httpapi

import (
	"time"

	"acty-backend-go/internal/models"
	"acty-backend-go/internal/services"
)

type ActivityStatsDTO struct {
	HistoryCount  int `json:"historyCount"`
	QRCount       int `json:"qrCount"`
	QRUsedCount   int `json:"qrUsedCount"`
	QRUnusedCount int `json:"qrUnusedCount"`
}

type ActivityDTO struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description *string               `json:"description"`
	Category    models.Category       `json:"category"`
	Group       int                   `json:"group"`
	Hours       float64               `json:"hours"`
	StartDate   *time.Time            `json:"startDate"`
	EndDate     *time.Time            `json:"endDate"`
	Location    *string               `json:"location"`
	Organizer   *string               `json:"organizer"`
	Status      models.ActivityStatus `json:"status"`
	CreatedBy   *string               `json:"createdBy"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	Stats       ActivityStatsDTO      `json:"stats"`
}

type QRCodeDTO struct {
	ID            string        `json:"id"`
	Code          string        `json:"code"`
	URL           string        `json:"url"`
	ActivityID    string        `json:"activityId"`
	Type          models.QRType `json:"type"`
	MaxUses       int           `json:"maxUses"`
	CurrentUses   int           `json:"currentUses"`
	RemainingUses int           `json:"remainingUses"`
	IsUsed        bool          `json:"isUsed"`
	UsedBy        *string       `json:"usedBy"`
	UsedAt        *time.Time    `json:"usedAt"`
	ExpiredAt     *time.Time    `json:"expiredAt"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type HistoryDTO struct {
	ID           string          `json:"id"`
	StudentID    string          `json:"studentId"`
	StdCode      string          `json:"stdCode"`
	StudentName  string          `json:"studentName"`
	ActivityID   string          `json:"activityId"`
	ActivityName string          `json:"activityName"`
	Category     models.Category `json:"category"`
	Group        int             `json:"group"`
	HoursEarned  float64         `json:"hoursEarned"`
	QRCode       string          `json:"qrCode"`
	ScannedAt    time.Time       `json:"scannedAt"`
}

type PagedResponse[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type ListResponse[T any] struct {
	Items []T `json:"items"`
}

func toActivityDTO(item models.ActivitySummary) ActivityDTO {
	return ActivityDTO{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		Group:       item.Category.Group(),
		Hours:       item.Hours,
		StartDate:   item.StartDate,
		EndDate:     item.EndDate,
		Location:    item.Location,
		Organizer:   item.Organizer,
		Status:      item.Status,
		CreatedBy:   item.CreatorName,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
		Stats: ActivityStatsDTO{
			HistoryCount:  item.HistoryCount,
			QRCount:       item.QRCount,
			QRUsedCount:   item.QRUsedCount,
			QRUnusedCount: item.QRUnusedCount,
		},
	}
}

func (s *Server) toQRCodeDTO(qr models.QRCode) QRCodeDTO {
	return QRCodeDTO{
		ID:            qr.ID,
		Code:          qr.Code,
		URL:           s.QR.ScanURL(qr.Code),
		ActivityID:    qr.ActivityID,
		Type:          qr.Type,
		MaxUses:       qr.MaxUses,
		CurrentUses:   qr.CurrentUses,
		RemainingUses: qr.RemainingUses(),
		IsUsed:        qr.IsUsed,
		UsedBy:        qr.UsedBy,
		UsedAt:        qr.UsedAt,
		ExpiredAt:     qr.ExpiredAt,
		CreatedAt:     qr.CreatedAt,
	}
}

func (s *Server) toQRCodeDTOs(codes []models.QRCode) []QRCodeDTO {
	items := make([]QRCodeDTO, 0, len(codes))
	for _, qr := range codes {
		items = append(items, s.toQRCodeDTO(qr))
	}
	return items
}

func toHistoryDTO(row models.HistoryDetail) HistoryDTO {
	return HistoryDTO{
		ID:           row.ID,
		StudentID:    row.StudentID,
		StdCode:      row.StdCode,
		StudentName:  row.StudentName,
		ActivityID:   row.ActivityID,
		ActivityName: row.ActivityName,
		Category:     row.Category,
		Group:        row.Category.Group(),
		HoursEarned:  models.EffectiveHours(row.HoursEarned, row.ActivityHours),
		QRCode:       row.QRCode,
		ScannedAt:    row.ScannedAt,
	}
}

func toHistoryDTOs(rows []models.HistoryDetail) []HistoryDTO {
	items := make([]HistoryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toHistoryDTO(row))
	}
	return items
}

type MeResponse struct {
	Identity services.Identity `json:"identity"`
	Employee *models.Employee  `json:"employee,omitempty"`
	Student  *models.Student   `json:"student,omitempty"`
}
