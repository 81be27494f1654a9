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

type ScanService struct {
	Store     store.Store
	Hub       *ScanHub
	Telemetry *Telemetry
	Now       func() time.Time
}

func (s *ScanService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// ExtractCode accepts either a bare code or the scan URL printed in the image.
func ExtractCode(raw string) string {
	value := strings.TrimSpace(raw)
	if i := strings.LastIndex(value, "/scan/"); i >= 0 {
		value = value[i+len("/scan/"):]
	}
	if i := strings.IndexAny(value, "?#"); i >= 0 {
		value = value[:i]
	}
	return strings.Trim(value, "/")
}

func (s *ScanService) Scan(ctx context.Context, rawCode, studentID string) (models.HistoryDetail, error) {
	code := ExtractCode(rawCode)
	if code == "" {
		return models.HistoryDetail{}, ErrBadRequest("QR code is required")
	}
	student, err := s.Store.GetStudent(ctx, studentID)
	if err != nil {
		return models.HistoryDetail{}, translate(err, "Student not found")
	}
	history, err := s.Store.Redeem(ctx, code, student.ID, s.now())
	s.Telemetry.ObserveScan(err)
	if err != nil {
		return models.HistoryDetail{}, translate(err, "QR code not found")
	}
	history.StdCode = student.StdCode
	history.StudentName = student.Name
	log.Printf("[scans] %s redeemed %s for activity %s", student.StdCode, code, history.ActivityID)
	s.publish(history, false)
	return history, nil
}

// RecordManual credits a student for an activity without a scan. A used
// single-use code is minted so the history row has a code like any other.
func (s *ScanService) RecordManual(ctx context.Context, activityID, stdCode string) (models.HistoryDetail, error) {
	code, err := NormalizeRequired(stdCode, "Student code is required")
	if err != nil {
		return models.HistoryDetail{}, err
	}
	student, err := s.Store.GetStudentByCode(ctx, code)
	if err != nil {
		return models.HistoryDetail{}, translate(err, "Student not found")
	}
	activity, err := s.Store.GetActivity(ctx, activityID)
	if err != nil {
		return models.HistoryDetail{}, translate(err, "Activity not found")
	}
	if activity.Status == models.StatusCancelled {
		return models.HistoryDetail{}, translate(models.ErrActivityClosed, "")
	}

	now := s.now()
	codeValue, err := NewCode(now)
	if err != nil {
		return models.HistoryDetail{}, err
	}
	usedBy := student.ID
	usedAt := now
	qr := models.QRCode{
		ID:          uuid.NewString(),
		Code:        codeValue,
		ActivityID:  activity.ID,
		Type:        models.QRSingleUse,
		MaxUses:     1,
		CurrentUses: 1,
		IsUsed:      true,
		UsedBy:      &usedBy,
		UsedAt:      &usedAt,
		CreatedAt:   now,
	}
	history, err := s.Store.RecordManual(ctx, qr, student.ID, now)
	if err != nil {
		return models.HistoryDetail{}, translate(err, "Activity not found")
	}
	history.StdCode = student.StdCode
	history.StudentName = student.Name
	log.Printf("[scans] manual credit %s for activity %s", student.StdCode, activity.ID)
	s.publish(history, true)
	return history, nil
}

func (s *ScanService) publish(history models.HistoryDetail, manual bool) {
	s.Hub.Publish(ScanEvent{
		HistoryID:    history.ID,
		ActivityID:   history.ActivityID,
		ActivityName: history.ActivityName,
		StdCode:      history.StdCode,
		StudentName:  history.StudentName,
		Code:         history.QRCode,
		Hours:        models.EffectiveHours(history.HoursEarned, history.ActivityHours),
		Manual:       manual,
		ScannedAt:    history.ScannedAt,
	})
}
