package store

import (
	"context"
	"errors"
	"time"

	"acty-backend-go/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Store is the persistence surface the services depend on. Postgres is the
// production implementation; Memory backs local runs and tests.
type Store interface {
	Ping(ctx context.Context) error

	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	CreateUser(ctx context.Context, user models.User) error
	SetLastLogin(ctx context.Context, userID string, at time.Time) error

	GetEmployee(ctx context.Context, id string) (models.Employee, error)
	FirstEmployee(ctx context.Context) (models.Employee, error)
	CreateEmployee(ctx context.Context, employee models.Employee) error

	GetStudent(ctx context.Context, id string) (models.Student, error)
	GetStudentByCode(ctx context.Context, stdCode string) (models.Student, error)
	ListStudents(ctx context.Context, search string, limit, offset int) ([]models.Student, int, error)
	CreateStudent(ctx context.Context, student models.Student) error

	GetRequirement(ctx context.Context, faculty string) (models.FacultyRequirement, error)
	ListRequirements(ctx context.Context) ([]models.FacultyRequirement, error)
	UpsertRequirement(ctx context.Context, req models.FacultyRequirement) error

	CreateActivity(ctx context.Context, activity models.Activity, codes []models.QRCode) error
	GetActivity(ctx context.Context, id string) (models.ActivitySummary, error)
	ListActivities(ctx context.Context, filter models.ActivityFilter) ([]models.ActivitySummary, error)
	UpdateActivityStatus(ctx context.Context, id string, status models.ActivityStatus, at time.Time) error
	DeleteActivity(ctx context.Context, id string) error
	CloseFinishedActivities(ctx context.Context, endedBefore, at time.Time) (int64, error)

	InsertQRCodes(ctx context.Context, codes []models.QRCode) error
	GetQRCodeByCode(ctx context.Context, code string) (models.QRCode, error)
	ListQRCodes(ctx context.Context, activityID string) ([]models.QRCode, error)

	// Redeem credits studentID through the QR code atomically: the code row is
	// locked, the activity and duplicate checks run, and counters and the
	// history row are written together.
	Redeem(ctx context.Context, code, studentID string, now time.Time) (models.HistoryDetail, error)
	// RecordManual stores an already-used code together with its history row.
	RecordManual(ctx context.Context, qr models.QRCode, studentID string, now time.Time) (models.HistoryDetail, error)
	ListStudentHistory(ctx context.Context, studentID string) ([]models.HistoryDetail, error)
	ListActivityHistory(ctx context.Context, activityID string) ([]models.HistoryDetail, error)
	ListRecentHistory(ctx context.Context, limit, offset int) ([]models.HistoryDetail, int, error)
}
