package services

import (
	"context"
	"testing"
	"time"

	"acty-backend-go/internal/models"
	"acty-backend-go/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx        context.Context
	now        time.Time
	store      *store.Memory
	telemetry  *Telemetry
	hub        *ScanHub
	qr         *QRService
	activities *ActivityService
	scans      *ScanService
	students   *StudentService
	employee   models.Employee
	student    models.Student
	other      models.Student
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		now:   time.Date(2024, 11, 15, 9, 0, 0, 0, time.UTC),
		store: store.NewMemory(),
		hub:   NewScanHub(),
	}
	clock := func() time.Time { return f.now }
	f.telemetry = NewTelemetry(prometheus.NewRegistry())
	f.qr = &QRService{Store: f.store, BaseURL: "https://acty.test", DefaultTTL: 7 * 24 * time.Hour, Telemetry: f.telemetry, Now: clock}
	f.activities = &ActivityService{Store: f.store, QR: f.qr, Telemetry: f.telemetry, Grace: 24 * time.Hour, Now: clock}
	f.scans = &ScanService{Store: f.store, Hub: f.hub, Telemetry: f.telemetry, Now: clock}
	f.students = &StudentService{Store: f.store, Defaults: Requirement{Central: 90, Faculty: 90, Free: 50}, Now: clock}

	f.employee = SampleEmployee(f.now)
	require.NoError(t, f.store.CreateEmployee(f.ctx, f.employee))
	f.student = f.addStudent(t, "s-1", "66010001", "Somchai Jaidee", "Engineering")
	f.other = f.addStudent(t, "s-2", "66010002", "Somsri Rakdee", "Science")
	return f
}

func (f *fixture) addStudent(t *testing.T, id, code, name, faculty string) models.Student {
	t.Helper()
	fac := faculty
	s := models.Student{ID: id, StdCode: code, Name: name, Faculty: &fac, CreatedAt: f.now}
	require.NoError(t, f.store.CreateStudent(f.ctx, s))
	return s
}

func (f *fixture) createActivity(t *testing.T, name string, category models.Category, hours float64, codes int) models.ActivitySummary {
	t.Helper()
	item, err := f.activities.Create(f.ctx, CreateActivityInput{
		Name:        name,
		Category:    string(category),
		Hours:       hours,
		QRCodeCount: codes,
	}, f.employee.ID)
	require.NoError(t, err)
	return item
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se ServiceError
	require.ErrorAs(t, err, &se)
	return se.Status
}
