package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"acty-backend-go/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	qrRowColumns       = []string{"id", "code", "activity_id", "type", "max_uses", "current_uses", "is_used", "used_by", "used_at", "expired_at", "created_at"}
	activityRowColumns = []string{"id", "name", "description", "category", "hours", "start_date", "end_date", "location", "organizer", "status", "created_by_id", "created_at", "updated_at"}
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(sqlx.NewDb(db, "pgx")), mock
}

func expectRedeemReads(mock sqlmock.Sqlmock, now time.Time, status models.ActivityStatus) {
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM qr_codes WHERE code = \$1 FOR UPDATE`).
		WithArgs("QR-1").
		WillReturnRows(sqlmock.NewRows(qrRowColumns).
			AddRow("q1", "QR-1", "a1", "SINGLE_USE", 1, 0, false, nil, nil, nil, now))
	mock.ExpectQuery(`FROM activities WHERE id = \$1`).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows(activityRowColumns).
			AddRow("a1", "Ethics training", nil, "CENTRAL", 3.0, nil, nil, nil, nil, string(status), nil, now, now))
}

func TestPostgresRedeemCommits(t *testing.T) {
	p, mock := newMockPostgres(t)
	now := time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC)

	expectRedeemReads(mock, now, models.StatusActive)
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("s1", "a1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`UPDATE qr_codes SET current_uses`).
		WithArgs("q1", 1, true, "s1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)INSERT INTO activity_histories .* ON CONFLICT \(student_id, activity_id\) DO NOTHING`).
		WithArgs(sqlmock.AnyArg(), "s1", "a1", "q1", now, 3.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	history, err := p.Redeem(context.Background(), "QR-1", "s1", now)
	require.NoError(t, err)
	assert.Equal(t, "a1", history.ActivityID)
	assert.Equal(t, "Ethics training", history.ActivityName)
	assert.Equal(t, models.CategoryCentral, history.Category)
	assert.Equal(t, 3.0, history.HoursEarned)
	assert.Equal(t, "QR-1", history.QRCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRedeemConflictRollsBack(t *testing.T) {
	p, mock := newMockPostgres(t)
	now := time.Date(2024, 11, 15, 10, 0, 0, 0, time.UTC)

	expectRedeemReads(mock, now, models.StatusActive)
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("s1", "a1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`UPDATE qr_codes`).WillReturnResult(sqlmock.NewResult(0, 1))
	// A concurrent scan won the unique constraint after the EXISTS check.
	mock.ExpectExec(`INSERT INTO activity_histories`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := p.Redeem(context.Background(), "QR-1", "s1", now)
	assert.ErrorIs(t, err, models.ErrAlreadyRecorded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRedeemAlreadyRecorded(t *testing.T) {
	p, mock := newMockPostgres(t)
	now := time.Now().UTC()

	expectRedeemReads(mock, now, models.StatusActive)
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs("s1", "a1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := p.Redeem(context.Background(), "QR-1", "s1", now)
	assert.ErrorIs(t, err, models.ErrAlreadyRecorded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRedeemClosedActivity(t *testing.T) {
	p, mock := newMockPostgres(t)
	now := time.Now().UTC()

	expectRedeemReads(mock, now, models.StatusCancelled)
	mock.ExpectRollback()

	_, err := p.Redeem(context.Background(), "QR-1", "s1", now)
	assert.ErrorIs(t, err, models.ErrActivityClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRedeemUnknownCode(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM qr_codes WHERE code = \$1 FOR UPDATE`).
		WithArgs("QR-404").
		WillReturnRows(sqlmock.NewRows(qrRowColumns))
	mock.ExpectRollback()

	_, err := p.Redeem(context.Background(), "QR-404", "s1", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetActivityNotFound(t *testing.T) {
	p, mock := newMockPostgres(t)
	mock.ExpectQuery(`FROM activities a\s+LEFT JOIN employees e`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := p.GetActivity(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUniqueViolationIsDuplicate(t *testing.T) {
	p, mock := newMockPostgres(t)
	mock.ExpectExec(`INSERT INTO students`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "students_std_code_key"})

	err := p.CreateStudent(context.Background(), models.Student{ID: "s1", StdCode: "66010001", Name: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)

	mock.ExpectExec(`INSERT INTO students`).WillReturnError(errors.New("connection reset"))
	err = p.CreateStudent(context.Background(), models.Student{ID: "s2", StdCode: "66010002", Name: "y"})
	assert.False(t, errors.Is(err, ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCloseFinishedActivities(t *testing.T) {
	p, mock := newMockPostgres(t)
	cutoff := time.Date(2024, 11, 14, 0, 0, 0, 0, time.UTC)
	now := cutoff.Add(24 * time.Hour)
	mock.ExpectExec(`(?s)UPDATE activities SET status = 'INACTIVE'.*WHERE status = 'ACTIVE'`).
		WithArgs(cutoff, now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := p.CloseFinishedActivities(context.Background(), cutoff, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateStatusMissingRow(t *testing.T) {
	p, mock := newMockPostgres(t)
	mock.ExpectExec(`UPDATE activities SET status`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := p.UpdateActivityStatus(context.Background(), "missing", models.StatusInactive, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
