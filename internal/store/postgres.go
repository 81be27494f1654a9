package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"acty-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (p *Postgres) GetUser(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := p.db.GetContext(ctx, &user, `
SELECT id, username, password_hash, role, status, employee_id, student_id, created_at, updated_at, last_login_at
FROM users WHERE id = $1
`, id)
	return user, notFound(err)
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := p.db.GetContext(ctx, &user, `
SELECT id, username, password_hash, role, status, employee_id, student_id, created_at, updated_at, last_login_at
FROM users WHERE lower(username) = lower($1)
`, username)
	return user, notFound(err)
}

func (p *Postgres) CreateUser(ctx context.Context, user models.User) error {
	_, err := p.db.ExecContext(ctx, `
INSERT INTO users (id, username, password_hash, role, status, employee_id, student_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
`, user.ID, user.Username, user.PasswordHash, user.Role, user.Status, user.EmployeeID, user.StudentID, user.CreatedAt)
	return duplicate(err)
}

func (p *Postgres) SetLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := p.db.ExecContext(ctx, `UPDATE users SET last_login_at = $1, updated_at = $1 WHERE id = $2`, at, userID)
	return err
}

const employeeColumns = `id, title_prefix, first_name, last_name, employee_code, affiliation, email, phone, created_at`

func (p *Postgres) GetEmployee(ctx context.Context, id string) (models.Employee, error) {
	var employee models.Employee
	err := p.db.GetContext(ctx, &employee, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	return employee, notFound(err)
}

func (p *Postgres) FirstEmployee(ctx context.Context) (models.Employee, error) {
	var employee models.Employee
	err := p.db.GetContext(ctx, &employee, `SELECT `+employeeColumns+` FROM employees ORDER BY created_at, employee_code LIMIT 1`)
	return employee, notFound(err)
}

func (p *Postgres) CreateEmployee(ctx context.Context, e models.Employee) error {
	_, err := p.db.ExecContext(ctx, `
INSERT INTO employees (id, title_prefix, first_name, last_name, employee_code, affiliation, email, phone, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, e.ID, e.TitlePrefix, e.FirstName, e.LastName, e.EmployeeCode, e.Affiliation, e.Email, e.Phone, e.CreatedAt)
	return duplicate(err)
}

const studentColumns = `id, std_code, title, name, faculty, program, created_at`

func (p *Postgres) GetStudent(ctx context.Context, id string) (models.Student, error) {
	var student models.Student
	err := p.db.GetContext(ctx, &student, `SELECT `+studentColumns+` FROM students WHERE id = $1`, id)
	return student, notFound(err)
}

func (p *Postgres) GetStudentByCode(ctx context.Context, stdCode string) (models.Student, error) {
	var student models.Student
	err := p.db.GetContext(ctx, &student, `SELECT `+studentColumns+` FROM students WHERE std_code = $1`, stdCode)
	return student, notFound(err)
}

func (p *Postgres) ListStudents(ctx context.Context, search string, limit, offset int) ([]models.Student, int, error) {
	args := []interface{}{}
	where := ""
	if search != "" {
		where = "WHERE lower(std_code) LIKE $1 OR lower(name) LIKE $1"
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	var total int
	if err := p.db.GetContext(ctx, &total, "SELECT count(*) FROM students "+where, args...); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT %s FROM students %s ORDER BY std_code LIMIT $%d OFFSET $%d`,
		studentColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	students := []models.Student{}
	if err := p.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

func (p *Postgres) CreateStudent(ctx context.Context, s models.Student) error {
	_, err := p.db.ExecContext(ctx, `
INSERT INTO students (id, std_code, title, name, faculty, program, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, s.ID, s.StdCode, s.Title, s.Name, s.Faculty, s.Program, s.CreatedAt)
	return duplicate(err)
}

func (p *Postgres) GetRequirement(ctx context.Context, faculty string) (models.FacultyRequirement, error) {
	var req models.FacultyRequirement
	err := p.db.GetContext(ctx, &req, `
SELECT faculty, central_min, faculty_min, free_min, updated_at
FROM faculty_requirements WHERE faculty = $1
`, faculty)
	return req, notFound(err)
}

func (p *Postgres) ListRequirements(ctx context.Context) ([]models.FacultyRequirement, error) {
	items := []models.FacultyRequirement{}
	err := p.db.SelectContext(ctx, &items, `
SELECT faculty, central_min, faculty_min, free_min, updated_at
FROM faculty_requirements ORDER BY faculty
`)
	return items, err
}

func (p *Postgres) UpsertRequirement(ctx context.Context, req models.FacultyRequirement) error {
	_, err := p.db.ExecContext(ctx, `
INSERT INTO faculty_requirements (faculty, central_min, faculty_min, free_min, updated_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (faculty) DO UPDATE SET
  central_min = EXCLUDED.central_min,
  faculty_min = EXCLUDED.faculty_min,
  free_min = EXCLUDED.free_min,
  updated_at = EXCLUDED.updated_at
`, req.Faculty, req.CentralMin, req.FacultyMin, req.FreeMin, req.UpdatedAt)
	return err
}

const activitySummarySelect = `
SELECT a.id, a.name, a.description, a.category, a.hours, a.start_date, a.end_date, a.location,
       a.organizer, a.status, a.created_by_id, a.created_at, a.updated_at,
       NULLIF(trim(coalesce(e.first_name, '') || ' ' || coalesce(e.last_name, '')), '') AS creator_name,
       (SELECT count(*) FROM activity_histories h WHERE h.activity_id = a.id) AS history_count,
       (SELECT count(*) FROM qr_codes q WHERE q.activity_id = a.id) AS qr_count,
       (SELECT count(*) FROM qr_codes q WHERE q.activity_id = a.id AND q.is_used) AS qr_used_count,
       (SELECT count(*) FROM qr_codes q WHERE q.activity_id = a.id AND NOT q.is_used) AS qr_unused_count
FROM activities a
LEFT JOIN employees e ON e.id = a.created_by_id
`

func (p *Postgres) CreateActivity(ctx context.Context, a models.Activity, codes []models.QRCode) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO activities (id, name, description, category, hours, start_date, end_date, location, organizer,
                        status, created_by_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)
`, a.ID, a.Name, a.Description, a.Category, a.Hours, a.StartDate, a.EndDate, a.Location, a.Organizer,
		a.Status, a.CreatedByID, a.CreatedAt); err != nil {
		return err
	}
	if err := insertQRCodes(ctx, tx, codes); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *Postgres) GetActivity(ctx context.Context, id string) (models.ActivitySummary, error) {
	var item models.ActivitySummary
	err := p.db.GetContext(ctx, &item, activitySummarySelect+`WHERE a.id = $1`, id)
	return item, notFound(err)
}

func (p *Postgres) ListActivities(ctx context.Context, filter models.ActivityFilter) ([]models.ActivitySummary, error) {
	clauses := []string{}
	args := []interface{}{}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(lower(a.name) LIKE $%d OR lower(coalesce(a.description, '')) LIKE $%d OR lower(coalesce(a.location, '')) LIKE $%d)", n, n, n))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		clauses = append(clauses, fmt.Sprintf("a.category = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("a.status = $%d", len(args)))
	}
	query := activitySummarySelect
	if len(clauses) > 0 {
		query += "WHERE " + strings.Join(clauses, " AND ") + "\n"
	}
	query += "ORDER BY a.created_at DESC, a.name"
	items := []models.ActivitySummary{}
	err := p.db.SelectContext(ctx, &items, query, args...)
	return items, err
}

func (p *Postgres) UpdateActivityStatus(ctx context.Context, id string, status models.ActivityStatus, at time.Time) error {
	res, err := p.db.ExecContext(ctx, `UPDATE activities SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (p *Postgres) DeleteActivity(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (p *Postgres) CloseFinishedActivities(ctx context.Context, endedBefore, at time.Time) (int64, error) {
	res, err := p.db.ExecContext(ctx, `
UPDATE activities SET status = 'INACTIVE', updated_at = $2
WHERE status = 'ACTIVE' AND end_date IS NOT NULL AND end_date < $1
`, endedBefore, at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const qrColumns = `id, code, activity_id, type, max_uses, current_uses, is_used, used_by, used_at, expired_at, created_at`

func insertQRCodes(ctx context.Context, exec sqlx.ExecerContext, codes []models.QRCode) error {
	for _, qr := range codes {
		if _, err := exec.ExecContext(ctx, `
INSERT INTO qr_codes (`+qrColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`, qr.ID, qr.Code, qr.ActivityID, qr.Type, qr.MaxUses, qr.CurrentUses, qr.IsUsed, qr.UsedBy, qr.UsedAt,
			qr.ExpiredAt, qr.CreatedAt); err != nil {
			return duplicate(err)
		}
	}
	return nil
}

func (p *Postgres) InsertQRCodes(ctx context.Context, codes []models.QRCode) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := insertQRCodes(ctx, tx, codes); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *Postgres) GetQRCodeByCode(ctx context.Context, code string) (models.QRCode, error) {
	var qr models.QRCode
	err := p.db.GetContext(ctx, &qr, `SELECT `+qrColumns+` FROM qr_codes WHERE code = $1`, code)
	return qr, notFound(err)
}

func (p *Postgres) ListQRCodes(ctx context.Context, activityID string) ([]models.QRCode, error) {
	items := []models.QRCode{}
	err := p.db.SelectContext(ctx, &items, `SELECT `+qrColumns+` FROM qr_codes WHERE activity_id = $1 ORDER BY created_at, code`, activityID)
	return items, err
}

func (p *Postgres) Redeem(ctx context.Context, code, studentID string, now time.Time) (models.HistoryDetail, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.HistoryDetail{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var qr models.QRCode
	if err := tx.GetContext(ctx, &qr, `SELECT `+qrColumns+` FROM qr_codes WHERE code = $1 FOR UPDATE`, code); err != nil {
		return models.HistoryDetail{}, notFound(err)
	}
	var activity models.Activity
	if err := tx.GetContext(ctx, &activity, `
SELECT id, name, description, category, hours, start_date, end_date, location, organizer,
       status, created_by_id, created_at, updated_at
FROM activities WHERE id = $1
`, qr.ActivityID); err != nil {
		return models.HistoryDetail{}, notFound(err)
	}
	if err := activity.Redeemable(); err != nil {
		return models.HistoryDetail{}, err
	}
	var recorded bool
	if err := tx.GetContext(ctx, &recorded, `
SELECT EXISTS(SELECT 1 FROM activity_histories WHERE student_id = $1 AND activity_id = $2)
`, studentID, activity.ID); err != nil {
		return models.HistoryDetail{}, err
	}
	if recorded {
		return models.HistoryDetail{}, models.ErrAlreadyRecorded
	}
	next, err := qr.Redeem(studentID, now)
	if err != nil {
		return models.HistoryDetail{}, err
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE qr_codes SET current_uses = $2, is_used = $3, used_by = $4, used_at = $5
WHERE id = $1
`, next.ID, next.CurrentUses, next.IsUsed, next.UsedBy, next.UsedAt); err != nil {
		return models.HistoryDetail{}, err
	}
	history, err := insertHistory(ctx, tx, studentID, activity, next, now)
	if err != nil {
		return models.HistoryDetail{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.HistoryDetail{}, err
	}
	return history, nil
}

func (p *Postgres) RecordManual(ctx context.Context, qr models.QRCode, studentID string, now time.Time) (models.HistoryDetail, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.HistoryDetail{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var activity models.Activity
	if err := tx.GetContext(ctx, &activity, `
SELECT id, name, description, category, hours, start_date, end_date, location, organizer,
       status, created_by_id, created_at, updated_at
FROM activities WHERE id = $1 FOR SHARE
`, qr.ActivityID); err != nil {
		return models.HistoryDetail{}, notFound(err)
	}
	if err := insertQRCodes(ctx, tx, []models.QRCode{qr}); err != nil {
		return models.HistoryDetail{}, err
	}
	history, err := insertHistory(ctx, tx, studentID, activity, qr, now)
	if err != nil {
		return models.HistoryDetail{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.HistoryDetail{}, err
	}
	return history, nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, studentID string, activity models.Activity, qr models.QRCode, now time.Time) (models.HistoryDetail, error) {
	row := models.ActivityHistory{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		ActivityID:  activity.ID,
		QRCodeID:    qr.ID,
		ScannedAt:   now,
		HoursEarned: activity.Hours,
	}
	res, err := tx.ExecContext(ctx, `
INSERT INTO activity_histories (id, student_id, activity_id, qr_code_id, scanned_at, hours_earned)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (student_id, activity_id) DO NOTHING
`, row.ID, row.StudentID, row.ActivityID, row.QRCodeID, row.ScannedAt, row.HoursEarned)
	if err != nil {
		return models.HistoryDetail{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.HistoryDetail{}, err
	} else if n == 0 {
		return models.HistoryDetail{}, models.ErrAlreadyRecorded
	}
	return models.HistoryDetail{
		ActivityHistory: row,
		ActivityName:    activity.Name,
		Category:        activity.Category,
		ActivityHours:   activity.Hours,
		QRCode:          qr.Code,
	}, nil
}

const historyDetailSelect = `
SELECT h.id, h.student_id, h.activity_id, h.qr_code_id, h.scanned_at, h.hours_earned,
       a.name AS activity_name, a.category, a.hours AS activity_hours,
       s.std_code, s.name AS student_name, q.code AS qr_code
FROM activity_histories h
JOIN activities a ON a.id = h.activity_id
JOIN students s ON s.id = h.student_id
JOIN qr_codes q ON q.id = h.qr_code_id
`

func (p *Postgres) ListStudentHistory(ctx context.Context, studentID string) ([]models.HistoryDetail, error) {
	items := []models.HistoryDetail{}
	err := p.db.SelectContext(ctx, &items, historyDetailSelect+`WHERE h.student_id = $1 ORDER BY h.scanned_at DESC`, studentID)
	return items, err
}

func (p *Postgres) ListActivityHistory(ctx context.Context, activityID string) ([]models.HistoryDetail, error) {
	items := []models.HistoryDetail{}
	err := p.db.SelectContext(ctx, &items, historyDetailSelect+`WHERE h.activity_id = $1 ORDER BY h.scanned_at DESC`, activityID)
	return items, err
}

func (p *Postgres) ListRecentHistory(ctx context.Context, limit, offset int) ([]models.HistoryDetail, int, error) {
	var total int
	if err := p.db.GetContext(ctx, &total, `SELECT count(*) FROM activity_histories`); err != nil {
		return nil, 0, err
	}
	items := []models.HistoryDetail{}
	err := p.db.SelectContext(ctx, &items, historyDetailSelect+`ORDER BY h.scanned_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	return items, total, err
}
