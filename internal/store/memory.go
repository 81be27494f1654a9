package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"acty-backend-go/internal/models"

	"github.com/google/uuid"
)

// Memory keeps everything in process. A single mutex serialises writes so
// Redeem has the same all-or-nothing behaviour as the Postgres transaction.
type Memory struct {
	mu           sync.RWMutex
	users        map[string]models.User
	employees    map[string]models.Employee
	students     map[string]models.Student
	requirements map[string]models.FacultyRequirement
	activities   map[string]models.Activity
	qrCodes      map[string]models.QRCode
	histories    []models.ActivityHistory
}

func NewMemory() *Memory {
	return &Memory{
		users:        map[string]models.User{},
		employees:    map[string]models.Employee{},
		students:     map[string]models.Student{},
		requirements: map[string]models.FacultyRequirement{},
		activities:   map[string]models.Activity{},
		qrCodes:      map[string]models.QRCode{},
	}
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) GetUser(_ context.Context, id string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (m *Memory) CreateUser(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return ErrDuplicate
		}
	}
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return nil
}

func (m *Memory) SetLastLogin(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return nil
	}
	user.LastLoginAt = &at
	user.UpdatedAt = at
	m.users[userID] = user
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id string) (models.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	employee, ok := m.employees[id]
	if !ok {
		return models.Employee{}, ErrNotFound
	}
	return employee, nil
}

func (m *Memory) FirstEmployee(_ context.Context) (models.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var first *models.Employee
	for _, e := range m.employees {
		e := e
		if first == nil || e.CreatedAt.Before(first.CreatedAt) ||
			(e.CreatedAt.Equal(first.CreatedAt) && e.EmployeeCode < first.EmployeeCode) {
			first = &e
		}
	}
	if first == nil {
		return models.Employee{}, ErrNotFound
	}
	return *first, nil
}

func (m *Memory) CreateEmployee(_ context.Context, employee models.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[employee.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range m.employees {
		if existing.EmployeeCode == employee.EmployeeCode {
			return ErrDuplicate
		}
	}
	m.employees[employee.ID] = employee
	return nil
}

func (m *Memory) GetStudent(_ context.Context, id string) (models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	student, ok := m.students[id]
	if !ok {
		return models.Student{}, ErrNotFound
	}
	return student, nil
}

func (m *Memory) GetStudentByCode(_ context.Context, stdCode string) (models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, student := range m.students {
		if student.StdCode == stdCode {
			return student, nil
		}
	}
	return models.Student{}, ErrNotFound
}

func (m *Memory) ListStudents(_ context.Context, search string, limit, offset int) ([]models.Student, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(search)
	matched := []models.Student{}
	for _, student := range m.students {
		if needle != "" &&
			!strings.Contains(strings.ToLower(student.StdCode), needle) &&
			!strings.Contains(strings.ToLower(student.Name), needle) {
			continue
		}
		matched = append(matched, student)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].StdCode < matched[j].StdCode })
	return page(matched, limit, offset), len(matched), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func (m *Memory) CreateStudent(_ context.Context, student models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[student.ID]; ok {
		return ErrDuplicate
	}
	for _, existing := range m.students {
		if existing.StdCode == student.StdCode {
			return ErrDuplicate
		}
	}
	m.students[student.ID] = student
	return nil
}

func (m *Memory) GetRequirement(_ context.Context, faculty string) (models.FacultyRequirement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requirements[faculty]
	if !ok {
		return models.FacultyRequirement{}, ErrNotFound
	}
	return req, nil
}

func (m *Memory) ListRequirements(_ context.Context) ([]models.FacultyRequirement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]models.FacultyRequirement, 0, len(m.requirements))
	for _, req := range m.requirements {
		items = append(items, req)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Faculty < items[j].Faculty })
	return items, nil
}

func (m *Memory) UpsertRequirement(_ context.Context, req models.FacultyRequirement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requirements[req.Faculty] = req
	return nil
}

func (m *Memory) CreateActivity(_ context.Context, activity models.Activity, codes []models.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activities[activity.ID]; ok {
		return ErrDuplicate
	}
	if err := m.checkCodesLocked(codes); err != nil {
		return err
	}
	activity.UpdatedAt = activity.CreatedAt
	m.activities[activity.ID] = activity
	for _, qr := range codes {
		m.qrCodes[qr.ID] = qr
	}
	return nil
}

func (m *Memory) summaryLocked(a models.Activity) models.ActivitySummary {
	item := models.ActivitySummary{Activity: a}
	if a.CreatedByID != nil {
		if e, ok := m.employees[*a.CreatedByID]; ok {
			name := e.DisplayName()
			item.CreatorName = &name
		}
	}
	for _, h := range m.histories {
		if h.ActivityID == a.ID {
			item.HistoryCount++
		}
	}
	for _, qr := range m.qrCodes {
		if qr.ActivityID != a.ID {
			continue
		}
		item.QRCount++
		if qr.IsUsed {
			item.QRUsedCount++
		} else {
			item.QRUnusedCount++
		}
	}
	return item
}

func (m *Memory) GetActivity(_ context.Context, id string) (models.ActivitySummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.activities[id]
	if !ok {
		return models.ActivitySummary{}, ErrNotFound
	}
	return m.summaryLocked(a), nil
}

func (m *Memory) ListActivities(_ context.Context, filter models.ActivityFilter) ([]models.ActivitySummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	needle := strings.ToLower(filter.Search)
	items := []models.ActivitySummary{}
	for _, a := range m.activities {
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if needle != "" && !activityMatches(a, needle) {
			continue
		}
		items = append(items, m.summaryLocked(a))
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func activityMatches(a models.Activity, needle string) bool {
	fields := []string{a.Name}
	if a.Description != nil {
		fields = append(fields, *a.Description)
	}
	if a.Location != nil {
		fields = append(fields, *a.Location)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func (m *Memory) UpdateActivityStatus(_ context.Context, id string, status models.ActivityStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.activities[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = at
	m.activities[id] = a
	return nil
}

func (m *Memory) DeleteActivity(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.activities[id]; !ok {
		return ErrNotFound
	}
	delete(m.activities, id)
	for qrID, qr := range m.qrCodes {
		if qr.ActivityID == id {
			delete(m.qrCodes, qrID)
		}
	}
	kept := m.histories[:0]
	for _, h := range m.histories {
		if h.ActivityID != id {
			kept = append(kept, h)
		}
	}
	m.histories = kept
	return nil
}

func (m *Memory) CloseFinishedActivities(_ context.Context, endedBefore, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var closed int64
	for id, a := range m.activities {
		if a.Status != models.StatusActive || a.EndDate == nil || !a.EndDate.Before(endedBefore) {
			continue
		}
		a.Status = models.StatusInactive
		a.UpdatedAt = at
		m.activities[id] = a
		closed++
	}
	return closed, nil
}

func (m *Memory) checkCodesLocked(codes []models.QRCode) error {
	seen := map[string]bool{}
	for _, qr := range m.qrCodes {
		seen[qr.Code] = true
	}
	for _, qr := range codes {
		if _, ok := m.qrCodes[qr.ID]; ok || seen[qr.Code] {
			return ErrDuplicate
		}
		seen[qr.Code] = true
	}
	return nil
}

func (m *Memory) InsertQRCodes(_ context.Context, codes []models.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkCodesLocked(codes); err != nil {
		return err
	}
	for _, qr := range codes {
		if _, ok := m.activities[qr.ActivityID]; !ok {
			return ErrNotFound
		}
	}
	for _, qr := range codes {
		m.qrCodes[qr.ID] = qr
	}
	return nil
}

func (m *Memory) qrByCodeLocked(code string) (models.QRCode, bool) {
	for _, qr := range m.qrCodes {
		if qr.Code == code {
			return qr, true
		}
	}
	return models.QRCode{}, false
}

func (m *Memory) GetQRCodeByCode(_ context.Context, code string) (models.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qr, ok := m.qrByCodeLocked(code)
	if !ok {
		return models.QRCode{}, ErrNotFound
	}
	return qr, nil
}

func (m *Memory) ListQRCodes(_ context.Context, activityID string) ([]models.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := []models.QRCode{}
	for _, qr := range m.qrCodes {
		if qr.ActivityID == activityID {
			items = append(items, qr)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].Code < items[j].Code
	})
	return items, nil
}

func (m *Memory) recordedLocked(studentID, activityID string) bool {
	for _, h := range m.histories {
		if h.StudentID == studentID && h.ActivityID == activityID {
			return true
		}
	}
	return false
}

func (m *Memory) Redeem(_ context.Context, code, studentID string, now time.Time) (models.HistoryDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	qr, ok := m.qrByCodeLocked(code)
	if !ok {
		return models.HistoryDetail{}, ErrNotFound
	}
	activity, ok := m.activities[qr.ActivityID]
	if !ok {
		return models.HistoryDetail{}, ErrNotFound
	}
	if err := activity.Redeemable(); err != nil {
		return models.HistoryDetail{}, err
	}
	if m.recordedLocked(studentID, activity.ID) {
		return models.HistoryDetail{}, models.ErrAlreadyRecorded
	}
	next, err := qr.Redeem(studentID, now)
	if err != nil {
		return models.HistoryDetail{}, err
	}
	m.qrCodes[next.ID] = next
	return m.appendHistoryLocked(studentID, activity, next, now), nil
}

func (m *Memory) RecordManual(_ context.Context, qr models.QRCode, studentID string, now time.Time) (models.HistoryDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	activity, ok := m.activities[qr.ActivityID]
	if !ok {
		return models.HistoryDetail{}, ErrNotFound
	}
	if m.recordedLocked(studentID, activity.ID) {
		return models.HistoryDetail{}, models.ErrAlreadyRecorded
	}
	if err := m.checkCodesLocked([]models.QRCode{qr}); err != nil {
		return models.HistoryDetail{}, err
	}
	m.qrCodes[qr.ID] = qr
	return m.appendHistoryLocked(studentID, activity, qr, now), nil
}

func (m *Memory) appendHistoryLocked(studentID string, activity models.Activity, qr models.QRCode, now time.Time) models.HistoryDetail {
	row := models.ActivityHistory{
		ID:          uuid.NewString(),
		StudentID:   studentID,
		ActivityID:  activity.ID,
		QRCodeID:    qr.ID,
		ScannedAt:   now,
		HoursEarned: activity.Hours,
	}
	m.histories = append(m.histories, row)
	return m.detailLocked(row)
}

func (m *Memory) detailLocked(h models.ActivityHistory) models.HistoryDetail {
	item := models.HistoryDetail{ActivityHistory: h}
	if a, ok := m.activities[h.ActivityID]; ok {
		item.ActivityName = a.Name
		item.Category = a.Category
		item.ActivityHours = a.Hours
	}
	if s, ok := m.students[h.StudentID]; ok {
		item.StdCode = s.StdCode
		item.StudentName = s.Name
	}
	if qr, ok := m.qrCodes[h.QRCodeID]; ok {
		item.QRCode = qr.Code
	}
	return item
}

func (m *Memory) historyLocked(match func(models.ActivityHistory) bool) []models.HistoryDetail {
	items := []models.HistoryDetail{}
	for _, h := range m.histories {
		if match(h) {
			items = append(items, m.detailLocked(h))
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ScannedAt.After(items[j].ScannedAt) })
	return items
}

func (m *Memory) ListStudentHistory(_ context.Context, studentID string) ([]models.HistoryDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.historyLocked(func(h models.ActivityHistory) bool { return h.StudentID == studentID }), nil
}

func (m *Memory) ListActivityHistory(_ context.Context, activityID string) ([]models.HistoryDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.historyLocked(func(h models.ActivityHistory) bool { return h.ActivityID == activityID }), nil
}

func (m *Memory) ListRecentHistory(_ context.Context, limit, offset int) ([]models.HistoryDetail, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.historyLocked(func(models.ActivityHistory) bool { return true })
	return page(items, limit, offset), len(items), nil
}
