package models

import "time"

type User struct {
	ID           string     `db:"id"`
	Username     string     `db:"username"`
	PasswordHash string     `db:"password_hash"`
	Role         Role       `db:"role"`
	Status       string     `db:"status"`
	EmployeeID   *string    `db:"employee_id"`
	StudentID    *string    `db:"student_id"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastLoginAt  *time.Time `db:"last_login_at"`
}

type Employee struct {
	ID           string    `db:"id" json:"id"`
	TitlePrefix  *string   `db:"title_prefix" json:"titlePrefix,omitempty"`
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	EmployeeCode string    `db:"employee_code" json:"employeeCode"`
	Affiliation  *string   `db:"affiliation" json:"affiliation,omitempty"`
	Email        *string   `db:"email" json:"email,omitempty"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

func (e Employee) DisplayName() string {
	name := e.FirstName
	if e.LastName != "" {
		name += " " + e.LastName
	}
	return name
}

type Student struct {
	ID        string    `db:"id" json:"id"`
	StdCode   string    `db:"std_code" json:"stdCode"`
	Title     *string   `db:"title" json:"title,omitempty"`
	Name      string    `db:"name" json:"name"`
	Faculty   *string   `db:"faculty" json:"faculty"`
	Program   *string   `db:"program" json:"program"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type FacultyRequirement struct {
	Faculty    string    `db:"faculty" json:"faculty"`
	CentralMin float64   `db:"central_min" json:"centralMin"`
	FacultyMin float64   `db:"faculty_min" json:"facultyMin"`
	FreeMin    float64   `db:"free_min" json:"freeMin"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

type Activity struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description *string        `db:"description"`
	Category    Category       `db:"category"`
	Hours       float64        `db:"hours"`
	StartDate   *time.Time     `db:"start_date"`
	EndDate     *time.Time     `db:"end_date"`
	Location    *string        `db:"location"`
	Organizer   *string        `db:"organizer"`
	Status      ActivityStatus `db:"status"`
	CreatedByID *string        `db:"created_by_id"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// ActivitySummary is an activity row joined with its usage counters.
type ActivitySummary struct {
	Activity
	CreatorName   *string `db:"creator_name"`
	HistoryCount  int     `db:"history_count"`
	QRCount       int     `db:"qr_count"`
	QRUsedCount   int     `db:"qr_used_count"`
	QRUnusedCount int     `db:"qr_unused_count"`
}

type ActivityFilter struct {
	Search   string
	Category Category
	Status   ActivityStatus
}

type QRCode struct {
	ID          string     `db:"id"`
	Code        string     `db:"code"`
	ActivityID  string     `db:"activity_id"`
	Type        QRType     `db:"type"`
	MaxUses     int        `db:"max_uses"`
	CurrentUses int        `db:"current_uses"`
	IsUsed      bool       `db:"is_used"`
	UsedBy      *string    `db:"used_by"`
	UsedAt      *time.Time `db:"used_at"`
	ExpiredAt   *time.Time `db:"expired_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

type ActivityHistory struct {
	ID          string    `db:"id"`
	StudentID   string    `db:"student_id"`
	ActivityID  string    `db:"activity_id"`
	QRCodeID    string    `db:"qr_code_id"`
	ScannedAt   time.Time `db:"scanned_at"`
	HoursEarned float64   `db:"hours_earned"`
}

// HistoryDetail is a history row joined with its activity and student.
type HistoryDetail struct {
	ActivityHistory
	ActivityName  string   `db:"activity_name"`
	Category      Category `db:"category"`
	ActivityHours float64  `db:"activity_hours"`
	StdCode       string   `db:"std_code"`
	StudentName   string   `db:"student_name"`
	QRCode        string   `db:"qr_code"`
}

// EffectiveHours is the credit a history row contributes. Rows recorded without
// hours fall back to the activity's hours, and to a single hour when neither is set.
func EffectiveHours(hoursEarned, activityHours float64) float64 {
	if hoursEarned > 0 {
		return hoursEarned
	}
	if activityHours > 0 {
		return activityHours
	}
	return 1
}
