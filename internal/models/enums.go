package models

import "strings"

type Category string

const (
	CategoryCentral Category = "CENTRAL"
	CategoryFaculty Category = "FACULTY"
	CategoryFree    Category = "FREE"
)

var Categories = []Category{CategoryCentral, CategoryFaculty, CategoryFree}

func (c Category) Valid() bool {
	switch c {
	case CategoryCentral, CategoryFaculty, CategoryFree:
		return true
	}
	return false
}

// Group is the numeric group the portal has always shown next to a category.
func (c Category) Group() int {
	switch c {
	case CategoryCentral:
		return 1
	case CategoryFaculty:
		return 2
	case CategoryFree:
		return 3
	}
	return 0
}

func (c Category) Label() string {
	switch c {
	case CategoryCentral:
		return "Central"
	case CategoryFaculty:
		return "Faculty"
	case CategoryFree:
		return "Free"
	}
	return ""
}

// ParseCategory accepts the category name in any case or its group number.
func ParseCategory(raw string) (Category, bool) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	switch value {
	case "1":
		return CategoryCentral, true
	case "2":
		return CategoryFaculty, true
	case "3":
		return CategoryFree, true
	case "OPTIONAL":
		return CategoryFree, true
	}
	c := Category(value)
	return c, c.Valid()
}

type QRType string

const (
	QRSingleUse  QRType = "SINGLE_USE"
	QRMultiUse   QRType = "MULTI_USE"
	QRLimitedUse QRType = "LIMITED_USE"
)

func (t QRType) Valid() bool {
	switch t {
	case QRSingleUse, QRMultiUse, QRLimitedUse:
		return true
	}
	return false
}

func ParseQRType(raw string) (QRType, bool) {
	t := QRType(strings.ToUpper(strings.TrimSpace(raw)))
	return t, t.Valid()
}

type ActivityStatus string

const (
	StatusActive    ActivityStatus = "ACTIVE"
	StatusInactive  ActivityStatus = "INACTIVE"
	StatusCancelled ActivityStatus = "CANCELLED"
)

func (s ActivityStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusCancelled:
		return true
	}
	return false
}

func ParseActivityStatus(raw string) (ActivityStatus, bool) {
	s := ActivityStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
	RoleStudent  Role = "STUDENT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleStudent:
		return true
	}
	return false
}
