package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"acty-backend-go/internal/models"
	"acty-backend-go/internal/services"
	"acty-backend-go/internal/store"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// namespace keeps generated ids stable so a file can be applied repeatedly.
var namespace = uuid.MustParse("6f1c7d2e-5a0b-4c55-9a7e-0d3f1b2c4e61")

type File struct {
	Employees []struct {
		Code        string `yaml:"code"`
		TitlePrefix string `yaml:"titlePrefix"`
		FirstName   string `yaml:"firstName"`
		LastName    string `yaml:"lastName"`
		Affiliation string `yaml:"affiliation"`
		Email       string `yaml:"email"`
	} `yaml:"employees"`
	Students []struct {
		StdCode string `yaml:"stdCode"`
		Title   string `yaml:"title"`
		Name    string `yaml:"name"`
		Faculty string `yaml:"faculty"`
		Program string `yaml:"program"`
	} `yaml:"students"`
	Requirements []struct {
		Faculty    string  `yaml:"faculty"`
		CentralMin float64 `yaml:"centralMin"`
		FacultyMin float64 `yaml:"facultyMin"`
		FreeMin    float64 `yaml:"freeMin"`
	} `yaml:"requirements"`
	Activities []struct {
		Key         string  `yaml:"key"`
		Name        string  `yaml:"name"`
		Description string  `yaml:"description"`
		Category    string  `yaml:"category"`
		Hours       float64 `yaml:"hours"`
		StartDate   string  `yaml:"startDate"`
		EndDate     string  `yaml:"endDate"`
		Location    string  `yaml:"location"`
		Organizer   string  `yaml:"organizer"`
		Status      string  `yaml:"status"`
		CreatedBy   string  `yaml:"createdBy"`
		QRCodes     int     `yaml:"qrCodes"`
	} `yaml:"activities"`
	History []struct {
		StdCode   string `yaml:"stdCode"`
		Activity  string `yaml:"activity"`
		ScannedAt string `yaml:"scannedAt"`
	} `yaml:"history"`
	Users []struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
		Profile  string `yaml:"profile"`
	} `yaml:"users"`
}

type Report struct {
	Employees    int
	Students     int
	Requirements int
	Activities   int
	History      int
	Users        int
}

func LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return File{}, fmt.Errorf("decode seed: %w", err)
	}
	return file, nil
}

func stableID(kind, key string) string {
	return uuid.NewSHA1(namespace, []byte(kind+":"+key)).String()
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", value)
}

func skipDuplicate(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, store.ErrDuplicate) || errors.Is(err, models.ErrAlreadyRecorded) {
		return false, nil
	}
	return false, err
}

// Apply inserts everything in file that is not already present.
func Apply(ctx context.Context, st store.Store, tokens services.TokenService, file File, now time.Time) (Report, error) {
	var report Report

	for _, e := range file.Employees {
		employee := models.Employee{
			ID:           stableID("employee", e.Code),
			TitlePrefix:  optional(e.TitlePrefix),
			FirstName:    e.FirstName,
			LastName:     e.LastName,
			EmployeeCode: e.Code,
			Affiliation:  optional(e.Affiliation),
			Email:        optional(e.Email),
			CreatedAt:    now,
		}
		created, err := skipDuplicate(st.CreateEmployee(ctx, employee))
		if err != nil {
			return report, fmt.Errorf("employee %s: %w", e.Code, err)
		}
		if created {
			report.Employees++
		}
	}

	for _, s := range file.Students {
		student := models.Student{
			ID:        stableID("student", s.StdCode),
			StdCode:   s.StdCode,
			Title:     optional(s.Title),
			Name:      s.Name,
			Faculty:   optional(s.Faculty),
			Program:   optional(s.Program),
			CreatedAt: now,
		}
		created, err := skipDuplicate(st.CreateStudent(ctx, student))
		if err != nil {
			return report, fmt.Errorf("student %s: %w", s.StdCode, err)
		}
		if created {
			report.Students++
		}
	}

	for _, r := range file.Requirements {
		if r.CentralMin < 0 || r.FacultyMin < 0 || r.FreeMin < 0 {
			return report, fmt.Errorf("requirement %s: negative minimum", r.Faculty)
		}
		if err := st.UpsertRequirement(ctx, models.FacultyRequirement{
			Faculty:    r.Faculty,
			CentralMin: r.CentralMin,
			FacultyMin: r.FacultyMin,
			FreeMin:    r.FreeMin,
			UpdatedAt:  now,
		}); err != nil {
			return report, fmt.Errorf("requirement %s: %w", r.Faculty, err)
		}
		report.Requirements++
	}

	activityIDs := map[string]string{}
	for _, a := range file.Activities {
		key := a.Key
		if key == "" {
			key = a.Name
		}
		activity, err := buildActivity(a.Name, a.Description, a.Category, a.Hours, a.StartDate, a.EndDate,
			a.Location, a.Organizer, a.Status, now)
		if err != nil {
			return report, fmt.Errorf("activity %s: %w", key, err)
		}
		activity.ID = stableID("activity", key)
		if a.CreatedBy != "" {
			id := stableID("employee", a.CreatedBy)
			activity.CreatedByID = &id
		}
		activityIDs[key] = activity.ID

		var codes []models.QRCode
		if a.QRCodes > 0 {
			codes, err = services.BuildCodes(activity.ID, models.QRSingleUse, 1, nil, a.QRCodes, now)
			if err != nil {
				return report, err
			}
		}
		created, err := skipDuplicate(st.CreateActivity(ctx, activity, codes))
		if err != nil {
			return report, fmt.Errorf("activity %s: %w", key, err)
		}
		if created {
			report.Activities++
		}
	}

	for _, h := range file.History {
		activityID, ok := activityIDs[h.Activity]
		if !ok {
			return report, fmt.Errorf("history: unknown activity %q", h.Activity)
		}
		scannedAt, err := parseDate(h.ScannedAt)
		if err != nil {
			return report, fmt.Errorf("history %s/%s: %w", h.StdCode, h.Activity, err)
		}
		at := now
		if scannedAt != nil {
			at = *scannedAt
		}
		studentID := stableID("student", h.StdCode)
		code, err := services.NewCode(at)
		if err != nil {
			return report, err
		}
		qr := models.QRCode{
			ID:          stableID("history-qr", h.StdCode+"/"+h.Activity),
			Code:        code,
			ActivityID:  activityID,
			Type:        models.QRSingleUse,
			MaxUses:     1,
			CurrentUses: 1,
			IsUsed:      true,
			UsedBy:      &studentID,
			UsedAt:      &at,
			CreatedAt:   at,
		}
		_, err = st.RecordManual(ctx, qr, studentID, at)
		created, err := skipDuplicate(err)
		if err != nil {
			return report, fmt.Errorf("history %s/%s: %w", h.StdCode, h.Activity, err)
		}
		if created {
			report.History++
		}
	}

	for _, u := range file.Users {
		role := models.Role(strings.ToUpper(strings.TrimSpace(u.Role)))
		if !role.Valid() {
			return report, fmt.Errorf("user %s: invalid role %q", u.Username, u.Role)
		}
		hash, err := tokens.HashPassword(u.Password)
		if err != nil {
			return report, err
		}
		user := models.User{
			ID:           stableID("user", strings.ToLower(u.Username)),
			Username:     u.Username,
			PasswordHash: hash,
			Role:         role,
			Status:       "ACTIVE",
			CreatedAt:    now,
		}
		if u.Profile != "" {
			if role == models.RoleStudent {
				id := stableID("student", u.Profile)
				user.StudentID = &id
			} else {
				id := stableID("employee", u.Profile)
				user.EmployeeID = &id
			}
		}
		created, err := skipDuplicate(st.CreateUser(ctx, user))
		if err != nil {
			return report, fmt.Errorf("user %s: %w", u.Username, err)
		}
		if created {
			report.Users++
		}
	}

	log.Printf("[seed] employees=%d students=%d requirements=%d activities=%d history=%d users=%d",
		report.Employees, report.Students, report.Requirements, report.Activities, report.History, report.Users)
	return report, nil
}

func buildActivity(name, description, category string, hours float64, start, end, location, organizer, status string, now time.Time) (models.Activity, error) {
	if strings.TrimSpace(name) == "" {
		return models.Activity{}, errors.New("name is required")
	}
	cat, ok := models.ParseCategory(category)
	if !ok {
		return models.Activity{}, fmt.Errorf("invalid category %q", category)
	}
	if hours <= 0 {
		return models.Activity{}, errors.New("hours must be positive")
	}
	st := models.StatusActive
	if strings.TrimSpace(status) != "" {
		parsed, ok := models.ParseActivityStatus(status)
		if !ok {
			return models.Activity{}, fmt.Errorf("invalid status %q", status)
		}
		st = parsed
	}
	startDate, err := parseDate(start)
	if err != nil {
		return models.Activity{}, err
	}
	endDate, err := parseDate(end)
	if err != nil {
		return models.Activity{}, err
	}
	return models.Activity{
		Name:        strings.TrimSpace(name),
		Description: optional(description),
		Category:    cat,
		Hours:       hours,
		StartDate:   startDate,
		EndDate:     endDate,
		Location:    optional(location),
		Organizer:   optional(organizer),
		Status:      st,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
