package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"acty-backend-go/internal/models"
	"acty-backend-go/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is who a request acts as. EmployeeID or StudentID is set to match Role.
type Identity struct {
	UserID     string      `json:"userId,omitempty"`
	Role       models.Role `json:"role"`
	EmployeeID string      `json:"employeeId,omitempty"`
	StudentID  string      `json:"studentId,omitempty"`
}

func (i Identity) ProfileID() string {
	if i.Role == models.RoleStudent {
		return i.StudentID
	}
	return i.EmployeeID
}

type IdentityService struct {
	Store  store.Store
	Tokens TokenService
	Now    func() time.Time
}

func (s *IdentityService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// SampleEmployee is the staff member requests act as when auth is stubbed.
func SampleEmployee(now time.Time) models.Employee {
	title := "Dr."
	affiliation := "Student Affairs Office"
	email := "staff@acty.local"
	return models.Employee{
		ID:           uuid.NewString(),
		TitlePrefix:  &title,
		FirstName:    "Sample",
		LastName:     "Employee",
		EmployeeCode: "EMP001",
		Affiliation:  &affiliation,
		Email:        &email,
		CreatedAt:    now,
	}
}

// EnsureSampleEmployee returns the first employee, creating the sample one on
// an empty table.
func (s *IdentityService) EnsureSampleEmployee(ctx context.Context) (models.Employee, error) {
	employee, err := s.Store.FirstEmployee(ctx)
	if err == nil {
		return employee, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.Employee{}, err
	}
	employee = SampleEmployee(s.now())
	if err := s.Store.CreateEmployee(ctx, employee); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return s.Store.FirstEmployee(ctx)
		}
		return models.Employee{}, err
	}
	log.Printf("[identity] created sample employee %s", employee.EmployeeCode)
	return employee, nil
}

func (s *IdentityService) StudentIdentity(ctx context.Context, stdCode string) (Identity, error) {
	student, err := s.Store.GetStudentByCode(ctx, strings.TrimSpace(stdCode))
	if err != nil {
		return Identity{}, translate(err, "Student not found")
	}
	return Identity{Role: models.RoleStudent, StudentID: student.ID}, nil
}

func (s *IdentityService) Login(ctx context.Context, username, password string) (TokenPair, Identity, error) {
	name, err := NormalizeRequired(username, "Username is required")
	if err != nil {
		return TokenPair{}, Identity{}, err
	}
	if password == "" {
		return TokenPair{}, Identity{}, ErrBadRequest("Password is required")
	}
	user, err := s.Store.GetUserByUsername(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return TokenPair{}, Identity{}, ErrUnauthorized("Invalid credentials")
	}
	if err != nil {
		return TokenPair{}, Identity{}, err
	}
	if !s.Tokens.VerifyPassword(password, user.PasswordHash) {
		return TokenPair{}, Identity{}, ErrUnauthorized("Invalid credentials")
	}
	identity, err := identityOf(user)
	if err != nil {
		return TokenPair{}, Identity{}, err
	}
	pair, err := s.Tokens.IssuePair(user.ID, user.Role, identity.ProfileID())
	if err != nil {
		return TokenPair{}, Identity{}, err
	}
	if err := s.Store.SetLastLogin(ctx, user.ID, s.now()); err != nil {
		log.Printf("[identity] last login for %s: %v", user.ID, err)
	}
	return pair, identity, nil
}

func (s *IdentityService) Refresh(ctx context.Context, refreshToken string) (TokenPair, Identity, error) {
	token, claims, err := s.Tokens.ParseToken(strings.TrimSpace(refreshToken))
	if err != nil || !token.Valid {
		return TokenPair{}, Identity{}, ErrUnauthorized("Invalid refresh token")
	}
	if typ, _ := claims["typ"].(string); typ != TokenRefresh {
		return TokenPair{}, Identity{}, ErrUnauthorized("Invalid refresh token")
	}
	userID, _ := claims["sub"].(string)
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return TokenPair{}, Identity{}, ErrUnauthorized("Invalid refresh token")
	}
	identity, err := identityOf(user)
	if err != nil {
		return TokenPair{}, Identity{}, err
	}
	pair, err := s.Tokens.IssuePair(user.ID, user.Role, identity.ProfileID())
	if err != nil {
		return TokenPair{}, Identity{}, err
	}
	return pair, identity, nil
}

// IdentityFromClaims reads an access token's claims.
func IdentityFromClaims(claims jwt.MapClaims) (Identity, error) {
	if typ, _ := claims["typ"].(string); typ != TokenAccess {
		return Identity{}, ErrUnauthorized("Invalid token")
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	pid, _ := claims["pid"].(string)
	identity := Identity{UserID: sub, Role: models.Role(role)}
	if sub == "" || !identity.Role.Valid() {
		return Identity{}, ErrUnauthorized("Invalid token")
	}
	if identity.Role == models.RoleStudent {
		identity.StudentID = pid
	} else {
		identity.EmployeeID = pid
	}
	return identity, nil
}

func identityOf(user models.User) (Identity, error) {
	if user.Status != "" && user.Status != "ACTIVE" {
		return Identity{}, ErrForbidden("Account is disabled")
	}
	identity := Identity{UserID: user.ID, Role: user.Role}
	switch user.Role {
	case models.RoleStudent:
		if user.StudentID == nil {
			return Identity{}, ErrForbidden("Account has no student profile")
		}
		identity.StudentID = *user.StudentID
	case models.RoleEmployee:
		if user.EmployeeID == nil {
			return Identity{}, ErrForbidden("Account has no employee profile")
		}
		identity.EmployeeID = *user.EmployeeID
	case models.RoleAdmin:
		if user.EmployeeID != nil {
			identity.EmployeeID = *user.EmployeeID
		}
	default:
		return Identity{}, ErrForbidden("Unknown role")
	}
	return identity, nil
}
