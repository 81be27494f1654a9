package services

import (
	"net/http"
	"testing"
	"time"

	"acty-backend-go/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newIdentity(f *fixture) *IdentityService {
	return &IdentityService{
		Store: f.store,
		Tokens: TokenService{
			Secret:     []byte("test-secret"),
			Issuer:     "acty",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
		},
		Now: func() time.Time { return f.now },
	}
}

func TestEnsureSampleEmployeeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := newIdentity(f)
	first, err := svc.EnsureSampleEmployee(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, f.employee.ID, first.ID)
	again, err := svc.EnsureSampleEmployee(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestLoginAndRefresh(t *testing.T) {
	f := newFixture(t)
	svc := newIdentity(f)
	hash, err := svc.Tokens.HashPassword("pa55word")
	require.NoError(t, err)
	studentID := f.student.ID
	require.NoError(t, f.store.CreateUser(f.ctx, models.User{
		ID: "u-1", Username: "somchai", PasswordHash: hash, Role: models.RoleStudent,
		Status: "ACTIVE", StudentID: &studentID, CreatedAt: f.now,
	}))

	pair, identity, err := svc.Login(f.ctx, "SOMCHAI", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, f.student.ID, identity.StudentID)
	assert.NotEmpty(t, pair.RefreshToken)

	_, claims, err := svc.Tokens.ParseToken(pair.AccessToken)
	require.NoError(t, err)
	parsed, err := IdentityFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, identity, parsed)

	_, _, err = svc.Login(f.ctx, "somchai", "wrong")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	_, _, err = svc.Login(f.ctx, "ghost", "pa55word")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	refreshed, again, err := svc.Refresh(f.ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, identity, again)
	assert.NotEqual(t, pair.RefreshToken, refreshed.RefreshToken)

	_, _, err = svc.Refresh(f.ctx, pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err), "access tokens cannot refresh")

	user, err := f.store.GetUser(f.ctx, "u-1")
	require.NoError(t, err)
	require.NotNil(t, user.LastLoginAt)
}

func TestLoginAcceptsBcryptAndRejectsDisabled(t *testing.T) {
	f := newFixture(t)
	svc := newIdentity(f)
	hash, err := bcrypt.GenerateFromPassword([]byte("legacy"), bcrypt.MinCost)
	require.NoError(t, err)
	employeeID := f.employee.ID
	require.NoError(t, f.store.CreateUser(f.ctx, models.User{
		ID: "u-2", Username: "staff", PasswordHash: string(hash), Role: models.RoleEmployee,
		Status: "ACTIVE", EmployeeID: &employeeID, CreatedAt: f.now,
	}))
	require.NoError(t, f.store.CreateUser(f.ctx, models.User{
		ID: "u-3", Username: "gone", PasswordHash: string(hash), Role: models.RoleEmployee,
		Status: "DISABLED", EmployeeID: &employeeID, CreatedAt: f.now,
	}))

	_, identity, err := svc.Login(f.ctx, "staff", "legacy")
	require.NoError(t, err)
	assert.Equal(t, f.employee.ID, identity.EmployeeID)

	_, _, err = svc.Login(f.ctx, "gone", "legacy")
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))
}

func TestIdentityFromClaimsRejectsBadTokens(t *testing.T) {
	_, err := IdentityFromClaims(jwt.MapClaims{"typ": "refresh", "sub": "u", "role": "STUDENT"})
	assert.Error(t, err)
	_, err = IdentityFromClaims(jwt.MapClaims{"typ": "access", "sub": "u", "role": "JANITOR"})
	assert.Error(t, err)
	id, err := IdentityFromClaims(jwt.MapClaims{"typ": "access", "sub": "u", "role": "EMPLOYEE", "pid": "e1"})
	require.NoError(t, err)
	assert.Equal(t, "e1", id.EmployeeID)
}
