package httpapi

import (
	"context"
	"net/http"
	"strings"

	"acty-backend-go/internal/config"
	"acty-backend-go/internal/models"
	"acty-backend-go/internal/services"
)

// StudentCodeHeader picks the acting student when auth is stubbed.
const StudentCodeHeader = "X-Student-Code"

type contextKey string

const ctxIdentity contextKey = "identity"

type audience int

const (
	audienceAny audience = iota
	audienceEmployee
	audienceStudent
)

func withIdentity(r *http.Request, identity services.Identity) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxIdentity, identity))
}

func CurrentIdentity(r *http.Request) (services.Identity, bool) {
	identity, ok := r.Context().Value(ctxIdentity).(services.Identity)
	return identity, ok
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := identityFromToken(tokenService, bearerToken(r))
			if !ok {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			next.ServeHTTP(w, withIdentity(r, identity))
		})
	}
}

func identityFromToken(tokenService services.TokenService, tokenStr string) (services.Identity, bool) {
	if tokenStr == "" {
		return services.Identity{}, false
	}
	token, claims, err := tokenService.ParseToken(tokenStr)
	if err != nil || !token.Valid {
		return services.Identity{}, false
	}
	identity, err := services.IdentityFromClaims(claims)
	if err != nil {
		return services.Identity{}, false
	}
	return identity, true
}

func (s *Server) authenticate(aud audience) func(http.Handler) http.Handler {
	if s.Config.AuthMode == config.AuthModeJWT {
		return WithAuth(s.Tokens)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := s.stubIdentity(r, aud)
			if err != nil {
				writeFailure(w, r, err)
				return
			}
			next.ServeHTTP(w, withIdentity(r, identity))
		})
	}
}

// stubIdentity resolves who a request acts as without credentials. Employee
// routes run as the sample employee with admin rights; student routes run as
// the student named in StudentCodeHeader or the configured default.
func (s *Server) stubIdentity(r *http.Request, aud audience) (services.Identity, error) {
	code := strings.TrimSpace(r.Header.Get(StudentCodeHeader))
	if aud == audienceStudent || (aud == audienceAny && code != "") {
		if code == "" {
			code = s.Config.StubStudentCode
		}
		return s.Identity.StudentIdentity(r.Context(), code)
	}
	employee, err := s.Identity.EnsureSampleEmployee(r.Context())
	if err != nil {
		return services.Identity{}, err
	}
	return services.Identity{Role: models.RoleAdmin, EmployeeID: employee.ID}, nil
}

func RequireAnyRole(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := map[models.Role]bool{}
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := CurrentIdentity(r)
			if !ok || !allowed[identity.Role] {
				WriteError(w, http.StatusForbidden, "Not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
