package webserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/nippysky/marobi/internal/domain"
	"github.com/pkg/errors"
)

const staffCtxKey = "staff"

// StaffClaims is the token payload issued at login.
type StaffClaims struct {
	Username string `json:"username"`
	Level    string `json:"level"`
	jwt.RegisteredClaims
}

// StaffID returns the subject as the staff primary key.
func (c *StaffClaims) StaffID() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

// IssueToken signs an HS256 token for staff valid for ttl.
func IssueToken(secret string, staff *domain.Staff, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &StaffClaims{
		Username: staff.Username,
		Level:    staff.Level,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(staff.ID, 10),
			Issuer:    "marobi",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies signature and expiry.
func ParseToken(secret, tokenString string) (*StaffClaims, error) {
	claims := &StaffClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func staffJWT(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: staffCtxKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return ParseToken(secret, auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid token", nil)
		},
	})
}

// CurrentStaff returns the claims of the authenticated operator, or nil.
func CurrentStaff(c echo.Context) *StaffClaims {
	claims, _ := c.Get(staffCtxKey).(*StaffClaims)
	return claims
}

// RequireLevel rejects operators whose level is not listed.
func RequireLevel(levels ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := CurrentStaff(c)
			if claims == nil {
				return Fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid token", nil)
			}
			for _, l := range levels {
				if claims.Level == l {
					return next(c)
				}
			}
			return Fail(c, http.StatusForbidden, "FORBIDDEN", "Operation not permitted for this account", nil)
		}
	}
}
