// Package auth issues and validates facility session tokens. A session
// is scoped to one facility; the master facility may additionally read
// any other facility's data. Credential storage is a configuration
// concern, not a core one.
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	facilityKey = "facility_id"
	masterKey   = "facility_master"
)

// Claims is the session token payload.
type Claims struct {
	FacilityID string `json:"fid"`
	Master     bool   `json:"master,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for the facility.
func IssueToken(secret []byte, facilityID string, master bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		FacilityID: facilityID,
		Master:     master,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   facilityID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session token and returns its claims.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.FacilityID == "" {
		return nil, fmt.Errorf("token has no facility")
	}
	return claims, nil
}

// Middleware authenticates requests via the Authorization bearer token
// and stores the session facility on the context.
func Middleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := ParseToken(secret, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
			}
			c.Set(facilityKey, claims.FacilityID)
			c.Set(masterKey, claims.Master)
			return next(c)
		}
	}
}

// SessionFacility returns the facility the session belongs to.
func SessionFacility(c echo.Context) (string, bool) {
	id, _ := c.Get(facilityKey).(string)
	master, _ := c.Get(masterKey).(bool)
	return id, master
}

// EffectiveFacility resolves which facility a request operates on: the
// session's own facility, or any facility named in the "facility" query
// parameter when the session is a master session. Non-master requests
// naming another facility are rejected; tenant data never crosses over.
func EffectiveFacility(c echo.Context) (string, error) {
	id, master := SessionFacility(c)
	requested := c.QueryParam("facility")
	if requested == "" || requested == id {
		return id, nil
	}
	if !master {
		return "", echo.NewHTTPError(http.StatusForbidden, "facility not accessible")
	}
	return requested, nil
}

// RequireMaster restricts a route to master sessions.
func RequireMaster() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, master := SessionFacility(c); !master {
				return echo.NewHTTPError(http.StatusForbidden, "master access required")
			}
			return next(c)
		}
	}
}
