package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// LoginHandler exchanges facility credentials for a session token.
type LoginHandler struct {
	secret      []byte
	credentials map[string]string
	masterID    string
	ttl         time.Duration
}

// NewLoginHandler builds the handler. credentials maps facility ID to
// password; masterID names the facility whose session is a master
// session.
func NewLoginHandler(secret []byte, credentials map[string]string, masterID string, ttl time.Duration) *LoginHandler {
	return &LoginHandler{secret: secret, credentials: credentials, masterID: masterID, ttl: ttl}
}

type loginRequest struct {
	FacilityID string `json:"facility_id"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Token      string `json:"token"`
	FacilityID string `json:"facility_id"`
	Master     bool   `json:"master"`
}

// Login handles POST /login.
func (h *LoginHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pw, ok := h.credentials[req.FacilityID]
	if !ok || pw == "" || pw != req.Password {
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown facility or wrong password")
	}
	master := req.FacilityID == h.masterID
	token, err := IssueToken(h.secret, req.FacilityID, master, h.ttl)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create session")
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, FacilityID: req.FacilityID, Master: master})
}
