package fakeapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/octabyte/taskdesk/interfaces/http/echo/middleware"
	"github.com/octabyte/taskdesk/models"
	"github.com/octabyte/taskdesk/utils/logger"
	"github.com/octabyte/taskdesk/validation"
	"go.uber.org/zap"
)

const (
	purposeRegistration = "registration"
	purposeLogin        = "login"

	msgOTPExpired      = "OTP expired or not found. Please request a new one."
	msgOTPInvalid      = "Invalid OTP. Please check and try again."
	msgSessionExpired  = "Registration session expired. Please start over."
	msgAccountExists   = "An account with this email already exists. Please login or use a different email."
	msgNoAccount       = "No account found with this email address."
	msgBadCredentials  = "Invalid email or password."
	msgTokenInvalid    = "Token is invalid or expired"
	msgRefreshRequired = "Refresh token is required."
)

type errorBody map[string]string

func fieldError(field, msg string) map[string][]string {
	return map[string][]string{field: {msg}}
}

// bindValid decodes the body into dst and answers 400 with field errors when it fails validation.
func bindValid(c echo.Context, dst interface{}) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, err
	}
	err := validation.Struct(dst)
	if err == nil {
		return true, nil
	}
	var verrs *validation.Errors
	if !errors.As(err, &verrs) {
		return false, err
	}
	body := map[string][]string{}
	for _, f := range verrs.Fields {
		body[f.Field] = append(body[f.Field], f.Message)
	}
	return false, c.JSON(http.StatusBadRequest, body)
}

func otpKey(purpose, email string) string {
	return purpose + ":" + email
}

func (s *Server) storeOTPLocked(purpose, email string) {
	code := s.cfg.OTP()
	s.otps[otpKey(purpose, email)] = &pendingOTP{code: code, expires: s.clock.Now().Add(s.cfg.OTPTTL)}
	s.lastOTP[email] = code
	logger.LogInfo("otp issued", zap.String("purpose", purpose), zap.String("email", email), zap.String("otp", code))
}

// checkOTPLocked returns the backend's error text, or "" when code matches.
func (s *Server) checkOTPLocked(purpose, email, code string) string {
	entry, ok := s.otps[otpKey(purpose, email)]
	if !ok || !s.clock.Now().Before(entry.expires) {
		return msgOTPExpired
	}
	if entry.code != code {
		return msgOTPInvalid
	}
	return ""
}

func (s *Server) initiateRegistration(c echo.Context) error {
	var req models.RegistrationRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		return c.JSON(http.StatusBadRequest, fieldError("email", msgAccountExists))
	}
	s.registrations[req.Email] = &pendingRegistration{request: req, expires: s.clock.Now().Add(s.cfg.RegistrationTTL)}
	s.storeOTPLocked(purposeRegistration, req.Email)

	return c.JSON(http.StatusOK, models.MessageResponse{
		Message: "OTP sent successfully. Please verify within 60 seconds to complete registration.",
		Email:   req.Email,
	})
}

func (s *Server) registrationLocked(email string) *pendingRegistration {
	reg, ok := s.registrations[email]
	if !ok || !s.clock.Now().Before(reg.expires) {
		delete(s.registrations, email)
		return nil
	}
	return reg
}

func (s *Server) verifyRegistration(c echo.Context) error {
	var req models.OTPVerification
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if msg := s.checkOTPLocked(purposeRegistration, req.Email, req.OTP); msg != "" {
		return c.JSON(http.StatusBadRequest, errorBody{"error": msg})
	}
	reg := s.registrationLocked(req.Email)
	if reg == nil {
		return c.JSON(http.StatusBadRequest, errorBody{"error": msgSessionExpired})
	}

	user := models.User{Email: reg.request.Email, FullName: reg.request.FullName}
	s.accounts[user.Email] = newAccount(user, reg.request.Password)
	delete(s.otps, otpKey(purposeRegistration, req.Email))
	delete(s.registrations, req.Email)

	return c.JSON(http.StatusCreated, models.MessageResponse{Message: "Registration completed successfully", User: &user})
}

func (s *Server) resendRegistration(c echo.Context) error {
	var req models.EmailRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[req.Email]; exists {
		return c.JSON(http.StatusBadRequest, fieldError("email", "User with this email already exists."))
	}
	if s.registrationLocked(req.Email) == nil {
		return c.JSON(http.StatusBadRequest, errorBody{"error": msgSessionExpired})
	}
	s.storeOTPLocked(purposeRegistration, req.Email)

	return c.JSON(http.StatusOK, models.MessageResponse{
		Message: "OTP resent successfully. Please verify within 60 seconds.",
		Email:   req.Email,
	})
}

func (s *Server) passwordLogin(c echo.Context) error {
	var req models.PasswordLoginRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[req.Email]
	if !ok || !acct.checkPassword(req.Password) {
		return c.JSON(http.StatusBadRequest, fieldError("non_field_errors", msgBadCredentials))
	}
	return c.JSON(http.StatusOK, s.loginResponseLocked(acct))
}

func (s *Server) loginResponseLocked(acct *account) models.AuthResponse {
	tokens := s.issueLocked(acct.user.Email)
	user := acct.user
	return models.AuthResponse{Access: tokens.Access, Refresh: tokens.Refresh, User: &user}
}

func (s *Server) requestLoginOTP(c echo.Context) error {
	return s.sendLoginOTP(c, "Login OTP sent successfully. Please verify within 60 seconds.")
}

func (s *Server) resendLoginOTP(c echo.Context) error {
	return s.sendLoginOTP(c, "Login OTP resent successfully. Please verify within 60 seconds.")
}

func (s *Server) sendLoginOTP(c echo.Context, message string) error {
	var req models.EmailRequest
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[req.Email]; !ok {
		return c.JSON(http.StatusBadRequest, fieldError("email", msgNoAccount))
	}
	s.storeOTPLocked(purposeLogin, req.Email)
	return c.JSON(http.StatusOK, models.MessageResponse{Message: message, Email: req.Email})
}

func (s *Server) verifyLoginOTP(c echo.Context) error {
	var req models.OTPVerification
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[req.Email]
	if !ok {
		return c.JSON(http.StatusBadRequest, fieldError("email", msgNoAccount))
	}
	if msg := s.checkOTPLocked(purposeLogin, req.Email, req.OTP); msg != "" {
		return c.JSON(http.StatusBadRequest, errorBody{"error": msg})
	}
	delete(s.otps, otpKey(purposeLogin, req.Email))
	return c.JSON(http.StatusOK, s.loginResponseLocked(acct))
}

func (s *Server) refreshToken(c echo.Context) error {
	var req models.TokenRefreshRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Refresh == "" {
		return c.JSON(http.StatusBadRequest, fieldError("refresh", "This field is required."))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	claims, err := s.parseLocked(req.Refresh, tokenTypeRefresh)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorBody{"detail": msgTokenInvalid})
	}

	out := models.TokenRefreshResponse{Access: s.signLocked(claims.Subject, tokenTypeAccess)}
	if s.cfg.RotateRefresh {
		s.blacklist[claims.ID] = true
		out.Refresh = s.signLocked(claims.Subject, tokenTypeRefresh)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) verifyToken(c echo.Context) error {
	var req models.TokenVerifyRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.parseLocked(req.Token, ""); err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{"valid": false, "detail": msgTokenInvalid})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"valid": true})
}

func (s *Server) logout(c echo.Context) error {
	var req models.LogoutRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Refresh == "" {
		return c.JSON(http.StatusBadRequest, errorBody{"detail": msgRefreshRequired})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	claims, err := s.parseLocked(req.Refresh, tokenTypeRefresh)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{"detail": "Invalid token."})
	}
	s.blacklist[claims.ID] = true
	return c.JSON(http.StatusOK, errorBody{"detail": "Successfully logged out."})
}

func currentEmail(c echo.Context) string {
	email, _ := middleware.SessionFromContext(c.Request().Context())
	return email
}

func (s *Server) getProfile(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[currentEmail(c)]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "User not found.")
	}
	return c.JSON(http.StatusOK, acct.user)
}

func (s *Server) updateProfile(c echo.Context) error {
	var req models.ProfileUpdate
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[currentEmail(c)]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "User not found.")
	}
	acct.user.FullName = req.FullName
	return c.JSON(http.StatusOK, acct.user)
}

func (s *Server) changePassword(c echo.Context) error {
	var req models.PasswordChange
	if ok, err := bindValid(c, &req); !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[currentEmail(c)]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "User not found.")
	}
	if !acct.checkPassword(req.CurrentPassword) {
		return c.JSON(http.StatusBadRequest, fieldError("current_password", "Current password is incorrect."))
	}
	if msg := validation.PasswordPolicyViolation(req.NewPassword); msg != "" {
		return c.JSON(http.StatusBadRequest, fieldError("new_password", msg))
	}
	acct.setPassword(req.NewPassword)
	return c.JSON(http.StatusOK, errorBody{"detail": "Password updated successfully."})
}
