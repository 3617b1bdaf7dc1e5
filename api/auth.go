package api

import (
	"context"
	"net/http"

	"github.com/octabyte/taskdesk/models"
)

const (
	PathRegisterInitiate = "/users/register/initiate/"
	PathRegisterVerify   = "/users/register/verify-otp/"
	PathRegisterResend   = "/users/register/resend-otp/"
	PathLoginPassword    = "/users/login/password/"
	PathLoginOTPRequest  = "/users/login/otp/request/"
	PathLoginOTPResend   = "/users/login/otp/resend/"
	PathLoginOTPVerify   = "/users/login/otp/verify/"
	PathTokenRefresh     = "/users/token/refresh/"
	PathTokenVerify      = "/users/token/verify/"
	PathLogout           = "/users/logout/"
	PathProfile          = "/users/profile/"
	PathChangePassword   = "/users/change-password/"
)

// InitiateRegistration sends the profile and triggers the registration OTP email.
func (c *Client) InitiateRegistration(ctx context.Context, req models.RegistrationRequest) (*models.MessageResponse, error) {
	var out models.MessageResponse
	err := c.do(ctx, call{
		operation: "register_initiate",
		method:    http.MethodPost,
		path:      PathRegisterInitiate,
		body:      req,
		result:    &out,
		public:    true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyRegistrationOTP(ctx context.Context, email, otp string) (*models.MessageResponse, error) {
	var out models.MessageResponse
	err := c.do(ctx, call{
		operation: "register_verify",
		method:    http.MethodPost,
		path:      PathRegisterVerify,
		body:      models.OTPVerification{Email: email, OTP: otp},
		result:    &out,
		public:    true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResendRegistrationOTP(ctx context.Context, email string) (*models.MessageResponse, error) {
	var out models.MessageResponse
	err := c.do(ctx, call{
		operation: "register_resend",
		method:    http.MethodPost,
		path:      PathRegisterResend,
		body:      models.EmailRequest{Email: email},
		result:    &out,
		public:    true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LoginWithPassword(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, call{
		operation: "login_password",
		method:    http.MethodPost,
		path:      PathLoginPassword,
		body:      models.PasswordLoginRequest{Email: email, Password: password},
		result:    &out,
		public:    true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RequestLoginOTP(ctx context.Context, email string) (*models.MessageResponse, error) {
	return c.loginOTP(ctx, "login_otp_request", PathLoginOTPRequest, email)
}

func (c *Client) ResendLoginOTP(ctx context.Context, email string) (*models.MessageResponse, error) {
	return c.loginOTP(ctx, "login_otp_resend", PathLoginOTPResend, email)
}

func (c *Client) loginOTP(ctx context.Context, operation, path, email string) (*models.MessageResponse, error) {
	var out models.MessageResponse
	err := c.do(ctx, call{
		operation: operation,
		method:    http.MethodPost,
		path:      path,
		body:      models.EmailRequest{Email: email},
		result:    &out,
		public:    true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyLoginOTP(ctx context.Context, email, otp string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.do(ctx, call{
		operation: "login_otp_verify",
		method:    http.MethodPost,
		path:      PathLoginOTPVerify,
		body:      models.OTPVerification{Email: email, OTP: otp},
		result:    &out,
		public:    true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyToken asks the backend whether token is still valid. A rejection is
// returned as is; the caller decides whether to refresh.
func (c *Client) VerifyToken(ctx context.Context, token string) error {
	return c.do(ctx, call{
		operation: "token_verify",
		method:    http.MethodPost,
		path:      PathTokenVerify,
		body:      models.TokenVerifyRequest{Token: token},
		noRefresh: true,
	})
}

// Logout blacklists refresh on the server. It does not touch the store.
func (c *Client) Logout(ctx context.Context, refresh string) error {
	return c.do(ctx, call{
		operation: "logout",
		method:    http.MethodPost,
		path:      PathLogout,
		body:      models.LogoutRequest{Refresh: refresh},
		noRefresh: true,
	})
}
