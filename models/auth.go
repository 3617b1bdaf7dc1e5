package models

type RegistrationRequest struct {
	Email           string `json:"email" validate:"required,email"`
	FullName        string `json:"full_name" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,password_policy"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type OTPVerification struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	User    *User  `json:"user,omitempty"`
}

func (r AuthResponse) Tokens() Tokens {
	return Tokens{Access: r.Access, Refresh: r.Refresh}
}

type TokenRefreshRequest struct {
	Refresh string `json:"refresh"`
}

type TokenRefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type TokenVerifyRequest struct {
	Token string `json:"token"`
}

type LogoutRequest struct {
	Refresh string `json:"refresh"`
}

// MessageResponse covers the acknowledgement bodies of the registration and OTP endpoints.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Email   string `json:"email,omitempty"`
	User    *User  `json:"user,omitempty"`
}
