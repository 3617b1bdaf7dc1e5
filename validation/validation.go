package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

var (
	// emailPattern mirrors the check the login screens apply before any request.
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	otpPattern   = regexp.MustCompile(`^\d{6}$`)

	once     sync.Once
	validate *validator.Validate
)

// Errors collects field messages in declaration order.
type Errors struct {
	Fields []FieldError
}

type FieldError struct {
	Field   string
	Message string
}

func (e *Errors) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// First returns the message shown inline when a single line is available.
func (e *Errors) First() string {
	if len(e.Fields) == 0 {
		return ""
	}
	return e.Fields[0].Message
}

func (e *Errors) Field(name string) string {
	for _, f := range e.Fields {
		if f.Field == name {
			return f.Message
		}
	}
	return ""
}

// Validator returns the shared validator with the custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("password_policy", func(fl validator.FieldLevel) bool {
			return PasswordPolicyViolation(fl.Field().String()) == ""
		})
	})
	return validate
}

// Struct validates s and translates failures into user-facing messages.
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := &Errors{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func Email(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return &Errors{Fields: []FieldError{{Field: "email", Message: "Please enter a valid email address"}}}
	}
	return nil
}

func OTP(otp string) error {
	if !otpPattern.MatchString(otp) {
		return &Errors{Fields: []FieldError{{Field: "otp", Message: "Please enter a valid 6-digit OTP"}}}
	}
	return nil
}

// IsOTP reports whether s is exactly six ASCII digits.
func IsOTP(s string) bool {
	return otpPattern.MatchString(s)
}

// PasswordPolicyViolation returns the first unmet complexity rule, or "" when the password passes.
func PasswordPolicyViolation(password string) string {
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}

	switch {
	case len(password) < 8:
		return "Password must be at least 8 characters"
	case !upper:
		return "Password must contain at least one uppercase letter"
	case !lower:
		return "Password must contain at least one lowercase letter"
	case !digit:
		return "Password must contain at least one number"
	case !symbol:
		return "Password must contain at least one special character"
	}
	return ""
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label(fe.Field()))
	case "email":
		return "Invalid email"
	case "min":
		if fe.Field() == "password" {
			return "Password must be at least 8 characters"
		}
		return fmt.Sprintf("%s must be at least %s characters", label(fe.Field()), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label(fe.Field()), fe.Param())
	case "password_policy":
		return PasswordPolicyViolation(fmt.Sprint(fe.Value()))
	case "eqfield":
		return "Passwords must match"
	case "len", "numeric":
		return "Please enter a valid 6-digit OTP"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label(fe.Field()), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label(fe.Field()))
	}
}

func label(field string) string {
	switch field {
	case "email":
		return "Email"
	case "full_name":
		return "Full name"
	case "password":
		return "Password"
	case "confirm_password":
		return "Confirm password"
	case "current_password":
		return "Current password"
	case "new_password":
		return "New password"
	case "due_date":
		return "Due date"
	default:
		if field == "" {
			return "Value"
		}
		return strings.ToUpper(field[:1]) + strings.ReplaceAll(field[1:], "_", " ")
	}
}
