package validation

import (
	"testing"

	"github.com/octabyte/taskdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() models.RegistrationRequest {
	return models.RegistrationRequest{
		Email:           "u@x.com",
		FullName:        "Jane Doe",
		Password:        "Secret1!",
		ConfirmPassword: "Secret1!",
	}
}

func TestRegistrationRequest(t *testing.T) {
	require.NoError(t, Struct(validRegistration()))

	testCases := []struct {
		name    string
		mutate  func(r *models.RegistrationRequest)
		field   string
		message string
	}{
		{"bad email", func(r *models.RegistrationRequest) { r.Email = "nope" }, "email", "Invalid email"},
		{"missing name", func(r *models.RegistrationRequest) { r.FullName = "" }, "full_name", "Full name is required"},
		{"short password", func(r *models.RegistrationRequest) { r.Password, r.ConfirmPassword = "Se1!", "Se1!" }, "password", "Password must be at least 8 characters"},
		{"no uppercase", func(r *models.RegistrationRequest) { r.Password, r.ConfirmPassword = "secret12!", "secret12!" }, "password", "Password must contain at least one uppercase letter"},
		{"no symbol", func(r *models.RegistrationRequest) { r.Password, r.ConfirmPassword = "Secret123", "Secret123" }, "password", "Password must contain at least one special character"},
		{"mismatch", func(r *models.RegistrationRequest) { r.ConfirmPassword = "Secret1?" }, "confirm_password", "Passwords must match"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRegistration()
			tc.mutate(&req)

			err := Struct(req)
			var verrs *Errors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tc.message, verrs.Field(tc.field))
		})
	}
}

func TestPasswordPolicyViolation(t *testing.T) {
	assert.Empty(t, PasswordPolicyViolation("Secret1!"))
	assert.Empty(t, PasswordPolicyViolation(`Abcdefg1"`))
	assert.Equal(t, "Password must contain at least one lowercase letter", PasswordPolicyViolation("SECRET1!"))
	assert.Equal(t, "Password must contain at least one number", PasswordPolicyViolation("Secrets!"))
	assert.Equal(t, "Password must contain at least one special character", PasswordPolicyViolation("Secret12_"))
}

func TestEmailAndOTP(t *testing.T) {
	assert.NoError(t, Email("u@x.com"))
	assert.Error(t, Email("u@x"))
	assert.Error(t, Email(""))

	assert.NoError(t, OTP("123456"))
	for _, bad := range []string{"12345", "1234567", "12a456", " 123456"} {
		err := OTP(bad)
		var verrs *Errors
		require.ErrorAs(t, err, &verrs, bad)
		assert.Equal(t, "Please enter a valid 6-digit OTP", verrs.First())
	}
}

func TestTaskInput(t *testing.T) {
	due, err := models.ParseDate("2025-05-01")
	require.NoError(t, err)

	in := models.TaskInput{Title: "Write report", Status: "pending", Priority: "high", DueDate: due}
	assert.NoError(t, Struct(in))

	in.Priority = "urgent"
	var verrs *Errors
	require.ErrorAs(t, Struct(in), &verrs)
	assert.Contains(t, verrs.Field("priority"), "must be one of")

	in.Priority = "low"
	in.DueDate = models.Date{}
	require.ErrorAs(t, Struct(in), &verrs)
	assert.Equal(t, "Due date is required", verrs.Field("due_date"))
}

func TestPasswordChange(t *testing.T) {
	change := models.PasswordChange{CurrentPassword: "Old1!old", NewPassword: "New1!new", ConfirmPassword: "New1!neW"}
	var verrs *Errors
	require.ErrorAs(t, Struct(change), &verrs)
	assert.Equal(t, "Passwords must match", verrs.First())
}
