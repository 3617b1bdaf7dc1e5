package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/octabyte/taskdesk/validation"
	"github.com/stretchr/testify/assert"
)

func TestExtractMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "error key", body: `{"error":"Invalid OTP. Please check and try again."}`, want: "Invalid OTP. Please check and try again."},
		{name: "detail key", body: `{"detail":"Token is invalid or expired"}`, want: "Token is invalid or expired"},
		{name: "error wins over detail", body: `{"detail":"d","error":"e"}`, want: "e"},
		{name: "non field errors", body: `{"non_field_errors":["Invalid email or password."]}`, want: "Invalid email or password."},
		{name: "email field", body: `{"email":["No account found with this email address."]}`, want: "No account found with this email address."},
		{name: "any field", body: `{"due_date":["Due date cannot be in the past."]}`, want: "Due date cannot be in the past."},
		{name: "bare string", body: `"nope"`, want: "nope"},
		{name: "html", body: `<html>502</html>`, want: ""},
		{name: "empty", body: ``, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMessage([]byte(tt.body)))
		})
	}
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, KindNetwork, kindFor(0))
	assert.Equal(t, KindAuthentication, kindFor(401))
	assert.Equal(t, KindBusiness, kindFor(400))
	assert.Equal(t, KindBusiness, kindFor(404))
	assert.Equal(t, KindUnexpected, kindFor(500))
}

func TestUserMessage(t *testing.T) {
	business := &Error{Kind: KindBusiness, Status: 400, Message: "OTP expired or not found. Please request a new one."}
	silent := &Error{Kind: KindBusiness, Status: 400}
	server := &Error{Kind: KindUnexpected, Status: 502}
	network := &Error{Kind: KindNetwork, Err: errors.New("connection refused")}
	invalid := &validation.Errors{Fields: []validation.FieldError{{Field: "email", Message: "Please enter a valid email address"}}}

	assert.Equal(t, business.Message, UserMessage(fmt.Errorf("wrapped: %w", business), "fallback"))
	assert.Equal(t, "fallback", UserMessage(silent, "fallback"))
	assert.Equal(t, MsgUnexpected, UserMessage(silent, ""))
	assert.Equal(t, MsgUnexpected, UserMessage(server, "fallback"))
	assert.Equal(t, MsgNoResponse, UserMessage(network, "fallback"))
	assert.Equal(t, "Please enter a valid email address", UserMessage(invalid, "fallback"))
	assert.Equal(t, "fallback", UserMessage(errors.New("other"), "fallback"))
	assert.Empty(t, UserMessage(nil, "fallback"))
}

func TestFieldErrors(t *testing.T) {
	err := &Error{Body: []byte(`{"current_password":["Current password is incorrect."],"detail":"x","new_password":["Too short","Too common"]}`)}

	assert.Equal(t, map[string]string{
		"current_password": "Current password is incorrect.",
		"new_password":     "Too short",
	}, err.FieldErrors())
	assert.Equal(t, "Too common", err.Field("new_password.1"))
}
