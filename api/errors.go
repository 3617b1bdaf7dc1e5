package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/octabyte/taskdesk/validation"
	"github.com/tidwall/gjson"
)

const (
	MsgNoResponse = "No response from server. Please try again."
	MsgUnexpected = "An error occurred. Please try again."
)

var (
	ErrNoRefreshToken   = errors.New("no refresh token stored")
	ErrEmptyAccessToken = errors.New("refresh response carried no access token")
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindAuthentication
	KindBusiness
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindBusiness:
		return "business"
	case KindNetwork:
		return "network"
	default:
		return "unexpected"
	}
}

// Error is returned for every failed backend call. Status is 0 when no response arrived.
type Error struct {
	Kind    Kind
	Status  int
	Method  string
	Path    string
	Message string
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FieldErrors returns the first message of every field-keyed error list in the body.
func (e *Error) FieldErrors() map[string]string {
	out := map[string]string{}
	body := gjson.ParseBytes(e.Body)
	if !body.IsObject() {
		return out
	}
	body.ForEach(func(key, value gjson.Result) bool {
		if value.IsArray() {
			if first := value.Get("0"); first.Type == gjson.String {
				out[key.String()] = first.String()
			}
		}
		return true
	})
	return out
}

// Field returns the body value at a gjson path, e.g. "email.0".
func (e *Error) Field(path string) string {
	return gjson.GetBytes(e.Body, path).String()
}

func kindFor(status int) Kind {
	switch {
	case status == 0:
		return KindNetwork
	case status == http.StatusUnauthorized:
		return KindAuthentication
	case status >= 400 && status < 500:
		return KindBusiness
	default:
		return KindUnexpected
	}
}

var messagePaths = []string{"error", "detail", "non_field_errors.0", "email.0", "message"}

// extractMessage picks the server's human-readable text out of an error body.
func extractMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	parsed := gjson.ParseBytes(body)
	if parsed.Type == gjson.String {
		return parsed.String()
	}
	for _, path := range messagePaths {
		if v := parsed.Get(path); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}

	var first string
	parsed.ForEach(func(_, value gjson.Result) bool {
		if v := value.Get("0"); value.IsArray() && v.Type == gjson.String {
			first = v.String()
			return false
		}
		return true
	})
	return first
}

func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func IsUnauthorized(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Status == http.StatusUnauthorized
}

func IsNetwork(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindNetwork
}

func StatusOf(err error) int {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Status
	}
	return 0
}

// ServerMessage returns the text the backend put in its error body, or "".
func ServerMessage(err error) string {
	if apiErr, ok := AsError(err); ok {
		return apiErr.Message
	}
	return ""
}

// UserMessage converts err into the line shown to the user. fallback is used for
// business and authentication failures whose body carried no message.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var verrs *validation.Errors
	if errors.As(err, &verrs) {
		return verrs.First()
	}

	apiErr, ok := AsError(err)
	if !ok {
		if fallback != "" {
			return fallback
		}
		return MsgUnexpected
	}

	switch apiErr.Kind {
	case KindNetwork:
		return MsgNoResponse
	case KindUnexpected:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return MsgUnexpected
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	if fallback != "" {
		return fallback
	}
	return MsgUnexpected
}
