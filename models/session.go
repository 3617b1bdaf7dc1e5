package models

// Tokens is the access/refresh pair issued by the backend. Both values are opaque.
type Tokens struct {
	Access  string `json:"access,omitempty"`
	Refresh string `json:"refresh,omitempty"`
}

func (t Tokens) Empty() bool {
	return t.Access == "" && t.Refresh == ""
}

type Session struct {
	Tokens
	User      *User `json:"user,omitempty"`
	TabScoped bool  `json:"temp_session,omitempty"`
}

func (s Session) LoggedOut() bool {
	return s.Tokens.Empty()
}
