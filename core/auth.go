package core

import (
	"errors"
	"strings"
)

// Mode selects which auth form is shown and which endpoint it submits to.
type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

var (
	// ErrInvalidMode is returned for any mode tag other than login/register.
	ErrInvalidMode = errors.New("invalid auth mode")
	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = errors.New("username and password are required")
)

// ParseMode accepts exactly "login" and "register".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeLogin, ModeRegister:
		return Mode(s), nil
	default:
		return "", ErrInvalidMode
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	_, err := ParseMode(string(m))
	return err == nil
}

// Title is the heading and button label, e.g. "Login".
func (m Mode) Title() string {
	if m == "" {
		return ""
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}

// Endpoint is the API path the mode's form submits to.
func (m Mode) Endpoint() string {
	switch m {
	case ModeLogin:
		return "/api/login"
	case ModeRegister:
		return "/api/register"
	default:
		return ""
	}
}

// Credentials are the values of one auth form submission.
// Master is the file encryption passphrase; it is only sent on register.
type Credentials struct {
	Username string
	Password string
	Master   string
}

// Validate only checks that username and password are non-empty.
// The master password may be empty.
func (c Credentials) Validate() error {
	if c.Username == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

type loginRequestBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequestBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Master   string `json:"master"`
}

// RequestBody builds the JSON payload for mode. Login never carries master;
// register always does, even when empty.
func (c Credentials) RequestBody(mode Mode) (any, error) {
	switch mode {
	case ModeLogin:
		return loginRequestBody{Username: c.Username, Password: c.Password}, nil
	case ModeRegister:
		return registerRequestBody{Username: c.Username, Password: c.Password, Master: c.Master}, nil
	default:
		return nil, ErrInvalidMode
	}
}
