package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func bodyKeys(t *testing.T, v any) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

func TestLoginBodyNeverCarriesMaster(t *testing.T) {
	creds := Credentials{Username: "alice", Password: "hunter22", Master: "vault-pass"}
	body, err := creds.RequestBody(ModeLogin)
	if err != nil {
		t.Fatalf("RequestBody: %v", err)
	}
	m := bodyKeys(t, body)
	if len(m) != 2 || m["username"] != "alice" || m["password"] != "hunter22" {
		t.Fatalf("unexpected login body: %v", m)
	}
	if _, ok := m["master"]; ok {
		t.Fatalf("login body must not contain master: %v", m)
	}
}

func TestRegisterBodyAlwaysCarriesMaster(t *testing.T) {
	for _, master := range []string{"vault-pass", ""} {
		creds := Credentials{Username: "alice", Password: "hunter22", Master: master}
		body, err := creds.RequestBody(ModeRegister)
		if err != nil {
			t.Fatalf("RequestBody: %v", err)
		}
		m := bodyKeys(t, body)
		if len(m) != 3 {
			t.Fatalf("expected 3 keys, got %v", m)
		}
		got, ok := m["master"]
		if !ok || got != master {
			t.Fatalf("master = %v (present=%v), want %q", got, ok, master)
		}
	}
}

func TestRequestBodyRejectsUnknownMode(t *testing.T) {
	if _, err := (Credentials{}).RequestBody(Mode("settings")); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]bool{"login": true, "register": true, "": false, "Login": false, "logout": false}
	for in, ok := range cases {
		m, err := ParseMode(in)
		if ok && (err != nil || string(m) != in) {
			t.Fatalf("ParseMode(%q) = %q, %v", in, m, err)
		}
		if !ok && !errors.Is(err, ErrInvalidMode) {
			t.Fatalf("ParseMode(%q) expected ErrInvalidMode, got %v", in, err)
		}
	}
}

func TestModeTitleAndEndpoint(t *testing.T) {
	if ModeLogin.Title() != "Login" || ModeRegister.Title() != "Register" {
		t.Fatalf("titles: %q %q", ModeLogin.Title(), ModeRegister.Title())
	}
	if ModeLogin.Endpoint() != "/api/login" || ModeRegister.Endpoint() != "/api/register" {
		t.Fatalf("endpoints: %q %q", ModeLogin.Endpoint(), ModeRegister.Endpoint())
	}
	if Mode("x").Endpoint() != "" {
		t.Fatalf("unknown mode must have no endpoint")
	}
}

func TestCredentialsValidate(t *testing.T) {
	if err := (Credentials{Username: "a", Password: "b"}).Validate(); err != nil {
		t.Fatalf("empty master must be accepted: %v", err)
	}
	for _, c := range []Credentials{{Password: "b"}, {Username: "a"}, {Master: "m"}} {
		if err := c.Validate(); !errors.Is(err, ErrMissingCredentials) {
			t.Fatalf("Validate(%+v) = %v", c, err)
		}
	}
}
