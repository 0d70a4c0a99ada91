package core

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// CurrentUser is the profile parameter meaning "whoever is logged in".
const CurrentUser = "me"

// Gate messages shown instead of the wrapped view.
const (
	LoadingMessage   = "loading..."
	ForbiddenMessage = "forbidden"
	GateErrorMessage = "Could not reach the upfi server. Please try again later."
)

// PageData is the root value of every page template.
type PageData struct {
	Site      SiteConfig
	Title     string
	Flashes   []Flash
	CSRFToken string
	RequestID string

	Auth  *AuthView
	Gated *GatedContent

	Status  int
	Code    string
	Message string
}

// AuthView is the login/register form.
type AuthView struct {
	Mode   Mode
	Title  string
	Action string
}

// NewAuthView returns false for any mode other than login/register; the
// caller then renders nothing.
func NewAuthView(mode string) (AuthView, bool) {
	m, err := ParseMode(mode)
	if err != nil {
		return AuthView{}, false
	}
	return AuthView{Mode: m, Title: m.Title(), Action: "/auth/" + string(m)}, true
}

// ProfileView is the child of the auth gate on /profile/.
type ProfileView struct {
	User    string
	Self    bool
	Account *Account
}

// NewProfileView parameterizes the profile by user; "" or "me" is the current user.
func NewProfileView(user string, acct *Account) ProfileView {
	if user == "" || user == CurrentUser {
		return ProfileView{User: CurrentUser, Self: true, Account: acct}
	}
	return ProfileView{User: user, Account: acct}
}

// DisplayName resolves "me" to the account name once it is known.
func (p ProfileView) DisplayName() string {
	if p.Self && p.Account != nil && p.Account.Username != "" {
		return p.Account.Username
	}
	return p.User
}

// GatedContent is what the auth gate produced for one render.
type GatedContent struct {
	State   string
	Body    template.HTML
	Message string
}

// Views owns the parsed page templates.
type Views struct {
	tmpl *template.Template
}

func NewViews() (*Views, error) {
	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Views{tmpl: tmpl}, nil
}

// Templates is handed to gin.Engine.SetHTMLTemplate.
func (v *Views) Templates() *template.Template { return v.tmpl }

// RenderGate renders the child template only when the gate is authenticated;
// every other state yields its fixed message.
func (v *Views) RenderGate(state AuthState, child string, data any) (GatedContent, error) {
	out := GatedContent{State: state.String()}
	switch state {
	case AuthAuthenticated:
		var buf bytes.Buffer
		if err := v.tmpl.ExecuteTemplate(&buf, child, data); err != nil {
			return GatedContent{}, fmt.Errorf("render %s: %w", child, err)
		}
		out.Body = template.HTML(buf.String())
	case AuthUnauthenticated:
		out.Message = ForbiddenMessage
	case AuthError:
		out.Message = GateErrorMessage
	default:
		out.Message = LoadingMessage
	}
	return out, nil
}
