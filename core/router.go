package core

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// statusRecentEntries is how many response log entries /status shows.
const statusRecentEntries = 20

// Deps are the collaborators the router needs besides Config.
type Deps struct {
	Store     *sessions.CookieStore
	API       APIClient
	Responses ResponseLog
	Views     *Views
	Site      SiteConfig
}

// NewRouter constructs the Gin engine with routes wired.
func NewRouter(cfg Config, deps Deps) *gin.Engine {
	startedAt := time.Now()
	r := gin.Default()
	r.SetHTMLTemplate(deps.Views.Templates())

	// Global middleware: request id -> origin -> session -> CSRF
	r.Use(RequestIDMiddleware())
	r.Use(func(c *gin.Context) {
		c.Set("site", deps.Site)
		c.Next()
	})
	r.Use(OriginRefererMiddleware(cfg))
	r.Use(SessionMiddleware(cfg, deps.Store))
	r.Use(CSRFMiddleware(cfg, deps.Store))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/status", OperatorOnly(cfg), func(c *gin.Context) {
		n := statusRecentEntries
		if v, err := strconv.Atoi(c.Query("recent")); err == nil && v >= 0 && v <= 200 {
			n = v
		}
		st, err := CollectSystemStatus(c.Request.Context(), cfg.APIBaseURL, deps.Responses, n, startedAt)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to collect status")
			return
		}
		c.JSON(http.StatusOK, st)
	})

	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "home.html", pageData(c, ""))
	})

	for _, mode := range []Mode{ModeLogin, ModeRegister} {
		mode := mode
		r.GET("/auth/"+string(mode), func(c *gin.Context) {
			renderAuth(c, string(mode))
		})
		r.POST("/auth/"+string(mode), submitAuth(cfg, deps, mode))
	}

	r.GET("/profile/", showProfile(cfg, deps))
	r.GET("/profile/:user", showProfile(cfg, deps))

	r.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, "notfound.html", pageData(c, "Not found"))
	})

	return r
}

// renderAuth shows the form for mode; an unknown mode produces an empty response.
func renderAuth(c *gin.Context, mode string) {
	view, ok := NewAuthView(mode)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	data := pageData(c, view.Title)
	data.Auth = &view
	c.HTML(http.StatusOK, "auth.html", data)
}

// submitAuth posts the form to the API, records the answer and redirects
// with a flash describing the outcome.
func submitAuth(cfg Config, deps Deps, mode Mode) gin.HandlerFunc {
	formPath := "/auth/" + string(mode)
	return func(c *gin.Context) {
		creds := Credentials{
			Username: c.PostForm("username"),
			Password: c.PostForm("password"),
			Master:   c.PostForm("master"),
		}
		if err := creds.Validate(); err != nil {
			addFlash(c, cfg, Flash{Kind: FlashError, Message: "Username and password are required."})
			c.Redirect(http.StatusSeeOther, formPath)
			return
		}

		ctx := c.Request.Context()
		resp, err := deps.API.Submit(ctx, mode, creds)
		outcome := ClassifyAPIError(err)

		entry := ResponseEntry{
			RequestID: RequestIDFrom(ctx),
			Endpoint:  mode.Endpoint(),
			Username:  creds.Username,
			Outcome:   outcome,
			At:        time.Now(),
		}
		if resp != nil {
			entry.StatusCode = resp.StatusCode
			entry.Body = resp.Body
		}
		if err != nil {
			entry.Error = err.Error()
		}
		if recErr := deps.Responses.Record(ctx, entry); recErr != nil {
			log.Printf("record response failed request_id=%s: %v", entry.RequestID, recErr)
		}
		log.Printf("auth %s user=%s outcome=%s status=%d request_id=%s body=%s",
			mode, creds.Username, outcome, entry.StatusCode, entry.RequestID, string(entry.Body))

		// The API's token cookie is passed through untouched.
		if resp != nil {
			for _, sc := range resp.SetCookies {
				c.Writer.Header().Add("Set-Cookie", sc)
			}
		}

		flash, next := authOutcome(mode, creds.Username, err)
		addFlash(c, cfg, flash)
		if next == "" {
			next = formPath
		}
		c.Redirect(http.StatusSeeOther, next)
	}
}

// authOutcome picks the user-visible message and redirect target. An empty
// target means back to the form.
func authOutcome(mode Mode, username string, err error) (Flash, string) {
	switch ClassifyAPIError(err) {
	case OutcomeOK:
		if mode == ModeRegister {
			return Flash{Kind: FlashSuccess, Message: fmt.Sprintf("Account %s created. You can now log in.", username)}, "/auth/login"
		}
		return Flash{Kind: FlashSuccess, Message: fmt.Sprintf("Logged in as %s.", username)}, "/profile/"
	case OutcomeRejected:
		var apiErr *APIError
		errors.As(err, &apiErr)
		reason := apiErr.Description
		if reason == "" {
			reason = apiErr.Message
		}
		return Flash{Kind: FlashError, Message: fmt.Sprintf("%s failed: %s", mode.Title(), reason)}, ""
	default:
		return Flash{Kind: FlashError, Message: GateErrorMessage}, ""
	}
}

// showProfile wraps the profile view in the auth gate. Without a :user
// parameter the profile is the current user's.
func showProfile(cfg Config, deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.Param("user")
		gate := NewGate()
		state := gate.Resolve(c.Request.Context(), deps.API, forwardedCookies(c, cfg.TokenCookie))

		view := NewProfileView(user, gate.Account())
		gated, err := deps.Views.RenderGate(state, "profile-content", view)
		if err != nil {
			log.Printf("render profile failed request_id=%s: %v", RequestIDFrom(c.Request.Context()), err)
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to render profile")
			return
		}

		data := pageData(c, "Profile")
		data.Gated = &gated
		c.HTML(state.StatusCode(), "profile.html", data)
	}
}

// forwardedCookies returns only the API's token cookie from the browser request.
func forwardedCookies(c *gin.Context, name string) []*http.Cookie {
	if name == "" {
		return nil
	}
	ck, err := c.Request.Cookie(name)
	if err != nil {
		return nil
	}
	return []*http.Cookie{{Name: ck.Name, Value: ck.Value}}
}
