package core

import (
	"log"

	"github.com/gin-gonic/gin"
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// respondError sends unified error payload {"error": {"code", "message"}},
// or the error page when the client prefers HTML.
func respondError(c *gin.Context, status int, code, message string) {
	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
		data := pageData(c, "Error")
		data.Status = status
		data.Code = code
		data.Message = message
		c.HTML(status, "error.html", data)
		return
	}
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// addFlash queues a message for the next page and persists the session.
func addFlash(c *gin.Context, cfg Config, f Flash) {
	sess := currentSession(c)
	if sess == nil {
		return
	}
	sess.AddFlash(f)
	applySessionOptions(cfg, sess)
	if err := sess.Save(c.Request, c.Writer); err != nil {
		log.Printf("save flash failed request_id=%s: %v", RequestIDFrom(c.Request.Context()), err)
	}
}

// takeFlashes pops queued messages. Must run before the body is written.
func takeFlashes(c *gin.Context) []Flash {
	sess := currentSession(c)
	if sess == nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	if err := sess.Save(c.Request, c.Writer); err != nil {
		log.Printf("clear flashes failed request_id=%s: %v", RequestIDFrom(c.Request.Context()), err)
	}
	return out
}

// pageData collects what every page template needs.
func pageData(c *gin.Context, title string) PageData {
	site := DefaultSiteConfig()
	if v, ok := c.Get("site"); ok {
		if s, ok := v.(SiteConfig); ok {
			site = s
		}
	}
	return PageData{
		Site:      site,
		Title:     title,
		Flashes:   takeFlashes(c),
		CSRFToken: c.GetString("csrf_token"),
		RequestID: c.GetString("request_id"),
	}
}
