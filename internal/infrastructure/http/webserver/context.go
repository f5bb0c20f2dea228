package webserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/econutri/tracker/internal/infrastructure/session"
	"go.uber.org/zap"
)

// RequestContext carries everything an action needs for one request. It
// replaces ambient session and global state: actions read the session,
// flash and anti-forgery token only through it.
type RequestContext struct {
	Writer     http.ResponseWriter
	Request    *http.Request
	Session    *session.Session
	Logger     *zap.Logger
	RequestID  string
	Controller string
	Action     string
	IsAjax     bool

	sessions *session.Manager
	renderer *Renderer
}

// isAjaxRequest mirrors the X-Requested-With convention of XHR/fetch clients
func isAjaxRequest(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

// Flash stores the status banner shown by the next page render
func (rc *RequestContext) Flash(kind session.FlashKind, text string) {
	rc.Session.SetFlash(session.MessageKey, session.Flash{Kind: kind, Text: text})
}

// commitSession persists session changes; it must run before the header
// is written. A failure only loses the flash, so it is logged.
func (rc *RequestContext) commitSession() {
	if err := rc.sessions.Commit(rc.Request.Context(), rc.Writer, rc.Session); err != nil {
		rc.Logger.Error("Failed to save session", zap.Error(err))
	}
}

// Redirect answers 302 Found after saving the session
func (rc *RequestContext) Redirect(location string) {
	rc.commitSession()
	http.Redirect(rc.Writer, rc.Request, location, http.StatusFound)
}

// Render executes a named view with status
func (rc *RequestContext) Render(status int, name string, data interface{}) {
	rc.commitSession()
	if err := rc.renderer.Render(rc.Writer, status, name, data); err != nil {
		rc.Logger.Error("Failed to render template", zap.String("template", name), zap.Error(err))
		http.Error(rc.Writer, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// JSON writes v as a JSON response
func (rc *RequestContext) JSON(status int, v interface{}) {
	rc.commitSession()
	rc.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	rc.Writer.WriteHeader(status)
	if err := json.NewEncoder(rc.Writer).Encode(v); err != nil {
		rc.Logger.Warn("Failed to write JSON response", zap.Error(err))
	}
}
