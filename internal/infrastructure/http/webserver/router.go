package webserver

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"

	"github.com/econutri/tracker/internal/infrastructure/http/middleware"
	"github.com/econutri/tracker/internal/infrastructure/monitoring"
	"github.com/econutri/tracker/internal/infrastructure/session"
	"github.com/econutri/tracker/pkg/errors"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	// DefaultController handles paths without a usable controller segment
	DefaultController = "receta"
	// DefaultAction handles paths without a usable action segment
	DefaultAction = "index"
)

const (
	msgPageNotFound  = "Página no encontrada."
	msgInternalError = "Error interno del servidor."
)

var segmentPattern = regexp.MustCompile(`^[a-zA-Z]+$`)

// Action handles one controller action
type Action func(rc *RequestContext)

// RouteTable maps controller name to action name to handler. Names are
// lower case.
type RouteTable map[string]map[string]Action

// Lookup returns the action registered for controller and action
func (t RouteTable) Lookup(controller, action string) (Action, bool) {
	actions, ok := t[controller]
	if !ok {
		return nil, false
	}
	fn, ok := actions[action]
	return fn, ok
}

// ParseRoute splits a request path into controller and action names.
// Segments are lower-cased; a missing or non-alphabetic segment falls back
// to the default. Segments after the action are ignored.
func ParseRoute(path string) (controller, action string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	controller = DefaultController
	if len(parts) > 0 && segmentPattern.MatchString(parts[0]) {
		controller = strings.ToLower(parts[0])
	}

	action = DefaultAction
	if len(parts) > 1 && segmentPattern.MatchString(parts[1]) {
		action = strings.ToLower(parts[1])
	}

	return controller, action
}

// Dispatcher is the front controller: it resolves the route, binds the
// session and runs the action
type Dispatcher struct {
	routes   RouteTable
	sessions *session.Manager
	renderer *Renderer
	metrics  *monitoring.MetricsCollector
	logger   *zap.Logger
}

// NewDispatcher creates a front controller over routes
func NewDispatcher(routes RouteTable, sessions *session.Manager, renderer *Renderer, metrics *monitoring.MetricsCollector, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		routes:   routes,
		sessions: sessions,
		renderer: renderer,
		metrics:  metrics,
		logger:   logger.Named("dispatcher"),
	}
}

type errorView struct {
	Title   string
	Status  int
	Message string
}

// ServeHTTP implements http.Handler
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	controller, action := ParseRoute(r.URL.Path)
	ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
	defer func() {
		if d.metrics != nil {
			d.metrics.ActionDispatched(controller, action, statusOf(ww))
		}
	}()

	requestID := middleware.GetRequestID(r.Context())
	log := d.logger.With(
		zap.String("request_id", requestID),
		zap.String("controller", controller),
		zap.String("action", action),
	)

	fn, ok := d.routes.Lookup(controller, action)
	if !ok {
		log.Debug("No route for request", zap.String("path", r.URL.Path))
		d.renderError(ww, log, errors.NewNotFoundError("route"), msgPageNotFound)
		return
	}

	sess, err := d.sessions.Load(r)
	if err != nil {
		appErr := errors.NewInternalError("session unavailable").WithCause(err)
		log.Error("Failed to start session", zap.Error(appErr))
		d.renderError(ww, log, appErr, msgInternalError)
		return
	}

	rc := &RequestContext{
		Writer:     ww,
		Request:    r,
		Session:    sess,
		Logger:     log,
		RequestID:  requestID,
		Controller: controller,
		Action:     action,
		IsAjax:     isAjaxRequest(r),
		sessions:   d.sessions,
		renderer:   d.renderer,
	}

	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.Error("Action panicked",
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			if ww.Status() == 0 {
				d.renderError(ww, log, errors.NewInternalError("action panicked"), msgInternalError)
			}
		}
	}()

	fn(rc)
}

// renderError shows message on the error page; appErr decides the status
func (d *Dispatcher) renderError(w http.ResponseWriter, log *zap.Logger, appErr *errors.AppError, message string) {
	status := appErr.StatusCode()
	view := errorView{
		Title:   http.StatusText(status),
		Status:  status,
		Message: message,
	}
	if err := d.renderer.Render(w, status, "error", view); err != nil {
		log.Error("Failed to render error page", zap.Error(err))
		http.Error(w, message, status)
	}
}

func statusOf(ww chimw.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
