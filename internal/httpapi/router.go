// Package httpapi is the kiosk's local HTTP surface. UI shells and operators
// drive every view through it: the public intake form, the staff console,
// the display board snapshot, and the admin panel, plus health and metrics
// endpoints for fleet monitoring.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/admitq/queue-kiosk/internal/admin"
	"github.com/admitq/queue-kiosk/internal/api"
	"github.com/admitq/queue-kiosk/internal/applicant"
	"github.com/admitq/queue-kiosk/internal/console"
	"github.com/admitq/queue-kiosk/internal/display"
	"github.com/admitq/queue-kiosk/internal/events"
	"github.com/admitq/queue-kiosk/internal/observability"
	"github.com/admitq/queue-kiosk/internal/session"
)

// LoginFunc is the login slice of the API client.
type LoginFunc func(ctx context.Context, creds api.Credentials) (api.TokenResponse, error)

// RegisterFunc is the account-creation slice of the API client.
type RegisterFunc func(ctx context.Context, req api.RegisterRequest) (api.Employee, error)

// Deps wires the views into the router. Nil components simply do not get
// routes; a display-only kiosk carries no console endpoints.
type Deps struct {
	Mode      string
	Bus       *events.Bus
	Session   *session.Manager
	Auth      LoginFunc
	Register  RegisterFunc
	Console   *console.Console
	Board     *display.Board
	Applicant *applicant.Service
	Admin     *admin.Panel

	ReadyChecks map[string]observability.HealthCheckFunc
	Metrics     bool
	Log         zerolog.Logger
}

// NewRouter builds the gin engine.
func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Log))

	r.GET("/healthz", gin.WrapF(observability.HealthCheckHandler()))
	r.GET("/ready", gin.WrapF(observability.ReadinessHandler(deps.ReadyChecks)))
	if deps.Metrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	h := &handlers{deps: deps}
	r.GET("/status", h.kioskStatus)
	if deps.Bus != nil {
		r.POST("/refresh", h.refreshAll)
	}

	v1 := r.Group("/v1")

	if deps.Session != nil {
		v1.GET("/session", h.sessionInfo)
		v1.PUT("/session/language", h.setLanguage)
		if deps.Auth != nil {
			v1.POST("/session/login", h.login)
			v1.POST("/session/logout", h.logout)
		}
		if deps.Register != nil {
			v1.POST("/session/register", h.register)
		}
	}

	if deps.Applicant != nil {
		v1.POST("/queue", h.joinQueue)
		v1.GET("/queue/count", h.queueCount)
		v1.GET("/queue/check", h.checkQueue)
		v1.GET("/queue/ticket", h.savedTicket)
		v1.DELETE("/queue/:id", h.cancelQueue)
		v1.POST("/queue/:id/move-back", h.moveBack)
	}

	if deps.Console != nil {
		v1.GET("/console", h.consoleStatus)
		v1.POST("/console/start", h.consoleAction(deps.Console.StartWork))
		v1.POST("/console/pause", h.consoleAction(deps.Console.Pause))
		v1.POST("/console/resume", h.consoleAction(deps.Console.Resume))
		v1.POST("/console/complete", h.consoleAction(deps.Console.Complete))
		v1.POST("/console/finish", h.consoleAction(deps.Console.Finish))
		v1.POST("/console/call-next", h.callNext)
		v1.POST("/console/process-next", h.processNext)
		v1.GET("/console/queue", h.consoleQueue)
		v1.PUT("/console/queue/filters", h.setConsoleFilters)
	}

	if deps.Board != nil {
		v1.GET("/display", h.displaySnapshot)
		v1.POST("/display/refresh", h.displayRefresh)
	}

	if deps.Admin != nil {
		v1.GET("/admin/queue", h.adminQueue)
		v1.PUT("/admin/queue/filters", h.setFilters)
		v1.PATCH("/admin/queue/:id", h.updateEntry)
		v1.DELETE("/admin/queue/:id", h.deleteEntry)
		v1.GET("/admin/queue/export", h.exportQueue)
		v1.GET("/admin/employees", h.listEmployees)
		v1.POST("/admin/employees", h.createEmployee)
		v1.PATCH("/admin/employees/:id", h.updateEmployee)
		v1.DELETE("/admin/employees/:id", h.deleteEmployee)
		v1.GET("/admin/video", h.videoSettings)
		v1.PUT("/admin/video", h.updateVideo)
		v1.GET("/admin/sheets", h.sheetLink)
		v1.PUT("/admin/sheets", h.saveSheetID)
	}

	return r
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	}
}

// Server wraps the engine with the timeouts a long-lived kiosk needs.
func Server(addr string, r *gin.Engine) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
