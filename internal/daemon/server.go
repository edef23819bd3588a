// Package daemon hosts the console shell: a small HTTP surface over the
// session manager that forms and catalog views talk to.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/gamingear/console/internal/common"
	"github.com/gamingear/console/internal/config"
	"github.com/gamingear/console/internal/models"
	"github.com/gamingear/console/internal/sessions"
)

func NewServer(cfg *config.Config, manager *sessions.Manager) *Server {

	location := NewLocation(manager.Config().UnauthenticatedEntryPath)

	manager.SetNavigator(location.Navigate)
	manager.SetLocation(location.Current)

	server := &Server{
		Config:    cfg,
		Manager:   manager,
		Location:  location,
		StartTime: time.Now().UTC(),
		catalog:   manager.Authorized(),
	}

	if limits := cfg.Server.Limits; limits.AuthRate > 0 {
		server.limiter = NewRateLimiter(rate.Limit(limits.AuthRate), max(limits.AuthBurst, 1))
	}

	return server
}

// Server represents the console shell
type Server struct {
	Config        *config.Config
	Manager       *sessions.Manager
	Location      *Location
	StartTime     time.Time
	TotalRequests int64

	catalog *resty.Client
	limiter *RateLimiter
	server  *http.Server
}

func (s *Server) GetVersion() string {
	return common.GetVersion()
}

// Router builds the gin engine with all middleware and routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(correlationMiddleware())
	router.Use(gin.CustomRecovery(
		func(c *gin.Context, recovered any) {
			requestLogger(c).WithFields(logrus.Fields{
				"panic": recovered,
				"path":  c.Request.URL.Path,
			}).Errorln("Recovered from panic")

			s.getErrorPage(c, http.StatusInternalServerError, "Internal Server Error")
		},
	))
	router.Use(s.requestCounterMiddleware())

	corsConfig := s.Config.Server.CORS

	logrus.WithFields(logrus.Fields{
		"allowedOrigins": corsConfig.AllowedOrigins,
	}).Debugln("CORS configuration")

	if len(corsConfig.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     corsConfig.AllowedOrigins,
			AllowMethods:     corsConfig.AllowedMethods,
			AllowHeaders:     append([]string{"Origin", "Content-Length", "Accept"}, corsConfig.AllowedHeaders...),
			AllowWildcard:    true,
			AllowCredentials: false,
			MaxAge:           time.Duration(corsConfig.MaxAge) * time.Second,
		}))
	}

	s.setupRoutes(router)

	return router
}

// Start initializes and starts the web service
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	addr := s.Config.GetServerAddress()

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  s.Config.Server.Limits.ReadTimeout,
		WriteTimeout: s.Config.Server.Limits.WriteTimeout,
		IdleTimeout:  s.Config.Server.Limits.IdleTimeout,
	}

	s.server = server

	errChan := make(chan error, 1)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait a moment to see if the server fails to start
	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start server: %w", err)
	case <-time.After(100 * time.Millisecond):
		logrus.WithFields(logrus.Fields{
			"address": addr,
			"api":     s.Config.GetAPIBaseURL(),
		}).Infoln("Console shell started")
		return nil
	}
}

func (s *Server) Stop() {
	if s.limiter != nil {
		s.limiter.Stop()
	}

	if s.server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Errorln("Server shutdown failed")
	}

	logrus.Infoln("Console shell stopped")
}

// setupRoutes configures all the HTTP routes
func (s *Server) setupRoutes(router *gin.Engine) {

	if s.Config.Server.Health.Enabled {
		router.GET(s.Config.Server.Health.Path, s.healthHandler)
	}

	router.GET("/logs", s.getLogs)

	sessionConfig := s.Manager.Config()

	// Entry pages
	router.GET(sessionConfig.UnauthenticatedEntryPath, s.requireGuest(), s.trackLocation(), s.getSignInPage)
	router.GET(sessionConfig.AuthenticatedEntryPath, s.requireAuthenticated(), s.trackLocation(), s.getHomePage)

	auth := router.Group("/auth")
	if s.limiter != nil {
		auth.Use(s.limiter.Middleware())
	}
	{
		auth.GET("/session", s.getSession)
		auth.POST("/sign-in", s.postSignIn)
		auth.POST("/sign-up", s.postSignUp)
		auth.POST("/sign-out", s.postSignOut)
		auth.POST("/forgot-password", s.postForgotPassword)
		auth.POST("/reset-password", s.postResetPassword)
		auth.GET("/oauth/callback", s.getOAuthCallback)
	}

	catalog := router.Group("/catalog", s.requireAuthenticated())
	{
		catalog.Any("/*path", s.proxyCatalog)
	}
}

// healthHandler handles the health check endpoint
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:           models.HealthStatusHealthy,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		Version:          s.GetVersion(),
		Uptime:           time.Since(s.StartTime).Round(time.Second).String(),
		TotalRequests:    atomic.LoadInt64(&s.TotalRequests),
		Authenticated:    s.Manager.IsAuthenticated(),
		RefreshScheduled: s.Manager.RefreshRunning(),
		APIBaseURL:       s.Config.GetAPIBaseURL(),
	})
}
