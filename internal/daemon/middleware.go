package daemon

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/gamingear/console/internal/models"
)

// requestCounterMiddleware increments the request counter
func (s *Server) requestCounterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		atomic.AddInt64(&s.TotalRequests, 1)
		c.Next()
	}
}

// trackLocation records page visits as the shell's current location.
func (s *Server) trackLocation() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.Location.Navigate(c.Request.URL.RequestURI())
		c.Next()
	}
}

// requireAuthenticated sends signed out visitors to the unauthenticated
// entry path, remembering where they were headed.
func (s *Server) requireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.Manager.IsAuthenticated() {
			c.Next()
			return
		}

		target := s.Manager.LoginPath(c.Request.URL.RequestURI())

		requestLogger(c).WithFields(logrus.Fields{
			"path":     c.Request.URL.Path,
			"redirect": target,
		}).Debugln("Blocking unauthenticated request")

		s.Location.Navigate(target)
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// requireGuest keeps signed in users away from the sign-in page.
func (s *Server) requireGuest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.Manager.IsAuthenticated() {
			c.Next()
			return
		}

		target := s.Manager.Config().AuthenticatedEntryPath

		s.Location.Navigate(target)
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

func (s *Server) canAcceptHtml(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// getErrorPage writes an error response. Details of internal errors stay
// in the log.
func (s *Server) getErrorPage(c *gin.Context, code int, title string, err ...error) {

	var messages []string
	for _, e := range err {
		if e == nil {
			continue
		}
		requestLogger(c).WithError(e).Errorln(title)
		messages = append(messages, e.Error())
	}

	if len(messages) == 0 {
		requestLogger(c).WithField("code", code).Errorln(title)
	}

	response := models.ErrorResponse{
		Code:  code,
		Title: title,
	}

	if code != http.StatusInternalServerError {
		response.Message = strings.Join(messages, ". ")
	}

	if s.canAcceptHtml(c) {
		c.String(code, "%d %s\n%s", response.Code, response.Title, response.Message)
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(code, response)
}
