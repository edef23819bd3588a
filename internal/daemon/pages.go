package daemon

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gamingear/console/internal/config"
	"github.com/gamingear/console/internal/models"
)

func (s *Server) getSignInPage(c *gin.Context) {
	key := s.Manager.Config().RedirectQueryKey

	c.JSON(http.StatusOK, models.PageResponse{
		Page:     "sign-in",
		Path:     c.Request.URL.Path,
		Redirect: c.Query(key),
	})
}

func (s *Server) getHomePage(c *gin.Context) {
	state := s.Manager.State()

	c.JSON(http.StatusOK, models.PageResponse{
		Page:          "home",
		Path:          c.Request.URL.Path,
		Authenticated: state.Authenticated,
		User:          state.User,
	})
}

// getLogs serves recent log entries. Supports level (repeatable), since
// (RFC3339) and limit query parameters.
func (s *Server) getLogs(c *gin.Context) {
	logger := s.Config.GetLogger()
	if logger == nil {
		c.JSON(http.StatusOK, []*models.LogEntry{})
		return
	}

	filter := config.LogFilter{}

	for _, level := range c.QueryArray("level") {
		filter.Levels = append(filter.Levels, strings.Split(level, ",")...)
	}

	if since := c.Query("since"); len(since) > 0 {
		parsed, err := time.Parse(time.RFC3339, since)
		if err != nil {
			s.getErrorPage(c, http.StatusBadRequest, "Invalid since parameter", err)
			return
		}
		filter.Since = &parsed
	}

	if limit := c.Query("limit"); len(limit) > 0 {
		parsed, err := strconv.Atoi(limit)
		if err != nil || parsed < 0 {
			s.getErrorPage(c, http.StatusBadRequest, "Invalid limit parameter", err)
			return
		}
		filter.Limit = parsed
	}

	events := logger.GetEventsWithFilter(filter)
	if events == nil {
		events = []*models.LogEntry{}
	}

	c.JSON(http.StatusOK, events)
}
