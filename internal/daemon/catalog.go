package daemon

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// proxyCatalog forwards catalog requests to the remote API with the
// session's bearer token. A 401 from the API signs the session out through
// the authorized client.
func (s *Server) proxyCatalog(c *gin.Context) {
	path := c.Param("path")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		s.getErrorPage(c, http.StatusBadRequest, "Unable to read request body", err)
		return
	}

	request := s.catalog.R().
		SetContext(c.Request.Context()).
		SetQueryParamsFromValues(c.Request.URL.Query()).
		SetHeader(correlationHeader, correlationID(c))

	if len(body) > 0 {
		request.SetBody(body)
		if contentType := c.GetHeader("Content-Type"); len(contentType) > 0 {
			request.SetHeader("Content-Type", contentType)
		}
	}

	resp, err := request.Execute(c.Request.Method, path)
	if err != nil {
		s.getErrorPage(c, http.StatusBadGateway, "Catalog request failed", err)
		return
	}

	requestLogger(c).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   path,
		"status": resp.StatusCode(),
	}).Debugln("Proxied catalog request")

	c.Data(resp.StatusCode(), resp.Header().Get("Content-Type"), resp.Body())
}
