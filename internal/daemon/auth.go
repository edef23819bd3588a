package daemon

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/gamingear/console/internal/api"
	"github.com/gamingear/console/internal/models"
	"github.com/gamingear/console/internal/sessions"
)

func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, models.SessionResponse{
		SessionState: s.Manager.State(),
		Location:     s.Location.Current(),
	})
}

func (s *Server) postSignIn(c *gin.Context) {
	var credential models.SignInCredential
	if err := c.ShouldBindJSON(&credential); err != nil {
		s.badRequest(c, err)
		return
	}

	s.rememberRedirect(c)

	err := s.Manager.SignIn(c.Request.Context(), credential)
	s.respondAuth(c, err)
}

func (s *Server) postSignUp(c *gin.Context) {
	var credential models.SignUpCredential
	if err := c.ShouldBindJSON(&credential); err != nil {
		s.badRequest(c, err)
		return
	}

	s.rememberRedirect(c)

	err := s.Manager.SignUp(c.Request.Context(), credential)
	s.respondAuth(c, err)
}

func (s *Server) postSignOut(c *gin.Context) {
	s.Manager.SignOut(c.Request.Context())
	s.respondAuth(c, nil)
}

func (s *Server) postForgotPassword(c *gin.Context) {
	var request models.ForgotPassword
	if err := c.ShouldBindJSON(&request); err != nil {
		s.badRequest(c, err)
		return
	}

	err := s.Manager.ForgotPassword(c.Request.Context(), request)
	c.JSON(authStatus(err), models.NewAuthResult(err))
}

func (s *Server) postResetPassword(c *gin.Context) {
	var request models.ResetPassword
	if err := c.ShouldBindJSON(&request); err != nil {
		s.badRequest(c, err)
		return
	}

	// reset links carry the token in the query string
	if len(request.Token) == 0 {
		request.Token = c.Query("token")
	}

	err := s.Manager.ResetPassword(c.Request.Context(), request)

	result := models.NewAuthResult(err)
	if err == nil {
		result.Redirect = s.Manager.Config().UnauthenticatedEntryPath
	}
	c.JSON(authStatus(err), result)
}

// getOAuthCallback completes a sign-in started with an external OAuth
// provider, which hands the issued token back as query parameters.
func (s *Server) getOAuthCallback(c *gin.Context) {
	token := models.Token{
		AccessToken:  c.Query("token"),
		RefreshToken: c.Query("refreshToken"),
	}

	if len(token.AccessToken) == 0 {
		s.getErrorPage(c, http.StatusBadRequest, "OAuth sign in failed", errors.New("missing token parameter"))
		return
	}

	if expiresIn, err := strconv.ParseInt(c.Query("expiresIn"), 10, 64); err == nil && expiresIn > 0 {
		expiresAt := time.Now().Add(time.Duration(expiresIn) * time.Second).UTC()
		token.ExpiresAt = &expiresAt
	}

	wasAuthenticated := s.Manager.IsAuthenticated()

	var signInErr error
	s.Manager.OAuthSignIn(func(payload sessions.OAuthCallbackPayload) {
		signInErr = payload.OnSignIn(token, nil)
		if signInErr == nil && wasAuthenticated {
			payload.Redirect()
		}
	})

	if signInErr != nil {
		s.getErrorPage(c, authStatus(signInErr), "OAuth sign in failed", signInErr)
		return
	}

	c.Redirect(http.StatusFound, s.Location.Current())
}

// rememberRedirect lets a form post carry the page to return to, the way a
// browser would carry it in the sign-in page URL.
func (s *Server) rememberRedirect(c *gin.Context) {
	key := s.Manager.Config().RedirectQueryKey
	if target := c.Query(key); len(target) > 0 {
		s.Location.Navigate(s.Manager.LoginPath(target))
	}
}

func (s *Server) respondAuth(c *gin.Context, err error) {
	result := models.NewAuthResult(err)
	if err == nil {
		result.Redirect = s.Location.Current()
	}
	c.JSON(authStatus(err), result)
}

func (s *Server) badRequest(c *gin.Context, err error) {
	logrus.WithError(err).Debugln("Rejected malformed form submission")
	c.JSON(http.StatusBadRequest, models.AuthResult{
		Status:  models.AuthStatusFailed,
		Message: "Invalid request: " + err.Error(),
	})
}

// authStatus maps an authentication failure onto the shell's response code.
// Client errors from the remote API pass through; everything else from it
// is a bad gateway.
func authStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if errors.Is(err, sessions.ErrSessionChanged) {
		return http.StatusConflict
	}

	if apiErr, ok := api.AsError(err); ok {
		if apiErr.Kind == api.KindRejectedByServer &&
			apiErr.StatusCode >= http.StatusBadRequest &&
			apiErr.StatusCode < http.StatusInternalServerError {
			return apiErr.StatusCode
		}
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}
