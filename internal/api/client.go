package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gamingear/console/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	HeaderClientID  = "X-Client-Id"
	HeaderRequestID = "X-Request-Id"
)

type RefreshTransport string

const (
	RefreshViaQuery  RefreshTransport = "query"
	RefreshViaHeader RefreshTransport = "header"
)

// Endpoints are resolved against the base URL unless absolute.
type Endpoints struct {
	SignIn         string
	SignUp         string
	SignOut        string
	ForgotPassword string
	ResetPassword  string
	RefreshToken   string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		SignIn:         "/sign-in",
		SignUp:         "/sign-up",
		SignOut:        "/sign-out",
		ForgotPassword: "/forgot-password",
		ResetPassword:  "/reset-password",
		RefreshToken:   "/refresh-token",
	}
}

type Options struct {
	BaseURL          string
	Timeout          time.Duration
	Endpoints        Endpoints
	RefreshParam     string
	RefreshTransport RefreshTransport
	ClientID         string
	UserAgent        string
}

// Client talks to the remote authentication API.
type Client struct {
	rest    *resty.Client
	options Options
}

func NewClient(opts Options) *Client {
	if len(opts.RefreshParam) == 0 {
		opts.RefreshParam = "refreshToken"
	}
	if len(opts.RefreshTransport) == 0 {
		opts.RefreshTransport = RefreshViaQuery
	}

	return &Client{
		rest:    newRestClient(opts),
		options: opts,
	}
}

func newRestClient(opts Options) *resty.Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json")

	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	if len(opts.ClientID) > 0 {
		client.SetHeader(HeaderClientID, opts.ClientID)
	}

	if len(opts.UserAgent) > 0 {
		client.SetHeader("User-Agent", opts.UserAgent)
	}

	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader(HeaderRequestID, uuid.NewString())
		return nil
	})

	return client
}

func (c *Client) BaseURL() string {
	return c.rest.BaseURL
}

func (c *Client) SignIn(ctx context.Context, credential models.SignInCredential) (*models.TokenResponse, error) {
	return c.postForToken(ctx, "sign-in", c.options.Endpoints.SignIn, credential)
}

func (c *Client) SignUp(ctx context.Context, credential models.SignUpCredential) (*models.TokenResponse, error) {
	return c.postForToken(ctx, "sign-up", c.options.Endpoints.SignUp, credential)
}

func (c *Client) SignOut(ctx context.Context, token string) error {
	req := c.rest.R().
		SetContext(ctx).
		SetError(&models.MessageResponse{})

	if len(token) > 0 {
		req.SetAuthToken(token)
	}

	resp, err := req.Post(c.options.Endpoints.SignOut)

	logrus.WithFields(logrus.Fields{
		"url": c.options.Endpoints.SignOut,
	}).Debugln("Sent sign-out notification")

	return classify("sign-out", resp, err)
}

// RefreshToken exchanges the refresh credential for a new access token.
// The credential travels as a query parameter or header depending on the
// configured transport.
func (c *Client) RefreshToken(ctx context.Context, credential string) (*models.TokenResponse, error) {
	var result models.TokenResponse

	req := c.rest.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&models.MessageResponse{})

	if len(credential) > 0 {
		switch c.options.RefreshTransport {
		case RefreshViaHeader:
			req.SetHeader(c.options.RefreshParam, credential)
		default:
			req.SetQueryParam(c.options.RefreshParam, credential)
		}
	}

	resp, err := req.Get(c.options.Endpoints.RefreshToken)

	logrus.WithFields(logrus.Fields{
		"url":       c.options.Endpoints.RefreshToken,
		"transport": c.options.RefreshTransport,
	}).Debugln("Sent refresh token request")

	if err := classify("refresh-token", resp, err); err != nil {
		return nil, err
	}

	if len(result.Token) == 0 {
		return nil, NewMalformedResponse("refresh-token", "Unable to refresh token")
	}

	return &result, nil
}

func (c *Client) ForgotPassword(ctx context.Context, request models.ForgotPassword) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(request).
		SetError(&models.MessageResponse{}).
		Post(c.options.Endpoints.ForgotPassword)

	return classify("forgot-password", resp, err)
}

func (c *Client) ResetPassword(ctx context.Context, request models.ResetPassword) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(request).
		SetError(&models.MessageResponse{}).
		Post(c.options.Endpoints.ResetPassword)

	return classify("reset-password", resp, err)
}

// postForToken returns the decoded body even when it lacks a token; the
// caller decides which message a missing token maps to.
func (c *Client) postForToken(ctx context.Context, operation string, endpoint string, body any) (*models.TokenResponse, error) {
	var result models.TokenResponse

	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&models.MessageResponse{}).
		Post(endpoint)

	logrus.WithFields(logrus.Fields{
		"operation": operation,
		"url":       endpoint,
	}).Debugln("Sent authentication request")

	if err := classify(operation, resp, err); err != nil {
		return nil, err
	}

	return &result, nil
}

// TokenSource supplies the current bearer token, empty when signed out.
type TokenSource func() string

// Authorized returns a client for plain API calls made on behalf of the
// signed in user. A 401 from any of those calls invokes onUnauthorized.
func (c *Client) Authorized(tokens TokenSource, onUnauthorized func()) *resty.Client {
	client := newRestClient(c.options)

	client.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if token := tokens(); len(token) > 0 {
			r.SetAuthToken(token)
		}
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if resp.StatusCode() == http.StatusUnauthorized && onUnauthorized != nil {
			logrus.WithFields(logrus.Fields{
				"url": resp.Request.URL,
			}).Warnln("API rejected the session token")
			onUnauthorized()
		}
		return nil
	})

	return client
}
