// Package httpapi exposes the email rule over HTTP.
package httpapi

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"

	"github.com/optimode/emailrule"
	"github.com/optimode/emailrule/types"
)

// Options configures the server.
type Options struct {
	Addr string
	// Rules apply when a request has no rules parameter.
	Rules types.Modes
	// Username and Password enable HTTP Basic auth on /validate when set.
	Username string
	Password string
}

type Server struct {
	echo      *echo.Echo
	validator *emailrule.Validator
	opts      Options
}

// ValidateResponse is the body of GET /validate.
type ValidateResponse struct {
	Email     string       `json:"email"`
	Valid     bool         `json:"valid"`
	Reason    types.Reason `json:"reason,omitempty"`
	Degraded  bool         `json:"degraded,omitempty"`
	Rules     string       `json:"rules"`
	Message   string       `json:"message,omitempty"`
	Suggested string       `json:"did_you_mean,omitempty"`
}

func New(v *emailrule.Validator, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, validator: v, opts: opts}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}).Name = "healthz"

	var mw []echo.MiddlewareFunc
	if opts.Username != "" {
		mw = append(mw, middleware.BasicAuth(s.authorize))
	}
	e.GET("/validate", s.validateHandler, mw...).Name = "validate"

	return s
}

func (s *Server) authorize(username, password string, _ echo.Context) (bool, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.opts.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.opts.Password)) == 1
	return userOK && passOK, nil
}

// validateHandler answers GET /validate?email=...&rules=role,mailbox.
// Rejections are reported in the body with status 200; only a missing
// email is a client error.
func (s *Server) validateHandler(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	modes := s.opts.Rules
	if raw, ok := c.QueryParams()["rules"]; ok {
		modes = types.ParseModeList(raw[0])
	}

	res := s.validator.Check(c.Request().Context(), email, modes)

	resp := ValidateResponse{
		Email:    email,
		Valid:    res.Valid,
		Reason:   res.Reason,
		Degraded: res.Degraded,
		Rules:    modes.String(),
	}
	if !res.Valid {
		resp.Message = emailrule.Message("email")
	}
	if res.Remote != nil {
		resp.Suggested = res.Remote.DidYouMean
	}
	return c.JSON(http.StatusOK, resp)
}

// ServeHTTP lets the server be mounted in another mux or driven by tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on Options.Addr until Shutdown is called.
func (s *Server) Start() error {
	err := s.echo.Start(s.opts.Addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
