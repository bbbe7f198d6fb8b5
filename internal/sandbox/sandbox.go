// Package sandbox serves a mock.Store over HTTP on the same URL shape as the
// AppSheet Action API, so unmodified clients can be pointed at it through
// APPSHEET_BASE_URL.
package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet/mock"
)

const (
	// ActionRoute is the route served for every table.
	ActionRoute = "/api/v2/apps/:app/tables/:table/Action"

	shutdownTimeout = 5 * time.Second
)

// Config controls the sandbox server.
type Config struct {
	Addr string
	// AppID, when set, is the only app id accepted in request paths.
	AppID string
	// AccessKey, when set, must be sent in the ApplicationAccessKey header.
	AccessKey string
	// Latency is added before every action.
	Latency time.Duration
	Fail    FailConfig
}

// BaseURL returns the API root clients should use to reach the sandbox.
func (c Config) BaseURL() string {
	host := c.Addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/api/v2/"
}

// FailConfig injects failures into a fraction of requests.
type FailConfig struct {
	Rate float64
	Code int
}

// ParseFailConfig reads "rate=<float>,code=<httpStatus>". The code defaults
// to 500 and an empty string disables injection.
func ParseFailConfig(raw string) (FailConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return FailConfig{}, nil
	}
	cfg := FailConfig{Code: http.StatusInternalServerError}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return FailConfig{}, fmt.Errorf("invalid fail segment %q", part)
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "rate":
			rate, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return FailConfig{}, fmt.Errorf("fail rate: %w", err)
			}
			if rate < 0 || rate > 1 {
				return FailConfig{}, fmt.Errorf("fail rate %v outside [0,1]", rate)
			}
			cfg.Rate = rate
		case "code":
			code, err := strconv.Atoi(val)
			if err != nil {
				return FailConfig{}, fmt.Errorf("fail code: %w", err)
			}
			if code < 400 || code > 599 {
				return FailConfig{}, fmt.Errorf("fail code %d is not an error status", code)
			}
			cfg.Code = code
		default:
			return FailConfig{}, fmt.Errorf("unknown fail key %q", key)
		}
	}
	return cfg, nil
}

// Server is an echo application wrapping a mock.Store.
type Server struct {
	cfg   Config
	store *mock.Store
	echo  *echo.Echo
}

// New builds the server and its routes.
func New(store *mock.Store, cfg Config) *Server {
	s := &Server{cfg: cfg, store: store, echo: echo.New()}
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(middleware.Recover())
	s.echo.Use(s.logRequests)
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok", "tables": s.store.Tables()})
	})
	s.echo.POST(ActionRoute, s.handleAction, s.checkAccess, s.injectFaults)
	return s
}

// Handler exposes the server for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run listens on cfg.Addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, nil)
}

// Serve accepts connections on ln (or cfg.Addr when ln is nil) until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if ln != nil {
		s.echo.Listener = ln
	}
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		glog.Infof("[sandbox] listening on %s", s.cfg.Addr)
		if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		glog.Infof("[sandbox] shutting down")
		return s.echo.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (s *Server) handleAction(c echo.Context) error {
	table := c.Param("table")
	if strings.Contains(table, "%") {
		if unescaped, err := url.PathUnescape(table); err == nil {
			table = unescaped
		}
	}

	var req appsheet.ActionRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return problem(c, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}

	body, err := s.store.Do(c.Request().Context(), table, &req)
	if err != nil {
		var herr *appsheet.HTTPError
		if errors.As(err, &herr) {
			return c.JSONBlob(herr.StatusCode, herr.Body)
		}
		return problem(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSONBlob(http.StatusOK, body)
}

func (s *Server) checkAccess(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.cfg.AppID != "" && c.Param("app") != s.cfg.AppID {
			return problem(c, http.StatusNotFound, fmt.Sprintf("app '%s' not found", c.Param("app")))
		}
		if s.cfg.AccessKey != "" && c.Request().Header.Get(appsheet.AccessKeyHeader) != s.cfg.AccessKey {
			return problem(c, http.StatusForbidden, "invalid application access key")
		}
		return next(c)
	}
}

func (s *Server) injectFaults(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.cfg.Latency > 0 {
			select {
			case <-time.After(s.cfg.Latency):
			case <-c.Request().Context().Done():
				return c.Request().Context().Err()
			}
		}
		if s.cfg.Fail.Rate > 0 && rand.Float64() < s.cfg.Fail.Rate {
			code := s.cfg.Fail.Code
			if code == 0 {
				code = http.StatusInternalServerError
			}
			return problem(c, code, "failure injected")
		}
		return next(c)
	}
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		glog.Infof("[sandbox] %s %s -> %d (%s)", c.Request().Method, c.Request().URL.EscapedPath(),
			c.Response().Status, time.Since(start).Round(time.Microsecond))
		return nil
	}
}

func problem(c echo.Context, status int, detail string) error {
	return c.JSON(status, map[string]any{
		"status": status,
		"title":  http.StatusText(status),
		"detail": detail,
	})
}
