package webserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nippysky/marobi/internal/app"
	"go.uber.org/zap"
)

const (
	apiPrefix   = "/api/v1"
	adminPrefix = "/api/v1/admin"
	appCtxKey   = "appctx"
)

type scope int

const (
	scopeAdmin scope = iota
	scopePublic
)

type route struct {
	scope      scope
	method     string
	path       string
	handler    echo.HandlerFunc
	middleware []echo.MiddlewareFunc
}

var (
	routesMu sync.Mutex
	routes   []route
)

func register(s scope, method, path string, h echo.HandlerFunc, m []echo.MiddlewareFunc) {
	routesMu.Lock()
	defer routesMu.Unlock()
	routes = append(routes, route{scope: s, method: method, path: path, handler: h, middleware: m})
}

// ApiGET registers a staff-only route under /api/v1/admin.
func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	register(scopeAdmin, http.MethodGet, path, h, m)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	register(scopeAdmin, http.MethodPost, path, h, m)
}

func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	register(scopeAdmin, http.MethodPut, path, h, m)
}

func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	register(scopeAdmin, http.MethodDelete, path, h, m)
}

// PublicGET registers an unauthenticated route under /api/v1.
func PublicGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	register(scopePublic, http.MethodGet, path, h, m)
}

func PublicPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	register(scopePublic, http.MethodPost, path, h, m)
}

// Server is the storefront and back-office HTTP server.
type Server struct {
	appCtx app.AppContext
	root   *echo.Echo
}

// New builds the echo instance and mounts every route registered so far.
func New(appCtx app.AppContext) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Validator = NewValidator()
	e.HTTPErrorHandler = httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(appCtxKey, appCtx)
			return next(c)
		}
	})

	public := e.Group(apiPrefix)
	admin := e.Group(adminPrefix, staffJWT(appCtx.Config().Web.Secret))

	routesMu.Lock()
	defer routesMu.Unlock()
	for _, r := range routes {
		g := admin
		if r.scope == scopePublic {
			g = public
		}
		g.Add(r.method, r.path, r.handler, r.middleware...)
	}
	zap.L().Debug("routes mounted", zap.String("namespace", "webserver"), zap.Int("count", len(routes)))

	return &Server{appCtx: appCtx, root: e}
}

func (s *Server) Echo() *echo.Echo {
	return s.root
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.appCtx.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.root.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("web server shutdown", zap.String("namespace", "webserver"), zap.Error(err))
		}
	}()

	zap.L().Info("web server listening", zap.String("namespace", "webserver"), zap.String("addr", addr))
	if err := s.root.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// GetAppContext returns the application context injected by the server.
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(appCtxKey).(app.AppContext)
}
