package webserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/talkincode/warelay/internal/app"
	"go.uber.org/zap"
)

var server *WebServer

type WebServer struct {
	appctx app.AppContext
	root   *echo.Echo
}

// Init builds the shared echo instance; route registration happens through
// the Api* helpers afterwards.
func Init(a app.AppContext) {
	server = NewWebServer(a)
}

func NewWebServer(a app.AppContext) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		zap.L().Warn("http error", zap.Int("status", code), zap.String("path", c.Path()), zap.Error(err))
		_ = c.JSON(code, map[string]interface{}{
			"code":  "INTERNAL_ERROR",
			"error": err.Error(),
		})
	}
	return &WebServer{appctx: a, root: e}
}

// Listen starts the HTTP listener and blocks until shutdown.
func Listen() error {
	cfg := server.appctx.Config().Web
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	zap.L().Info("starting web server", zap.String("listen", addr))
	err := server.root.Start(addr)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the listener gracefully.
func Shutdown(ctx context.Context) error {
	if server == nil {
		return nil
	}
	return server.root.Shutdown(ctx)
}

func ApiGET(path string, h echo.HandlerFunc) {
	server.root.GET(path, h)
}

func ApiPOST(path string, h echo.HandlerFunc) {
	server.root.POST(path, h)
}

// Echo exposes the underlying instance for tests.
func Echo() *echo.Echo {
	return server.root
}
