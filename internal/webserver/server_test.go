package webserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/talkincode/warelay/config"
	"gorm.io/gorm"
)

type testAppCtx struct{}

func (a *testAppCtx) DB() *gorm.DB               { return nil }
func (a *testAppCtx) Config() *config.AppConfig  { return config.DefaultAppConfig }
func (a *testAppCtx) Scheduler() *cron.Cron      { return nil }
func (a *testAppCtx) Bus() EventBus.Bus          { return EventBus.New() }
func (a *testAppCtx) MigrateDB(track bool) error { return nil }
func (a *testAppCtx) DropAll()                   {}

func TestRouteRegistration(t *testing.T) {
	Init(&testAppCtx{})
	ApiGET("/ping", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"pong": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pong":"ok"}`, rec.Body.String())
}

func TestErrorHandlerRespondsJSON(t *testing.T) {
	Init(&testAppCtx{})

	req := httptest.NewRequest(http.MethodGet, "/no-such-route", nil)
	rec := httptest.NewRecorder()
	Echo().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code"`)
	assert.Contains(t, rec.Body.String(), `"error"`)
}