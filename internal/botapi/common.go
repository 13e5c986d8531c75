package botapi

import (
	"context"

	"github.com/labstack/echo/v4"
)

// BotService is the slice of the WhatsApp service this API needs.
type BotService interface {
	IsReady() bool
	CurrentQR() string
	SendText(ctx context.Context, to string, text string) error
}

var service BotService

// Setup wires the running service and registers all routes.
func Setup(svc BotService) {
	service = svc
	registerBotRoutes()
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(200, data)
}

func fail(c echo.Context, status int, code string, message string, detail interface{}) error {
	return c.JSON(status, map[string]interface{}{
		"code":   code,
		"error":  message,
		"detail": detail,
	})
}
