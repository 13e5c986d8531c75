package botapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/talkincode/warelay/internal/webserver"
	"go.uber.org/zap"
)

func registerBotRoutes() {
	webserver.ApiGET("/status", getStatus)
	webserver.ApiGET("/qr", getQR)
	webserver.ApiPOST("/send-message", postSendMessage)
}

// getStatus reports the live connection state. The qr field is null unless a
// scan is currently awaited.
func getStatus(c echo.Context) error {
	var qr interface{}
	if code := service.CurrentQR(); code != "" {
		qr = code
	}
	return ok(c, map[string]interface{}{
		"ready":     service.IsReady(),
		"qr":        qr,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// getQR returns the pending QR code string; the frontend renders the image
// client-side.
func getQR(c echo.Context) error {
	code := service.CurrentQR()
	return ok(c, map[string]interface{}{
		"code":   code,
		"has_qr": code != "",
	})
}

// postSendMessage sends a text message through the WhatsApp client.
// Request JSON: { "to": "62812xxxx@s.whatsapp.net", "message": "hello" }
func postSendMessage(c echo.Context) error {
	var payload struct {
		To      string `json:"to"`
		Message string `json:"message"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if payload.To == "" || payload.Message == "" {
		return fail(c, http.StatusBadRequest, "MISSING_FIELDS", "to and message are required", nil)
	}

	if !service.IsReady() {
		return fail(c, http.StatusServiceUnavailable, "NOT_CONNECTED", "WhatsApp client is not connected", nil)
	}

	if err := service.SendText(c.Request().Context(), payload.To, payload.Message); err != nil {
		zap.L().Warn("botapi: send message failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "SEND_FAILED", "Failed to send message", err.Error())
	}
	return ok(c, map[string]interface{}{"success": true})
}
