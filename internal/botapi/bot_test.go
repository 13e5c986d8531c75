package botapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	ready   bool
	qr      string
	sendErr error
	sent    []string
}

func (s *stubService) IsReady() bool     { return s.ready }
func (s *stubService) CurrentQR() string { return s.qr }

func (s *stubService) SendText(_ context.Context, to string, text string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, to+"|"+text)
	return nil
}

func doJSON(t *testing.T, h echo.HandlerFunc, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))

	var resp map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestGetStatusNotReady(t *testing.T) {
	service = &stubService{ready: false, qr: "2@pending"}

	rec, resp := doJSON(t, getStatus, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["ready"])
	assert.Equal(t, "2@pending", resp["qr"])
	assert.NotEmpty(t, resp["timestamp"])
}

func TestGetStatusReadyHasNullQR(t *testing.T) {
	service = &stubService{ready: true}

	rec, resp := doJSON(t, getStatus, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["ready"])
	assert.Nil(t, resp["qr"])
}

func TestSendMessageGatedWhenNotReady(t *testing.T) {
	stub := &stubService{ready: false}
	service = stub

	rec, resp := doJSON(t, postSendMessage, http.MethodPost, "/send-message",
		`{"to":"628@s.whatsapp.net","message":"hi"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "NOT_CONNECTED", resp["code"])
	assert.NotEmpty(t, resp["error"])
	assert.Empty(t, stub.sent, "no delivery attempt while not ready")
}

func TestSendMessageDelegatesWhenReady(t *testing.T) {
	stub := &stubService{ready: true}
	service = stub

	rec, resp := doJSON(t, postSendMessage, http.MethodPost, "/send-message",
		`{"to":"628@s.whatsapp.net","message":"hi"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["success"])
	require.Len(t, stub.sent, 1)
	assert.Equal(t, "628@s.whatsapp.net|hi", stub.sent[0])
}

func TestSendMessageMissingFields(t *testing.T) {
	service = &stubService{ready: true}

	rec, resp := doJSON(t, postSendMessage, http.MethodPost, "/send-message", `{"to":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_FIELDS", resp["code"])
}

func TestSendMessageFailureReturns500(t *testing.T) {
	service = &stubService{ready: true, sendErr: errors.New("websocket closed")}

	rec, resp := doJSON(t, postSendMessage, http.MethodPost, "/send-message",
		`{"to":"628@s.whatsapp.net","message":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "SEND_FAILED", resp["code"])
	assert.Equal(t, "websocket closed", resp["detail"])
}
