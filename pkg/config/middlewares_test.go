package config

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetupMiddleware_LogsPathWithoutQuery(t *testing.T) {
	var buf bytes.Buffer
	std := logrus.StandardLogger()
	out, level := std.Out, std.GetLevel()
	std.SetOutput(&buf)
	std.SetLevel(logrus.InfoLevel)
	t.Cleanup(func() {
		std.SetOutput(out)
		std.SetLevel(level)
	})

	e := echo.New()
	SetupMiddleware(e)
	e.GET("/ws/notifications", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/notifications?token=eyJsecret", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "/ws/notifications")
	assert.NotContains(t, buf.String(), "eyJsecret")
}
