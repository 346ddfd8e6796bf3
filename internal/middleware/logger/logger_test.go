package logger

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(Logger(zap.New(core).Sugar()))
	r.POST("/upload", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload?x=1", strings.NewReader("payload")))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, logs.Len())

	msg := logs.All()[0].Message
	assert.Contains(t, msg, "/upload?x=1")
	assert.Contains(t, msg, "POST")
	assert.Contains(t, msg, "Status 200")
	assert.Contains(t, msg, "RequestSize 7")
}
