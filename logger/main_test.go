package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newRouter(buf *bytes.Buffer, cfg Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	l := zerolog.New(buf)
	cfg.Logger = &l
	r := gin.New()
	r.Use(SetLogger(cfg))
	r.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, "pong") })
	r.POST("/orders", func(c *gin.Context) {
		l := GetLogger(c)
		l.Info().Msg("inside handler")
		c.JSON(http.StatusUnprocessableEntity, "bad")
	})
	return r
}

func TestSetLogger_TagsRequests(t *testing.T) {
	buf := &bytes.Buffer{}
	r := newRouter(buf, Config{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", nil))

	id := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, id)
	assert.Contains(t, buf.String(), `"request_id":"`+id+`"`)
	assert.Contains(t, buf.String(), "inside handler")
	assert.Contains(t, buf.String(), `"status":422`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestSetLogger_SkipsPaths(t *testing.T) {
	buf := &bytes.Buffer{}
	r := newRouter(buf, Config{SkipPath: []string{"/ping"}, SkipPathRegexp: regexp.MustCompile("^/metrics")})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Empty(t, buf.String())
}

func TestGetLogger_Default(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	l := GetLogger(c)
	assert.NotNil(t, &l)
}
