package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func serve(t *testing.T, incoming string) (seen string, echoed string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/", func(c *gin.Context) { seen = Value(c) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if incoming != "" {
		req.Header.Set(Header, incoming)
	}
	r.ServeHTTP(w, req)
	return seen, w.Header().Get(Header)
}

func TestMiddlewareEchoesIncomingID(t *testing.T) {
	seen, echoed := serve(t, "cli-7f3a.2")
	assert.Equal(t, "cli-7f3a.2", seen)
	assert.Equal(t, "cli-7f3a.2", echoed)
}

func TestMiddlewareGeneratesID(t *testing.T) {
	_, echoed := serve(t, "")
	_, err := uuid.Parse(echoed)
	assert.NoError(t, err)
}

func TestMiddlewareReplacesUnsafeIDs(t *testing.T) {
	for _, bad := range []string{"abc def", "id\"injected", strings.Repeat("a", maxLength+1)} {
		seen, echoed := serve(t, bad)
		assert.NotEqual(t, bad, seen)
		assert.Equal(t, seen, echoed)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err, bad)
	}
}
