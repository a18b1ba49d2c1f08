package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/student-records/pkg/errors"
	"github.com/noah-isme/student-records/pkg/middleware/requestid"
)

func serve(t *testing.T, h gin.HandlerFunc, reqID string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.GET("/", h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if reqID != "" {
		req.Header.Set(requestid.Header, reqID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestJSONAddsRequestIDToMeta(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		JSON(c, http.StatusOK, []string{"s1"}, map[string]interface{}{"count": 1})
	}, "req-1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, "req-1", meta["request_id"])
	assert.Equal(t, float64(1), meta["count"])
	assert.Nil(t, body["error"])
}

func TestErrorUsesAppErrorStatus(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		Error(c, appErrors.Clone(appErrors.ErrNotFound, "Student not found"))
	}, "req-2")

	assert.Equal(t, http.StatusNotFound, w.Code)
	errBody := body["error"].(map[string]interface{})
	assert.Equal(t, "NOT_FOUND", errBody["code"])
	assert.Equal(t, "Student not found", errBody["message"])
	assert.Equal(t, "req-2", body["meta"].(map[string]interface{})["request_id"])
	assert.Nil(t, body["data"])
}

func TestErrorHidesUnknownErrors(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		Error(c, errors.New("pq: connection refused"))
	}, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.NotNil(t, body["error"])
}

func TestFileSetsAttachmentHeaders(t *testing.T) {
	w, _ := serve(t, func(c *gin.Context) {
		File(c, "students.csv", "text/csv", []byte("ID\n"))
	}, "")

	assert.Equal(t, `attachment; filename="students.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "ID\n", w.Body.String())
}
