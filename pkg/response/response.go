package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/student-records/pkg/errors"
	"github.com/noah-isme/student-records/pkg/middleware/requestid"
)

// Envelope is the body of every JSON response: exactly one of Data or Error is set.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// JSON sends data with optional metadata. The request id is folded into meta when one is set.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	var m map[string]interface{}
	if len(meta) > 0 {
		m = meta[0]
	}
	noStore(c)
	c.JSON(status, Envelope{Data: data, Meta: withRequestID(c, m)})
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error converts err to the envelope error and uses its status.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr, Meta: withRequestID(c, nil)})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// File streams a rendered export as an attachment.
func File(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	noStore(c)
	c.Data(http.StatusOK, contentType, body)
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}

func withRequestID(c *gin.Context, meta map[string]interface{}) map[string]interface{} {
	id := requestid.Value(c)
	if id == "" {
		return meta
	}
	if meta == nil {
		meta = make(map[string]interface{}, 1)
	}
	if _, exists := meta["request_id"]; !exists {
		meta["request_id"] = id
	}
	return meta
}
