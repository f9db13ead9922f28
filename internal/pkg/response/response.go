// Package response writes the uniform API envelope.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
)

// Envelope is the body of every API response
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Body    interface{} `json:"body"`
	Status  int         `json:"status"`
}

// Success writes a successful envelope with the given status
func Success(c *gin.Context, status int, message string, body interface{}) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Body:    body,
		Status:  status,
	})
}

// OK writes a 200 envelope
func OK(c *gin.Context, message string, body interface{}) {
	Success(c, http.StatusOK, message, body)
}

// Created writes a 201 envelope
func Created(c *gin.Context, message string, body interface{}) {
	Success(c, http.StatusCreated, message, body)
}

// Fail writes a failure envelope
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Message: message,
		Body:    nil,
		Status:  status,
	})
}

// Error classifies err and writes the matching failure envelope.
// Internal details are logged, never returned to the client.
func Error(c *gin.Context, err error) {
	appErr := apperror.From(err)
	status := appErr.Status()

	if status >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.Request.URL.Path,
			"error":      err.Error(),
		}).Error("Request failed")
	}

	_ = c.Error(err)
	Fail(c, status, appErr.Message)
}

// BindError writes a 400 envelope for malformed input
func BindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{
		Success: false,
		Message: "Invalid request data",
		Body:    gin.H{"details": err.Error()},
		Status:  http.StatusBadRequest,
	})
}
