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
	"gorm.io/gorm"

	"github.com/your-org/food-ordering-backend/internal/pkg/apperror"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(handler gin.HandlerFunc) (*httptest.ResponseRecorder, Envelope) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/test", nil)
	handler(c)

	var env Envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestCreatedEnvelope(t *testing.T) {
	w, env := perform(func(c *gin.Context) {
		Created(c, "Order created successfully", gin.H{"id": 1})
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusCreated, env.Status)
	assert.Equal(t, "Order created successfully", env.Message)
	assert.NotNil(t, env.Body)
}

func TestErrorMapsKinds(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{apperror.BadRequest("Cart is empty"), http.StatusBadRequest, "Cart is empty"},
		{apperror.NotFound("Order not found"), http.StatusNotFound, "Order not found"},
		{gorm.ErrDuplicatedKey, http.StatusConflict, "Resource already exists"},
		{errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable, apperror.MsgUnavailable},
	}

	for _, tt := range tests {
		w, env := perform(func(c *gin.Context) { Error(c, tt.err) })
		require.Equal(t, tt.status, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, tt.status, env.Status)
		assert.Equal(t, tt.message, env.Message)
		assert.Nil(t, env.Body)
	}
}
