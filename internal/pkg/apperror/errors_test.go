package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFromClassifiesStoreErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"record not found", fmt.Errorf("load: %w", gorm.ErrRecordNotFound), http.StatusNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, http.StatusConflict},
		{"foreign key", gorm.ErrForeignKeyViolated, http.StatusBadRequest},
		{"pg unique", &pgconn.PgError{Code: "23505"}, http.StatusConflict},
		{"pg foreign key", &pgconn.PgError{Code: "23503"}, http.StatusBadRequest},
		{"connection lost", errors.New("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, From(tt.err).Status())
		})
	}
}

func TestFromKeepsApplicationErrors(t *testing.T) {
	original := BadRequest("Cart is empty")
	wrapped := fmt.Errorf("checkout: %w", original)

	got := From(wrapped)
	assert.Same(t, original, got)
	assert.Equal(t, "Cart is empty", got.Message)
	assert.True(t, Is(wrapped, KindBadRequest))
	assert.False(t, Is(wrapped, KindNotFound))
}

func TestInvalidTransitionMessage(t *testing.T) {
	err := InvalidTransition("delivered", "pending")
	assert.Equal(t, http.StatusBadRequest, err.Status())
	assert.Equal(t, "Cannot change status from 'delivered' to 'pending'", err.Message)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.Nil(t, From(nil))
}
