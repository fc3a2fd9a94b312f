package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Unwrap(t *testing.T) {
	err := ProductNotFound("p-1")
	require.ErrorIs(t, err, ErrProductNotFound)
	assert.Contains(t, err.Error(), "p-1")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"product not found", ProductNotFound("p-1"), http.StatusNotFound},
		{"invalid quantity", InvalidQuantity(-1), http.StatusBadRequest},
		{"insufficient stock", InsufficientStock("Laptop"), http.StatusBadRequest},
		{"empty cart", EmptyCart(), http.StatusBadRequest},
		{"persistence", Persistence(errors.New("disk full")), http.StatusInternalServerError},
		{"unauthorized", Unauthorized("missing token"), http.StatusUnauthorized},
		{"wrapped sentinel", fmt.Errorf("add to cart: %w", ErrInsufficientStock), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPersistence_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence(cause)
	require.ErrorIs(t, err, ErrPersistence)
	require.ErrorIs(t, err, cause)
}
