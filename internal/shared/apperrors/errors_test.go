package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusFollowsWrapping(t *testing.T) {
	wrapped := fmt.Errorf("debit event 42: %w", ErrInsufficientInventory)

	assert.Equal(t, http.StatusConflict, HTTPStatus(wrapped))
	assert.Equal(t, "INSUFFICIENT_INVENTORY", Code(wrapped))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("pq: connection refused")))
}

func TestSecurityErrorsShareGenericMessage(t *testing.T) {
	assert.Equal(t, PublicMessage(ErrSignatureInvalid), PublicMessage(ErrOrderMismatch))
	assert.True(t, IsSecurity(fmt.Errorf("verify: %w", ErrSignatureInvalid)))
	assert.True(t, IsSecurity(ErrAmountMismatch))
	assert.False(t, IsSecurity(ErrAlreadyFulfilled))
}
