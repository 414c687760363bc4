package errorutil

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	t.Run("passes domain errors through", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", NewPermissionDenied("nope", nil))
		de := ToDomainError(err)
		assert.Equal(t, CodePermissionDenied, de.Code)
		assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
	})

	t.Run("no rows becomes not found", func(t *testing.T) {
		de := ToDomainError(fmt.Errorf("get ticket: %w", pgx.ErrNoRows))
		assert.Equal(t, CodeNotFound, de.Code)
	})

	t.Run("network failures are upstream unavailable", func(t *testing.T) {
		err := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		de := ToDomainError(err)
		assert.Equal(t, CodeUpstreamUnavailable, de.Code)
		assert.Equal(t, true, de.Details["retryable"])
	})

	t.Run("anything else is internal", func(t *testing.T) {
		de := ToDomainError(errors.New("boom"))
		assert.Equal(t, CodeInternal, de.Code)
		assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
		assert.NoError(t, MapError(nil))
	})
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(NewInvalidStateTransition("CLOSED", "OPEN"), CodeInvalidStateTransition))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
	assert.True(t, HasCode(NewFieldError("content", "too long"), CodeValidation))
}
