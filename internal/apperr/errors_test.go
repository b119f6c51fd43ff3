package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKindsSurviveWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"validation", Validation("width_inches", "is required"), ErrValidation, "validation failed: width_inches is required"},
		{"validation without field", Validation("", "quantity_delta must not be zero"), ErrValidation, "validation failed: quantity_delta must not be zero"},
		{"transition", Transition("sale", "COMPLETED", "complete"), ErrInvalidTransition, "invalid status transition: cannot complete sale in status COMPLETED"},
		{"not found", NotFound("product"), ErrNotFound, "resource not found: product not found"},
		{"network", Network("unexpected status 503", nil), ErrNetwork, "network error: unexpected status 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("failed to do thing: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.kind))
			assert.Equal(t, tt.msg, tt.err.Error())
		})
	}
}

func TestFromDB(t *testing.T) {
	assert.NoError(t, FromDB(nil, "client"))
	assert.ErrorIs(t, FromDB(gorm.ErrRecordNotFound, "client"), ErrNotFound)

	other := errors.New("connection reset")
	err := FromDB(other, "client")
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, ErrNotFound)
}
