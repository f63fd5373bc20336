package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation helper", Validation("email is required"), KindValidation},
		{"wrapped duplicate", fmt.Errorf("create: %w", ErrDuplicateEmail), KindDuplicateEmail},
		{"oops wrapped forbidden", oops.Code("JOB_UPDATE_FORBIDDEN").Wrap(ErrForbidden), KindForbidden},
		{"token already used", ErrTokenAlreadyUsed, KindTokenAlreadyUsed},
		{"token expired", ErrTokenExpired, KindTokenExpired},
		{"unknown", errors.New("connection reset"), KindInternal},
		{"nil", nil, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestValidationMessage(t *testing.T) {
	err := Validation("name is required")
	assert.Equal(t, "name is required", err.Error())
	assert.ErrorIs(t, err, ErrValidation)
}
