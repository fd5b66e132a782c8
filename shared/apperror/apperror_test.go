package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("add contract: %w", Conflict("unit %d is already leased", 7))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindValidation))
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, KindNotFound))
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("get owner: %w", NotFound("owner %d not found", 3))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("exclusion violation")
	err := Wrap(KindConflict, cause, "contract overlaps")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "conflict: contract overlaps: exclusion violation", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindAlreadyExists, http.StatusConflict},
		{KindValidation, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{Kind("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.kind), tt.kind)
	}
}
