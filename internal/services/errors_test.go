package services

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesByKind(t *testing.T) {
	err := newError(KindBlocked, "Cannot send messages to this user")

	assert.ErrorIs(t, err, ErrBlocked)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, fmt.Errorf("send: %w", err), ErrBlocked)
	assert.ErrorIs(t, errors.Wrap(err, "send"), ErrBlocked)
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(errors.Wrap(newError(KindOnlySelf, ""), "send"))
	assert.True(t, ok)
	assert.Equal(t, KindOnlySelf, kind)

	_, ok = KindOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestErrorMessageFallsBackToKind(t *testing.T) {
	assert.Equal(t, "not_found", ErrNotFound.Error())
}
