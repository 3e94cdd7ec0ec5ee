package apperrors

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorHierarchy(t *testing.T) {
	ErrBase := New("base error")
	assert.Equal(t, "base error", ErrBase.Error())
	assert.ErrorIs(t, ErrBase, ErrBase)

	ErrChild := ErrBase.New("child error")
	assert.Equal(t, "child error", ErrChild.Error())
	assert.ErrorIs(t, ErrChild, ErrBase)

	ErrOther := New("other error")
	wrapped := ErrChild.Err(ErrOther)
	assert.Equal(t, "child error", wrapped.Error())
	assert.ErrorIs(t, wrapped, ErrBase)
	assert.ErrorIs(t, wrapped, ErrOther)

	err := errors.New("collaborator failure")
	wrapped = ErrChild.Err(err)
	assert.ErrorIs(t, wrapped, ErrBase)
	assert.ErrorIs(t, wrapped, err)

	wrapped = ErrChild.MsgErr("replaced message", err)
	assert.Equal(t, "replaced message", wrapped.Error())
	assert.ErrorIs(t, wrapped, ErrBase)
	assert.ErrorIs(t, wrapped, err)
}

func TestErrorDoesNotMutateSentinel(t *testing.T) {
	ErrSentinel := New("sentinel").SetStatusCode(http.StatusForbidden)

	derived := ErrSentinel.Msg("with context")
	assert.Equal(t, "sentinel", ErrSentinel.Error())
	assert.Equal(t, "with context", derived.Error())
	assert.ErrorIs(t, derived, ErrSentinel)
	assert.Equal(t, http.StatusForbidden, derived.StatusCode())
}

func TestErrorAll(t *testing.T) {
	ErrBase := New("store error")
	wrapped := ErrBase.Err(errors.New("dial failed"), errors.New("retry failed"))
	assert.Equal(t, "store error: dial failed; retry failed", wrapped.ErrorAll())
	assert.Equal(t, "store error", ErrBase.ErrorAll())
}

func TestStatusCodeInheritance(t *testing.T) {
	ErrBase := New("base").SetStatusCode(http.StatusBadGateway)
	child := ErrBase.New("child")
	assert.Equal(t, http.StatusBadGateway, child.StatusCode())
}
