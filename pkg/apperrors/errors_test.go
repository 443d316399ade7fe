package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validationf("bad input")))
	assert.Equal(t, KindNotFound, KindOf(NotFoundf("missing")))
	assert.Equal(t, KindConflict, KindOf(Conflictf("duplicate")))
	assert.Equal(t, KindAuthorization, KindOf(Authorizationf("denied")))
	assert.Equal(t, KindState, KindOf(Statef("insufficient")))
	assert.Equal(t, KindExternal, KindOf(Externalf("unreachable")))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("approving request: %w", Conflictf("already executed"))
	assert.True(t, IsConflict(err))
	assert.Equal(t, http.StatusConflict, HTTPStatus(err))
}

func TestWrapExposesUnderlying(t *testing.T) {
	underlying := errors.New("connection refused")
	err := Wrap(KindExternal, "settlement ledger unreachable", underlying)

	assert.True(t, IsExternal(err))
	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validationf("x")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFoundf("x")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(Conflictf("x")))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(Authorizationf("x")))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(Statef("x")))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(Externalf("x")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}
