package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcosta74/opstack/ports"
)

func TestOperationErrorKinds(t *testing.T) {
	resp := ports.NewResponse(http.StatusNotFound, []byte(`{"message":"no such widget"}`))
	shape := errors.New("WidgetNotFound")

	service := NewServiceError(resp, shape)
	unknown := NewUnknownError(resp, "")
	client := NewClientError(PhaseSerialize, errors.New("bad input"))

	assert.True(t, IsServiceError(service))
	assert.True(t, IsUnknownError(unknown))
	assert.True(t, IsClientError(client))
	assert.False(t, IsClientError(errors.New("plain")))
	assert.ErrorIs(t, service, shape)
	assert.Same(t, resp, unknown.Response)

	assert.Equal(t, "operation service error (Deserialize, status 404): WidgetNotFound", service.Error())
	assert.Equal(t, "operation client error (Serialize): bad input", client.Error())
	assert.Equal(t, "operation unknown error (Deserialize, status 404): unknown error", unknown.Error())
}

func TestOperationErrorWrapped(t *testing.T) {
	inner := NewServiceError(ports.NewResponse(http.StatusConflict, nil), errors.New("conflict"))
	wrapped := fmt.Errorf("put widget: %w", inner)

	assert.True(t, IsServiceError(wrapped))
	oe, created := classify(PhaseBuild, wrapped)
	assert.False(t, created)
	assert.Same(t, inner, oe)
}

func TestClassifyPlainError(t *testing.T) {
	plain := errors.New("plain")

	oe, created := classify(PhaseBuild, plain)

	assert.True(t, created)
	assert.Equal(t, KindClient, oe.Kind)
	assert.Equal(t, PhaseBuild, oe.Phase)
	assert.Same(t, plain, oe.Err)
}

func TestSetupErrorMessage(t *testing.T) {
	err := &SetupError{Step: "Build", MiddlewareID: "AddHeaders", Err: ErrMiddlewareNotFound}

	assert.Equal(t, "Build step: AddHeaders: middleware not found", err.Error())
	assert.ErrorIs(t, err, ErrMiddlewareNotFound)
}
