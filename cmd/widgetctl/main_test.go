package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcosta74/opstack/internal/widgetserver"
	"github.com/mcosta74/opstack/middleware"
	"github.com/mcosta74/opstack/ports"
)

func TestRunAgainstHTTPServer(t *testing.T) {
	srv := httptest.NewServer(widgetserver.New(widgetserver.NewStore()).Handler())
	defer srv.Close()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	t.Setenv("OPSTACK_ENDPOINT__HOST", u.Hostname())
	t.Setenv("OPSTACK_ENDPOINT__PORT", u.Port())
	configPath := filepath.Join(t.TempDir(), "missing.yaml")
	logger := slog.New(slog.DiscardHandler)

	var out bytes.Buffer
	err = run(context.Background(), []string{"-config", configPath, "put", "w1", "gear", "blue"}, &out, logger)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"w1","name":"gear","color":"blue","version":1}`, out.String())

	out.Reset()
	err = run(context.Background(), []string{"-config", configPath, "get", "w1"}, &out, logger)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"w1","name":"gear","color":"blue","version":1}`, out.String())

	out.Reset()
	err = run(context.Background(), []string{"-config", configPath, "delete", "w1"}, &out, logger)
	require.NoError(t, err)
	assert.JSONEq(t, `{"deleted":"w1"}`, out.String())

	err = run(context.Background(), []string{"-config", configPath, "get", "w1"}, &out, logger)
	assert.True(t, middleware.IsServiceError(err))
}

func TestRunUsage(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	configPath := filepath.Join(t.TempDir(), "missing.yaml")

	for name, args := range map[string][]string{
		"no command":      {"-config", configPath},
		"unknown command": {"-config", configPath, "frobnicate"},
		"get without id":  {"-config", configPath, "get"},
	} {
		t.Run(name, func(t *testing.T) {
			err := run(context.Background(), args, &bytes.Buffer{}, logger)
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func TestRetryable(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
		want bool
	}{
		{name: "plain", err: errors.New("boom"), want: false},
		{name: "transport", err: &middleware.OperationError{Kind: middleware.KindClient, Phase: middleware.PhaseTransport, Err: errors.New("reset")}, want: true},
		{name: "canceled", err: &middleware.OperationError{Kind: middleware.KindClient, Phase: middleware.PhaseTransport, Err: context.Canceled}, want: false},
		{name: "serialize", err: middleware.NewClientError(middleware.PhaseSerialize, errors.New("bad")), want: false},
		{name: "503", err: middleware.NewUnknownError(ports.NewResponse(http.StatusServiceUnavailable, nil), "busy"), want: true},
		{name: "404", err: middleware.NewUnknownError(ports.NewResponse(http.StatusNotFound, nil), "gone"), want: false},
		{name: "service", err: middleware.NewServiceError(ports.NewResponse(http.StatusBadRequest, nil), errors.New("invalid")), want: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, retryable(tc.err))
		})
	}
}
