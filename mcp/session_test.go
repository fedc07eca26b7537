package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestSession_StartsDisconnected(t *testing.T) {
	s := NewSession("notion", ServerConfig{Command: "true"})
	assert.Equal(t, StateDisconnected, s.State())
	assert.Equal(t, "notion", s.Server())
}

func TestSession_OpsRequireReady(t *testing.T) {
	s := NewSession("notion", ServerConfig{Command: "true"})

	_, err := s.ListTools(context.Background())
	var ncErr *NotConnectedError
	require.ErrorAs(t, err, &ncErr)
	assert.Equal(t, "list_tools", ncErr.Op)
	assert.Equal(t, StateDisconnected, ncErr.State)

	_, err = s.CallTool(context.Background(), "update_page", nil, time.Second)
	require.ErrorAs(t, err, &ncErr)
	assert.Equal(t, "call_tool", ncErr.Op)
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	s := NewSession("notion", ServerConfig{Command: "true"})

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
}

func TestSession_ClosedCannotReconnect(t *testing.T) {
	s := NewSession("notion", ServerConfig{Command: "true"})
	require.NoError(t, s.Close())

	err := s.Connect(context.Background())
	var ncErr *NotConnectedError
	require.ErrorAs(t, err, &ncErr)
	assert.Equal(t, "connect", ncErr.Op)
	assert.Equal(t, StateClosed, ncErr.State)
}

func TestSession_OptionsApplied(t *testing.T) {
	s := NewSession("notion", ServerConfig{Command: "true"}, func(o *SessionOptions) {
		o.ConnectTimeout = 5 * time.Second
		o.ClientName = "probe"
	})

	assert.Equal(t, 5*time.Second, s.opts.ConnectTimeout)
	assert.Equal(t, "probe", s.opts.ClientName)
}
