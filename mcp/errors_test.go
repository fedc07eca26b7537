package mcp

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConnectionError_Unwrap(t *testing.T) {
	cause := errors.New("spawn failed")
	err := &ConnectionError{Server: "notion", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `"notion"`)
	assert.Contains(t, err.Error(), "spawn failed")
}

func TestNotConnectedError_Message(t *testing.T) {
	err := &NotConnectedError{Op: "call_tool", State: StateClosed}
	assert.Contains(t, err.Error(), "call_tool")
	assert.Contains(t, err.Error(), "closed")
}

func TestToolError_Message(t *testing.T) {
	err := &ToolError{Tool: "update_page", Message: "page not found"}
	assert.Contains(t, err.Error(), `"update_page"`)
	assert.Contains(t, err.Error(), "page not found")
}

func TestTimeoutError_Message(t *testing.T) {
	err := &TimeoutError{Tool: "update_page", Timeout: 30 * time.Second}
	assert.Contains(t, err.Error(), "30s")
}
