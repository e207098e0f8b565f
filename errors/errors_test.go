package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf("error: %s %d", "test", 42)
	require.NotNil(t, err)
	assert.Equal(t, "error: test 42", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestIs(t *testing.T) {
	err1 := New("error 1")
	err2 := New("error 2")
	wrapped := Wrap(err1, "wrapped")

	assert.True(t, Is(wrapped, err1))
	assert.False(t, Is(wrapped, err2))
	assert.False(t, Is(nil, err1))
}

type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}

func TestAs(t *testing.T) {
	original := &customError{msg: "custom"}
	wrapped := Wrap(original, "wrapped")

	var target *customError
	require.True(t, As(wrapped, &target))
	assert.Equal(t, "custom", target.msg)
}

func TestSentinelWrapping(t *testing.T) {
	err := Wrap(ErrHandlerTimeout, "domain insurance_mcp")

	assert.True(t, IsHandlerTimeout(err))
	assert.False(t, IsHandlerExecution(err))
	assert.False(t, IsRegistrationConflict(err))
	assert.Contains(t, err.Error(), "insurance_mcp")
}

func TestNewRegistrationConflict(t *testing.T) {
	err := NewRegistrationConflict("tech_support_mcp")

	require.NotNil(t, err)
	assert.True(t, IsRegistrationConflict(err))
	assert.Contains(t, err.Error(), "tech_support_mcp")
}

func TestNewInvalidDomain(t *testing.T) {
	err := NewInvalidDomain("confidence_threshold %.2f out of range", 1.5)

	require.NotNil(t, err)
	assert.True(t, Is(err, ErrInvalidDomain))
	assert.Contains(t, err.Error(), "1.50")
}

func TestWrapHandlerExecution(t *testing.T) {
	cause := New("connection refused")
	err := WrapHandlerExecution(cause, "insurance_mcp")

	assert.True(t, IsHandlerExecution(err))
	assert.True(t, Is(err, cause))
	assert.Contains(t, err.Error(), "insurance_mcp")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHelpersNilSafe(t *testing.T) {
	assert.False(t, IsRegistrationConflict(nil))
	assert.False(t, IsHandlerTimeout(nil))
	assert.False(t, IsHandlerExecution(nil))
	assert.False(t, IsRateLimited(nil))
	assert.False(t, IsNotFoundError(nil))
}
