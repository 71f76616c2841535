package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksThenHalts(t *testing.T) {
	var order []string
	var haltReason string
	var haltErr error

	s := NewShutdown(func(reason string, err error) {
		order = append(order, "halt")
		haltReason = reason
		haltErr = err
	}, NewTrace())
	s.OnShutdown(func() { order = append(order, "display") })
	s.OnShutdown(func() { order = append(order, "dump") })

	cause := errors.New("short read")
	s.Try("Error in reading from the file", cause)

	assert.True(t, s.IsShutdown())
	assert.Equal(t, []string{"display", "dump", "halt"}, order)
	assert.Equal(t, "Error in reading from the file", haltReason)
	require.ErrorIs(t, haltErr, cause)
}

func TestShutdownOnlyOnce(t *testing.T) {
	halts := 0
	s := NewShutdown(func(string, error) { halts++ }, nil)

	s.Try("first", nil)
	s.Try("second", nil)

	assert.Equal(t, 1, halts)
}
