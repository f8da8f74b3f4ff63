package server_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glyphd/glyphd/internal/server"
)

func TestShutdownHooksRunInOrder(t *testing.T) {
	var hooks server.ShutdownHooks
	var order []string

	hooks.Add("first", func() error {
		order = append(order, "first")
		return nil
	})
	hooks.AddContext("second", func(context.Context) error {
		order = append(order, "second")
		return nil
	})

	hooks.Execute(context.Background())

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestShutdownHooksContinueAfterFailure(t *testing.T) {
	var hooks server.ShutdownHooks
	var ran bool

	hooks.Add("failing", func() error { return errors.New("boom") })
	hooks.Add("after", func() error {
		ran = true
		return nil
	})

	hooks.Execute(context.Background())

	assert.True(t, ran)
}

func TestShutdownHooksIgnoreNil(t *testing.T) {
	var hooks server.ShutdownHooks

	hooks.Add("nil", nil)
	hooks.AddContext("nil-ctx", nil)

	// nothing registered, Execute is a no-op
	hooks.Execute(context.Background())
}
