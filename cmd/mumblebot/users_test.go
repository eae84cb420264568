package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/mumblebot/internal/core"
	"github.com/vovakirdan/mumblebot/internal/service/registered"
)

type staticUsers map[string]uint32

func (u staticUsers) ByName(_ context.Context, name string) (registered.User, error) {
	id, ok := u[name]
	if !ok {
		return registered.User{}, &core.UserNotRegisteredError{Name: name}
	}
	return registered.User{UserID: id, Name: name}, nil
}

func TestResolveUserIDNumericNameIsAName(t *testing.T) {
	users := staticUsers{"1234": 7}

	id, err := resolveUserID(context.Background(), users, "1234", false)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), id)
}

func TestResolveUserIDByFlag(t *testing.T) {
	id, err := resolveUserID(context.Background(), staticUsers{}, "42", true)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), id)

	_, err = resolveUserID(context.Background(), staticUsers{}, "alice", true)
	assert.Error(t, err)
}

func TestResolveUserIDUnknownName(t *testing.T) {
	_, err := resolveUserID(context.Background(), staticUsers{}, "nobody", false)

	var notRegistered *core.UserNotRegisteredError
	assert.ErrorAs(t, err, &notRegistered)
}

func TestDeregisterCommandFlags(t *testing.T) {
	cmd := deregisterCmd(&globalFlags{})

	f := cmd.Flags().Lookup("id")
	require.NotNil(t, f)
	assert.Equal(t, "false", f.DefValue)
	assert.Error(t, cmd.Args(cmd, nil))
	assert.NoError(t, cmd.Args(cmd, []string{"alice"}))
}
