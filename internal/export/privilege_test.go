package export

import (
	"context"
	"errors"
	"testing"

	"github.com/matillion/mattermost-export/internal/mattermost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrivilege_Admin(t *testing.T) {
	api := newFakeAPI()
	api.me = mattermost.User{ID: "u1", Username: "root", Roles: "system_user system_admin"}

	priv, me, err := ResolvePrivilege(context.Background(), api)
	require.NoError(t, err)

	assert.Equal(t, PrivilegeAdmin, priv)
	assert.True(t, priv.IncludeDeleted())
	assert.Equal(t, "root", me.Username)
}

func TestResolvePrivilege_Standard(t *testing.T) {
	api := newFakeAPI()
	api.me = mattermost.User{ID: "u2", Username: "joe", Roles: "system_user"}

	priv, _, err := ResolvePrivilege(context.Background(), api)
	require.NoError(t, err)

	assert.Equal(t, PrivilegeStandard, priv)
	assert.False(t, priv.IncludeDeleted())
}

func TestResolvePrivilege_PropagatesError(t *testing.T) {
	api := newFakeAPI() // no principal configured

	_, _, err := ResolvePrivilege(context.Background(), api)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mattermost.ErrNotFound))
}

func TestPrivilege_String(t *testing.T) {
	assert.Equal(t, "admin", PrivilegeAdmin.String())
	assert.Equal(t, "standard", PrivilegeStandard.String())
}
