package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_Password(t *testing.T) {
	u := &User{Username: "admin", Role: RoleAdmin}
	require.NoError(t, u.SetPassword("s3cret"))

	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.True(t, u.CheckPassword("s3cret"))
	assert.False(t, u.CheckPassword("wrong"))
	assert.True(t, u.IsAdmin())
}

func TestUser_BeforeCreateDefaultsRole(t *testing.T) {
	u := &User{Username: "bob"}
	require.NoError(t, u.BeforeCreate(nil))
	assert.Equal(t, RoleUser, u.Role)
	assert.False(t, u.IsAdmin())

	admin := &User{Username: "root", Role: RoleAdmin}
	require.NoError(t, admin.BeforeCreate(nil))
	assert.Equal(t, RoleAdmin, admin.Role)
}
