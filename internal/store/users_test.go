package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/haulquote/internal/db"
	"github.com/erazemk/haulquote/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "testuser", "hash123", model.RoleOperator)
	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, model.RoleOperator, user.Role)
	assert.False(t, user.CreatedAt.IsZero(), "expected created_at to be set")

	got, err := GetUser(ctx, database, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "testuser", got.Username)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	database := db.NewTestDB(t)

	_, err := CreateUser(context.Background(), database, "x", "hash", "superuser")
	assert.Error(t, err, "expected role check constraint to fail")
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "hash", model.RoleAdmin)

	user, err := GetUserByUsername(ctx, database, "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)

	missing, err := GetUserByUsername(ctx, database, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "a", "hash", model.RoleViewer)
	CreateUser(ctx, database, "b", "hash", model.RoleOperator)

	users, err := ListUsers(ctx, database)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestDeleteUserFreesUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "deleteme", "hash", model.RoleViewer)
	require.NoError(t, DeleteUser(ctx, database, user.ID))

	users, _ := ListUsers(ctx, database)
	assert.Empty(t, users)

	u, _ := GetUserByUsername(ctx, database, "deleteme")
	assert.Nil(t, u, "expected deleted user to be hidden from username lookup")
	assert.ErrorIs(t, DeleteUser(ctx, database, user.ID), ErrNotFound)

	_, err := CreateUser(ctx, database, "deleteme", "hash", model.RoleViewer)
	assert.NoError(t, err, "expected username to be reusable")
}

func TestUpdateUserRoleAndPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pwuser", "oldhash", model.RoleViewer)
	require.NoError(t, UpdateUserPassword(ctx, database, user.ID, "newhash"))
	require.NoError(t, UpdateUserRole(ctx, database, user.ID, model.RoleAdmin))

	got, err := GetUser(ctx, database, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", got.PasswordHash)
	assert.Equal(t, model.RoleAdmin, got.Role)

	n, err := CountAdmins(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, UpdateUserRole(ctx, database, 9999, model.RoleAdmin), ErrNotFound)
}
