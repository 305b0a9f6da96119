package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/haulquote/internal/db"
)

func TestRevokeAndCheckToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "test-jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, RevokeToken(ctx, database, "test-jti-1", time.Now().Add(time.Hour)))
	// Revoking twice is not an error.
	require.NoError(t, RevokeToken(ctx, database, "test-jti-1", time.Now().Add(time.Hour)))

	revoked, err = IsTokenRevoked(ctx, database, "test-jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = IsTokenRevoked(ctx, database, "test-jti-2")
	assert.False(t, revoked, "expected different token not to be revoked")
}

func TestPurgeExpiredTokens(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := database.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		"old", time.Now().UTC().Add(-time.Hour),
	)
	require.NoError(t, err)
	require.NoError(t, RevokeToken(ctx, database, "fresh", time.Now().Add(time.Hour)))

	revoked, _ := IsTokenRevoked(ctx, database, "old")
	assert.False(t, revoked, "expected expired revocation to be purged")
	revoked, _ = IsTokenRevoked(ctx, database, "fresh")
	assert.True(t, revoked, "expected fresh revocation to remain")
}
