package repository

// Refresh-token persistence tests.  They need a real MySQL instance; set
// TICKETING_TEST_MYSQL_DSN to run them, otherwise they are skipped.

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func openTokenTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TICKETING_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TICKETING_TEST_MYSQL_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx))
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY refresh_tokens_hash (token_hash)
	) ENGINE=InnoDB`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "DELETE FROM refresh_tokens")
	require.NoError(t, err)
	return db
}

const testHashA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
const testHashB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"

// A revoked hash must stop validating immediately: token rotation counts
// on the old token being dead before the new pair is handed out.
func TestRevokedTokenStopsValidating(t *testing.T) {
	repo := NewTokenRepo(openTokenTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.StoreRefresh(ctx, 7, testHashA, time.Now().UTC().Add(time.Hour)))

	userID, err := repo.ValidateRefresh(ctx, testHashA)
	require.NoError(t, err)
	require.Equal(t, uint64(7), userID)

	require.NoError(t, repo.RevokeByHash(ctx, testHashA))

	_, err = repo.ValidateRefresh(ctx, testHashA)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestExpiredTokenDoesNotValidate(t *testing.T) {
	repo := NewTokenRepo(openTokenTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.StoreRefresh(ctx, 7, testHashA, time.Now().UTC().Add(-time.Minute)))

	_, err := repo.ValidateRefresh(ctx, testHashA)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRevokeAllForUserKillsEverySession(t *testing.T) {
	repo := NewTokenRepo(openTokenTestDB(t))
	ctx := context.Background()
	exp := time.Now().UTC().Add(time.Hour)

	require.NoError(t, repo.StoreRefresh(ctx, 7, testHashA, exp))
	require.NoError(t, repo.StoreRefresh(ctx, 7, testHashB, exp))

	require.NoError(t, repo.RevokeAllForUser(ctx, 7))

	_, err := repo.ValidateRefresh(ctx, testHashA)
	require.ErrorIs(t, err, sql.ErrNoRows)
	_, err = repo.ValidateRefresh(ctx, testHashB)
	require.ErrorIs(t, err, sql.ErrNoRows)
}
