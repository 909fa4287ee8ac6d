package repo

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/izinapp/izin-api/internal/hash"
	"github.com/izinapp/izin-api/internal/models"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// In-memory sqlite is per-connection; keep the pool at one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.AuditLog{}))

	return &Repo{DB: db, Hasher: hash.NewTokenHasher([]byte("test-hash-key"))}
}

func auditEntries(t *testing.T, r *Repo) []models.AuditLog {
	t.Helper()
	var entries []models.AuditLog
	require.NoError(t, r.DB.Order("id").Find(&entries).Error)
	return entries
}

func TestUpsertForUser_CreateThenReplace(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	exp := time.Now().Add(7 * 24 * time.Hour).UTC()

	first, err := r.UpsertForUser(ctx, 42, "token-one", exp, nil)
	require.NoError(t, err)
	assert.Equal(t, uint(42), first.UserID)
	assert.Equal(t, r.Hasher.Sum("token-one"), first.TokenHash)

	second, err := r.UpsertForUser(ctx, 42, "token-two", exp.Add(time.Hour), nil)
	require.NoError(t, err)

	// Replace-not-append: same row, new hash.
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, r.Hasher.Sum("token-two"), second.TokenHash)

	var count int64
	require.NoError(t, r.DB.Model(&models.RefreshToken{}).Where("user_id = ?", 42).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	entries := auditEntries(t, r)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditActionCreate, entries[0].Action)
	assert.Empty(t, entries[0].OldData)
	assert.NotEmpty(t, entries[0].NewData)
	assert.Equal(t, models.AuditActionUpdate, entries[1].Action)
	assert.NotEmpty(t, entries[1].OldData)
	require.NotNil(t, entries[1].TargetID)
	assert.Equal(t, second.ID, *entries[1].TargetID)
}

func TestUpsertForUser_RecordsActor(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	actor := uint(7)
	_, err := r.UpsertForUser(context.Background(), 42, "token", time.Now().Add(time.Hour), &actor)
	require.NoError(t, err)

	entries := auditEntries(t, r)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].UserID)
	assert.Equal(t, actor, *entries[0].UserID)
	assert.Equal(t, "refresh_tokens", entries[0].TargetTable)
}

func TestUpsertForUser_FallbackUpdate(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour).UTC()

	first, err := r.UpsertForUser(ctx, 42, "token-one", exp, nil)
	require.NoError(t, err)

	// Drive the conflict-fallback path directly: it must overwrite in place
	// and audit like any other update.
	saved, err := r.updateForUser(ctx, 42, r.Hasher.Sum("token-two"), exp.Add(time.Hour), nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, saved.ID)
	assert.Equal(t, r.Hasher.Sum("token-two"), saved.TokenHash)

	entries := auditEntries(t, r)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditActionUpdate, entries[1].Action)
	assert.NotEmpty(t, entries[1].OldData)
}

func TestFindLive(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	t.Run("unknown token is a miss", func(t *testing.T) {
		rec, err := r.FindLive(ctx, "never-stored")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("live token is found", func(t *testing.T) {
		_, err := r.UpsertForUser(ctx, 1, "live-token", time.Now().Add(time.Hour), nil)
		require.NoError(t, err)

		rec, err := r.FindLive(ctx, "live-token")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, uint(1), rec.UserID)
	})

	t.Run("expired row still in storage is a miss", func(t *testing.T) {
		_, err := r.UpsertForUser(ctx, 2, "stale-token", time.Now().Add(-time.Minute), nil)
		require.NoError(t, err)

		rec, err := r.FindLive(ctx, "stale-token")
		require.NoError(t, err)
		assert.Nil(t, rec)

		var count int64
		require.NoError(t, r.DB.Model(&models.RefreshToken{}).Where("user_id = ?", 2).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})
}

func TestDeleteByToken(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.UpsertForUser(ctx, 42, "token", time.Now().Add(time.Hour), nil)
	require.NoError(t, err)

	deleted, err := r.DeleteByToken(ctx, "token", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	// Idempotent: a second delete is 0 rows and no extra audit entry.
	deleted, err = r.DeleteByToken(ctx, "token", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, deleted)

	entries := auditEntries(t, r)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditActionDelete, entries[1].Action)
	assert.NotEmpty(t, entries[1].OldData)
	assert.Empty(t, entries[1].NewData)
}

func TestRevokeAllForUser(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.UpsertForUser(ctx, 42, "token", time.Now().Add(time.Hour), nil)
	require.NoError(t, err)

	actor := uint(1)
	affected, err := r.RevokeAllForUser(ctx, 42, &actor)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	rec, err := r.FindLive(ctx, "token")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// Soft revoke: the row survives, only its expiry moved.
	var count int64
	require.NoError(t, r.DB.Model(&models.RefreshToken{}).Where("user_id = ?", 42).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	entries := auditEntries(t, r)
	last := entries[len(entries)-1]
	assert.Equal(t, models.AuditActionRevokeAll, last.Action)
	assert.Nil(t, last.TargetID)
	assert.NotEmpty(t, last.OldData)
	assert.NotEmpty(t, last.NewData)
}
