package repository

import (
	"testing"
	"time"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/testing/suite"
	"github.com/stretchr/testify/require"
)

func TestGameRepository_RealRedis(t *testing.T) {
	ctx, st := suite.New(t)

	gameRepo := NewGameRepository(st.Storage, time.Minute)

	// Given: a saved snapshot
	snapshot := newStartedSnapshot(t)
	require.NoError(t, gameRepo.Save(ctx, snapshot))
	require.ElementsMatch(t, []string{GameKey(snapshot.ID), VersionKey(snapshot.ID)}, st.Keys(ctx, GameKey("*")))

	// When: it is read back and a stale copy arrives later
	stale := snapshot
	stale.Version--
	stale.Turn = 1
	require.NoError(t, gameRepo.Save(ctx, stale))

	found, err := gameRepo.GetByID(ctx, snapshot.ID)

	// Then: the newer snapshot survives and can be deleted
	require.NoError(t, err)
	require.Equal(t, snapshot, found)

	ttl, err := st.Storage.TTL(ctx, GameKey(snapshot.ID)).Result()
	require.NoError(t, err)
	require.Positive(t, ttl)

	require.NoError(t, gameRepo.DeleteByID(ctx, snapshot.ID))
	require.Empty(t, st.Keys(ctx, GameKey("*")))
	_, err = gameRepo.GetByID(ctx, snapshot.ID)
	require.ErrorIs(t, err, apperror.ErrGameNotFound)
}
