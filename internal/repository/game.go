package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

const (
	gameKeyPrefix     = "game:"
	versionKeySuffix  = ":version"
	gameChannelPrefix = "gomoku:games:"
)

// saveScript writes and publishes a snapshot only when its version is newer
// than the stored one. It returns 0 for a stale snapshot.
//
// KEYS[1] snapshot key, KEYS[2] version key.
// ARGV[1] snapshot json, ARGV[2] version, ARGV[3] ttl in ms (0 keeps forever), ARGV[4] channel.
var saveScript = redis.NewScript(`
local stored = tonumber(redis.call('GET', KEYS[2]) or '0')
local version = tonumber(ARGV[2])
if version <= stored then
	return 0
end

local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ttl)
else
	redis.call('SET', KEYS[1], ARGV[1])
	redis.call('SET', KEYS[2], ARGV[2])
end

redis.call('PUBLISH', ARGV[4], ARGV[1])
return 1
`)

type GameRepository interface {
	Save(ctx context.Context, snapshot entity.GameSnapshot) error
	GetByID(ctx context.Context, id string) (entity.GameSnapshot, error)
	DeleteByID(ctx context.Context, id string) error
}

type dbGame struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameRepository stores game snapshots under game:<id>. A zero ttl keeps them forever.
func NewGameRepository(client *redis.Client, ttl time.Duration) GameRepository {
	return &dbGame{
		client: client,
		ttl:    ttl,
	}
}

// GameKey is the key a game snapshot is stored under.
func GameKey(id string) string {
	return gameKeyPrefix + id
}

// VersionKey holds the version of the snapshot stored under GameKey.
func VersionKey(id string) string {
	return gameKeyPrefix + id + versionKeySuffix
}

// GameChannel is the pub/sub channel snapshot updates for a game are published on.
func GameChannel(id string) string {
	return gameChannelPrefix + id
}

// Save stores the snapshot and publishes it to the game's channel. A snapshot
// that is not newer than the stored one is dropped, so saves racing after the
// game lock is released cannot roll the mirror back.
func (that *dbGame) Save(ctx context.Context, snapshot entity.GameSnapshot) error {
	gameJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	keys := []string{GameKey(snapshot.ID), VersionKey(snapshot.ID)}
	err = saveScript.Run(ctx, that.client, keys, gameJSON, snapshot.Version, that.ttl.Milliseconds(), GameChannel(snapshot.ID)).Err()
	if err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (entity.GameSnapshot, error) {
	response, err := that.client.Get(ctx, GameKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return entity.GameSnapshot{}, fmt.Errorf("%w: game id %s", apperror.ErrGameNotFound, id)
	}

	if err != nil {
		return entity.GameSnapshot{}, fmt.Errorf("failed to get game by id: %w", err)
	}

	var snapshot entity.GameSnapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return entity.GameSnapshot{}, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return snapshot, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, id string) error {
	if err := that.client.Del(ctx, GameKey(id), VersionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete game by id: %w", err)
	}

	return nil
}
