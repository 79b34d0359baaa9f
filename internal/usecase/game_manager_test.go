package usecase

import (
	"sync"
	"testing"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameManager_CreateGame(t *testing.T) {
	t.Run("Registers a new game", func(t *testing.T) {
		// Given: an empty manager
		manager := NewGameManager()

		// When: creating a game
		game, err := manager.CreateGame(15, true)
		require.NoError(t, err)

		// Then: it can be found by id
		found, ok := manager.GetGame(game.ID())
		require.True(t, ok)
		assert.Same(t, game, found)
		assert.True(t, found.IsPublic())
	})

	t.Run("Invalid size is rejected and nothing is registered", func(t *testing.T) {
		manager := NewGameManager()

		game, err := manager.CreateGame(0, false)

		require.ErrorIs(t, err, apperror.ErrInvalidBoardSize)
		assert.Nil(t, game)
		assert.Empty(t, manager.ListGames())
	})

	t.Run("Id collision is reported", func(t *testing.T) {
		manager := NewGameManager()
		game, err := entity.NewGame(15, false)
		require.NoError(t, err)
		require.NoError(t, manager.add(game))

		err = manager.add(game)

		require.ErrorIs(t, err, apperror.ErrGameAlreadyExists)
	})
}

func TestGameManager_GetGame(t *testing.T) {
	manager := NewGameManager()

	game, ok := manager.GetGame("missing")

	assert.False(t, ok)
	assert.Nil(t, game)
}

func TestGameManager_RemoveGame(t *testing.T) {
	// Given: a registered game
	manager := NewGameManager()
	game, err := manager.CreateGame(15, false)
	require.NoError(t, err)

	// When: removing it twice
	first := manager.RemoveGame(game.ID())
	second := manager.RemoveGame(game.ID())

	// Then: only the first removal reports success
	assert.True(t, first)
	assert.False(t, second)
	_, ok := manager.GetGame(game.ID())
	assert.False(t, ok)
}

func TestGameManager_ListGames(t *testing.T) {
	manager := NewGameManager()
	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		game, err := manager.CreateGame(15, i%2 == 0)
		require.NoError(t, err)
		ids[game.ID()] = true
	}

	games := manager.ListGames()

	require.Len(t, games, 3)
	for _, game := range games {
		assert.True(t, ids[game.ID()])
	}
}

func TestGameManager_Concurrent(t *testing.T) {
	// Given: many callers creating and looking up games at once
	manager := NewGameManager()

	const callers = 50

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			game, err := manager.CreateGame(15, true)
			if !assert.NoError(t, err) {
				return
			}

			found, ok := manager.GetGame(game.ID())
			assert.True(t, ok)
			assert.Equal(t, entity.StatusWaiting, found.State())
			_ = manager.ListGames()
		}()
	}
	wg.Wait()

	// Then: every game was registered
	assert.Len(t, manager.ListGames(), callers)
}
