package usecase

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

// GameManager is the registry of live game sessions. Its lock only guards
// membership; it is never held while a game's own lock is taken.
type GameManager struct {
	mu    sync.RWMutex
	games map[string]*entity.Game
}

func NewGameManager() *GameManager {
	return &GameManager{
		games: make(map[string]*entity.Game),
	}
}

// CreateGame builds a game with a fresh id and registers it.
func (that *GameManager) CreateGame(size int, isPublic bool) (*entity.Game, error) {
	game, err := entity.NewGame(size, isPublic)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	if err = that.add(game); err != nil {
		return nil, err
	}

	return game, nil
}

func (that *GameManager) GetGame(id string) (*entity.Game, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	game, ok := that.games[id]

	return game, ok
}

func (that *GameManager) RemoveGame(id string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[id]; !ok {
		return false
	}

	delete(that.games, id)

	return true
}

// ListGames returns the games registered at the time of the call, in no particular order.
func (that *GameManager) ListGames() []*entity.Game {
	that.mu.RLock()
	defer that.mu.RUnlock()

	games := make([]*entity.Game, 0, len(that.games))
	for _, game := range that.games {
		games = append(games, game)
	}

	return games
}

func (that *GameManager) add(game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[game.ID()]; ok {
		return fmt.Errorf("%w: game id %s", apperror.ErrGameAlreadyExists, game.ID())
	}

	that.games[game.ID()] = game

	return nil
}
