package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type GameUseCase interface {
	CreateGame(ctx context.Context, size int, isPublic bool) (entity.GameSnapshot, error)
	GetGame(ctx context.Context, gameID string) (entity.GameSnapshot, error)
	FindGame(ctx context.Context, gameID string) (entity.GameSnapshot, error)
	PublicGames(ctx context.Context) []PublicGame
	RemoveGame(ctx context.Context, gameID string) error

	JoinGame(ctx context.Context, gameID, connectionRef, name string) (*SeatResult, error)
	LeaveGame(ctx context.Context, gameID, connectionRef string) (*SeatResult, error)
	LeaveAll(ctx context.Context, connectionRef string) []*SeatResult
	SetReady(ctx context.Context, gameID, connectionRef string, ready bool) (*ReadyResult, error)

	StartGame(ctx context.Context, gameID string) (entity.GameSnapshot, error)
	EndGame(ctx context.Context, gameID string) (entity.GameSnapshot, error)
	MakeMove(ctx context.Context, gameID, connectionRef string, row, col int) (*MoveResult, error)
}

// PublicGame is a lobby entry: a public game with one seated player.
type PublicGame struct {
	ID     string `json:"id"`
	Player string `json:"player"`
}

type SeatResult struct {
	Player entity.PlayerSnapshot
	Game   entity.GameSnapshot
}

type ReadyResult struct {
	Player  entity.PlayerSnapshot
	Game    entity.GameSnapshot
	Started bool
}

type MoveResult struct {
	Placed bool
	Game   entity.GameSnapshot
}

type Limits struct {
	DefaultBoardSize int
	MaxBoardSize     int
	RemoveEmpty      bool
}

type gameRegistry interface {
	CreateGame(size int, isPublic bool) (*entity.Game, error)
	GetGame(id string) (*entity.Game, bool)
	RemoveGame(id string) bool
	ListGames() []*entity.Game
}

type snapshotRepo interface {
	Save(ctx context.Context, snapshot entity.GameSnapshot) error
	GetByID(ctx context.Context, id string) (entity.GameSnapshot, error)
	DeleteByID(ctx context.Context, id string) error
}

type Option func(*gameUseCase)

// WithSnapshots mirrors every game change into repo.
func WithSnapshots(repo snapshotRepo) Option {
	return func(that *gameUseCase) {
		that.snapshots = repo
	}
}

type gameUseCase struct {
	logger    *slog.Logger
	registry  gameRegistry
	snapshots snapshotRepo
	limits    Limits
}

func NewGameUseCase(logger *slog.Logger, registry gameRegistry, limits Limits, opts ...Option) GameUseCase {
	useCase := &gameUseCase{
		logger:   logger.With("component", "game-usecase"),
		registry: registry,
		limits:   limits,
	}

	for _, opt := range opts {
		opt(useCase)
	}

	return useCase
}

func (that *gameUseCase) CreateGame(ctx context.Context, size int, isPublic bool) (entity.GameSnapshot, error) {
	if size == 0 {
		size = that.limits.DefaultBoardSize
	}

	if that.limits.MaxBoardSize > 0 && size > that.limits.MaxBoardSize {
		return entity.GameSnapshot{}, fmt.Errorf("%w: %d is above the limit of %d", apperror.ErrInvalidBoardSize, size, that.limits.MaxBoardSize)
	}

	game, err := that.registry.CreateGame(size, isPublic)
	if err != nil {
		return entity.GameSnapshot{}, fmt.Errorf("could not create game: %w", err)
	}

	snapshot := game.Snapshot()
	that.saveSnapshot(ctx, snapshot)

	that.logger.Info("game created", "gameID", snapshot.ID, "size", size, "public", isPublic)

	return snapshot, nil
}

func (that *gameUseCase) GetGame(_ context.Context, gameID string) (entity.GameSnapshot, error) {
	game, err := that.getGame(gameID)
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	return game.Snapshot(), nil
}

// FindGame returns the live game, or its last mirrored snapshot when this
// process does not host it, e.g. after a restart.
func (that *gameUseCase) FindGame(ctx context.Context, gameID string) (entity.GameSnapshot, error) {
	snapshot, err := that.GetGame(ctx, gameID)
	if err == nil || that.snapshots == nil {
		return snapshot, err
	}

	snapshot, err = that.snapshots.GetByID(ctx, gameID)
	if err != nil {
		return entity.GameSnapshot{}, fmt.Errorf("failed to find game: %w", err)
	}

	return snapshot, nil
}

func (that *gameUseCase) PublicGames(_ context.Context) []PublicGame {
	games := make([]PublicGame, 0)

	for _, game := range that.registry.ListGames() {
		if !game.IsPublic() {
			continue
		}

		snapshot := game.Snapshot()
		if len(snapshot.Players) != 1 {
			continue
		}

		games = append(games, PublicGame{
			ID:     snapshot.ID,
			Player: snapshot.Players[0].Name,
		})
	}

	return games
}

func (that *gameUseCase) RemoveGame(ctx context.Context, gameID string) error {
	if !that.registry.RemoveGame(gameID) {
		return fmt.Errorf("%w: game id %s", apperror.ErrGameNotFound, gameID)
	}

	that.deleteSnapshot(ctx, gameID)

	that.logger.Info("game removed", "gameID", gameID)

	return nil
}

func (that *gameUseCase) JoinGame(ctx context.Context, gameID, connectionRef, name string) (*SeatResult, error) {
	game, err := that.getGame(gameID)
	if err != nil {
		return nil, err
	}

	player, err := game.AddPlayer(entity.NewPlayer(connectionRef, name, false))
	if err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	snapshot := game.Snapshot()
	that.saveSnapshot(ctx, snapshot)

	that.logger.Info("player joined", "gameID", gameID, "playerID", player.ID, "symbol", player.Symbol)

	return &SeatResult{Player: player, Game: snapshot}, nil
}

func (that *gameUseCase) LeaveGame(ctx context.Context, gameID, connectionRef string) (*SeatResult, error) {
	game, err := that.getGame(gameID)
	if err != nil {
		return nil, err
	}

	return that.leave(ctx, game, connectionRef)
}

// LeaveAll removes the connection from every game it is seated in.
func (that *gameUseCase) LeaveAll(ctx context.Context, connectionRef string) []*SeatResult {
	log := that.logger.With("method", "LeaveAll", "connection", connectionRef)

	var results []*SeatResult

	for _, game := range that.registry.ListGames() {
		if _, ok := game.PlayerByConnection(connectionRef); !ok {
			continue
		}

		result, err := that.leave(ctx, game, connectionRef)
		if err != nil {
			// the player left concurrently
			log.Warn("failed to leave game", "gameID", game.ID(), "error", err)
			continue
		}

		results = append(results, result)
	}

	return results
}

func (that *gameUseCase) SetReady(ctx context.Context, gameID, connectionRef string, ready bool) (*ReadyResult, error) {
	game, err := that.getGame(gameID)
	if err != nil {
		return nil, err
	}

	player, err := game.SetReady(connectionRef, ready)
	if err != nil {
		return nil, fmt.Errorf("failed to update player state: %w", err)
	}

	started := false
	if game.AllReady() {
		err = game.Start()
		switch {
		case err == nil:
			started = true
		case errors.Is(err, apperror.ErrInvalidState):
			// another ready call already started it
		default:
			return nil, fmt.Errorf("failed to start game: %w", err)
		}
	}

	snapshot := game.Snapshot()
	that.saveSnapshot(ctx, snapshot)

	if started {
		that.logger.Info("game started", "gameID", gameID)
	}

	return &ReadyResult{Player: player, Game: snapshot, Started: started}, nil
}

func (that *gameUseCase) StartGame(ctx context.Context, gameID string) (entity.GameSnapshot, error) {
	game, err := that.getGame(gameID)
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	if err = game.Start(); err != nil {
		return entity.GameSnapshot{}, fmt.Errorf("failed to start game: %w", err)
	}

	snapshot := game.Snapshot()
	that.saveSnapshot(ctx, snapshot)

	that.logger.Info("game started", "gameID", gameID)

	return snapshot, nil
}

func (that *gameUseCase) EndGame(ctx context.Context, gameID string) (entity.GameSnapshot, error) {
	game, err := that.getGame(gameID)
	if err != nil {
		return entity.GameSnapshot{}, err
	}

	if err = game.End(); err != nil {
		return entity.GameSnapshot{}, fmt.Errorf("failed to end game: %w", err)
	}

	snapshot := game.Snapshot()
	that.saveSnapshot(ctx, snapshot)

	return snapshot, nil
}

// MakeMove plays for the player seated on connectionRef.
func (that *gameUseCase) MakeMove(ctx context.Context, gameID, connectionRef string, row, col int) (*MoveResult, error) {
	game, err := that.getGame(gameID)
	if err != nil {
		return nil, err
	}

	player, ok := game.PlayerByConnection(connectionRef)
	if !ok {
		return nil, fmt.Errorf("%w: connection %s", apperror.ErrPlayerNotFound, connectionRef)
	}

	placed, err := game.MakeMove(row, col, player.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	snapshot := game.Snapshot()
	if placed {
		that.saveSnapshot(ctx, snapshot)
	}

	if snapshot.State == entity.StatusFinished {
		that.logger.Info("game finished", "gameID", gameID, "turn", snapshot.Turn)
	}

	return &MoveResult{Placed: placed, Game: snapshot}, nil
}

func (that *gameUseCase) leave(ctx context.Context, game *entity.Game, connectionRef string) (*SeatResult, error) {
	player, err := game.RemovePlayer(connectionRef)
	if err != nil {
		return nil, fmt.Errorf("failed to leave game: %w", err)
	}

	snapshot := game.Snapshot()

	if that.limits.RemoveEmpty && len(snapshot.Players) == 0 && that.registry.RemoveGame(snapshot.ID) {
		that.deleteSnapshot(ctx, snapshot.ID)
		that.logger.Info("empty game removed", "gameID", snapshot.ID)
	} else {
		that.saveSnapshot(ctx, snapshot)
	}

	that.logger.Info("player left", "gameID", snapshot.ID, "playerID", player.ID)

	return &SeatResult{Player: player, Game: snapshot}, nil
}

func (that *gameUseCase) getGame(gameID string) (*entity.Game, error) {
	game, ok := that.registry.GetGame(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: game id %s", apperror.ErrGameNotFound, gameID)
	}

	return game, nil
}

func (that *gameUseCase) saveSnapshot(ctx context.Context, snapshot entity.GameSnapshot) {
	if that.snapshots == nil {
		return
	}

	if err := that.snapshots.Save(ctx, snapshot); err != nil {
		that.logger.Error("could not save game snapshot", "gameID", snapshot.ID, "error", err)
	}
}

func (that *gameUseCase) deleteSnapshot(ctx context.Context, gameID string) {
	if that.snapshots == nil {
		return
	}

	if err := that.snapshots.DeleteByID(ctx, gameID); err != nil {
		that.logger.Error("could not delete game snapshot", "gameID", gameID, "error", err)
	}
}
