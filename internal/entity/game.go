package entity

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

type SessionState string

const (
	StatusWaiting    SessionState = "waiting_for_players"
	StatusInProgress SessionState = "in_progress"
	StatusFinished   SessionState = "finished"
)

const (
	seatCount = 2

	// neighbours on one axis, besides the placed stone, that make exactly five in a row.
	// Longer lines do not win.
	winNeighbours = 4
)

// axes are the four lines through a cell: vertical, horizontal and both diagonals.
var axes = [4][2]int{
	{1, 0},
	{0, 1},
	{1, 1},
	{1, -1},
}

// Game is one five-in-a-row session. All mutations are serialized by the
// game's own lock, so different games never contend with each other.
type Game struct {
	mu sync.Mutex

	id       string
	isPublic bool
	board    *Board
	seats    [seatCount]*Player
	round    int
	turn     int
	state    SessionState

	// version grows on every change, so older snapshots can be told apart from newer ones.
	version int
}

type GameSnapshot struct {
	ID              string           `json:"id"`
	Size            int              `json:"size"`
	Board           [][]int          `json:"board"`
	Players         []PlayerSnapshot `json:"players"`
	CurrentPlayerID string           `json:"current_player_id,omitempty"`
	Round           int              `json:"round"`
	Turn            int              `json:"turn"`
	State           SessionState     `json:"state"`
	IsPublic        bool             `json:"is_public"`
	Version         int              `json:"version"`
}

func NewGame(size int, isPublic bool) (*Game, error) {
	board, err := NewBoard(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	return &Game{
		id:       uuid.NewString(),
		isPublic: isPublic,
		board:    board,
		round:    1,
		turn:     1,
		state:    StatusWaiting,
		version:  1,
	}, nil
}

func (that *Game) ID() string {
	return that.id
}

func (that *Game) IsPublic() bool {
	return that.isPublic
}

func (that *Game) State() SessionState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state
}

func (that *Game) PlayerCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.playerCount()
}

// AddPlayer seats the player in the first free seat. The seat fixes the
// player's symbol: seat 0 plays Player1, seat 1 plays Player2.
func (that *Game) AddPlayer(player *Player) (PlayerSnapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != StatusWaiting {
		return PlayerSnapshot{}, fmt.Errorf("%w: game is %s", apperror.ErrInvalidState, that.state)
	}

	if that.playerCount() == seatCount {
		return PlayerSnapshot{}, apperror.ErrGameFull
	}

	if that.findSeat(player.connectionRef) >= 0 {
		return PlayerSnapshot{}, fmt.Errorf("%w: connection %s", apperror.ErrDuplicatePlayer, player.connectionRef)
	}

	for seat := range that.seats {
		if that.seats[seat] != nil {
			continue
		}

		player.symbol = seat + 1
		player.resetTurnState()
		that.seats[seat] = player
		that.version++

		break
	}

	return player.Snapshot(), nil
}

// RemovePlayer frees the player's seat and rolls the session back to
// waiting for players, whatever state it was in. The remaining player is
// reset to its idle phase.
func (that *Game) RemovePlayer(connectionRef string) (PlayerSnapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	seat := that.findSeat(connectionRef)
	if seat < 0 {
		return PlayerSnapshot{}, fmt.Errorf("%w: connection %s", apperror.ErrPlayerNotFound, connectionRef)
	}

	removed := that.seats[seat]
	that.seats[seat] = nil
	that.state = StatusWaiting

	for _, player := range that.seats {
		if player != nil {
			player.resetTurnState()
		}
	}

	that.version++

	return removed.Snapshot(), nil
}

// SetReady flips a seated player between waiting and ready before the game
// starts. AI players are always ready.
func (that *Game) SetReady(connectionRef string, ready bool) (PlayerSnapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	seat := that.findSeat(connectionRef)
	if seat < 0 {
		return PlayerSnapshot{}, fmt.Errorf("%w: connection %s", apperror.ErrPlayerNotFound, connectionRef)
	}

	if that.state != StatusWaiting {
		return PlayerSnapshot{}, fmt.Errorf("%w: game is %s", apperror.ErrInvalidState, that.state)
	}

	player := that.seats[seat]
	switch {
	case ready || player.isAI:
		player.turnState = TurnReady
	default:
		player.turnState = TurnWaiting
	}

	that.version++

	return player.Snapshot(), nil
}

// AllReady reports whether both seats are taken by ready players.
func (that *Game) AllReady() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, player := range that.seats {
		if player == nil || player.turnState != TurnReady {
			return false
		}
	}

	return true
}

func (that *Game) Start() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != StatusWaiting {
		return fmt.Errorf("%w: game is %s", apperror.ErrInvalidState, that.state)
	}

	if that.playerCount() != seatCount {
		return apperror.ErrGameNotFull
	}

	that.state = StatusInProgress
	that.seats[0].turnState = TurnThinking
	that.seats[1].turnState = TurnPlaying
	that.version++

	return nil
}

func (that *Game) End() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.end(); err != nil {
		return err
	}

	that.version++

	return nil
}

// MakeMove places the current player's symbol at (row, col). It reports false
// without error when the cell is already taken. A placement that completes
// five in a row wins, one that fills the board draws, anything else passes
// the turn.
func (that *Game) MakeMove(row, col int, playerID string) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != StatusInProgress {
		return false, fmt.Errorf("%w: game is %s", apperror.ErrInvalidState, that.state)
	}

	current := that.currentPlayer()
	if current == nil || current.id != playerID {
		return false, apperror.ErrNotYourTurn
	}

	placed, err := that.board.SetCell(row, col, current.symbol)
	if err != nil {
		return false, fmt.Errorf("invalid move: %w", err)
	}

	if !placed {
		return false, nil
	}

	that.version++

	switch {
	case that.isWinningMove(row, col, current.symbol):
		current.score++
		if err = that.end(); err != nil {
			return true, err
		}
	case that.board.IsFull():
		if err = that.end(); err != nil {
			return true, err
		}
	default:
		that.nextTurn()
	}

	return true, nil
}

// CurrentPlayer returns the player whose seat matches the current turn.
func (that *Game) CurrentPlayer() (PlayerSnapshot, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player := that.currentPlayer()
	if player == nil {
		return PlayerSnapshot{}, false
	}

	return player.Snapshot(), true
}

func (that *Game) PlayerByConnection(connectionRef string) (PlayerSnapshot, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	seat := that.findSeat(connectionRef)
	if seat < 0 {
		return PlayerSnapshot{}, false
	}

	return that.seats[seat].Snapshot(), true
}

func (that *Game) Snapshot() GameSnapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot := GameSnapshot{
		ID:       that.id,
		Size:     that.board.Size(),
		Board:    that.board.Grid(),
		Players:  make([]PlayerSnapshot, 0, seatCount),
		Round:    that.round,
		Turn:     that.turn,
		State:    that.state,
		IsPublic: that.isPublic,
		Version:  that.version,
	}

	for _, player := range that.seats {
		if player != nil {
			snapshot.Players = append(snapshot.Players, player.Snapshot())
		}
	}

	if that.state == StatusInProgress {
		if current := that.currentPlayer(); current != nil {
			snapshot.CurrentPlayerID = current.id
		}
	}

	return snapshot
}

func (that *Game) end() error {
	if that.state != StatusInProgress {
		return fmt.Errorf("%w: game is %s", apperror.ErrInvalidState, that.state)
	}

	for _, player := range that.seats {
		if player != nil {
			player.resetTurnState()
		}
	}

	that.state = StatusFinished

	return nil
}

func (that *Game) nextTurn() {
	for _, player := range that.seats {
		if player != nil {
			player.toggleTurn()
		}
	}

	that.turn++
}

// currentPlayer rotates over occupied seats in seat order.
func (that *Game) currentPlayer() *Player {
	seated := make([]*Player, 0, seatCount)
	for _, player := range that.seats {
		if player != nil {
			seated = append(seated, player)
		}
	}

	if len(seated) == 0 {
		return nil
	}

	return seated[(that.turn-1)%len(seated)]
}

func (that *Game) playerCount() int {
	count := 0
	for _, player := range that.seats {
		if player != nil {
			count++
		}
	}

	return count
}

func (that *Game) findSeat(connectionRef string) int {
	for seat, player := range that.seats {
		if player != nil && player.connectionRef == connectionRef {
			return seat
		}
	}

	return -1
}

func (that *Game) isWinningMove(row, col, symbol int) bool {
	for _, axis := range axes {
		dr, dc := axis[0], axis[1]

		count := that.countConsecutive(row, col, symbol, dr, dc) + that.countConsecutive(row, col, symbol, -dr, -dc)
		if count == winNeighbours {
			return true
		}
	}

	return false
}

// countConsecutive counts same-symbol cells strictly beyond (row, col) in one direction.
func (that *Game) countConsecutive(row, col, symbol, dr, dc int) int {
	count := 0

	for r, c := row+dr, col+dc; that.board.IsWithinBounds(r, c) && that.board.Cell(r, c) == symbol; r, c = r+dr, c+dc {
		count++
	}

	return count
}
