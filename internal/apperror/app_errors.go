package apperror

import "errors"

var (
	ErrOutOfRange       = errors.New("coordinates are out of bounds")
	ErrInvalidBoardSize = errors.New("board size must be positive")

	ErrInvalidState    = errors.New("operation is not allowed in the current game state")
	ErrGameFull        = errors.New("game is full")
	ErrGameNotFull     = errors.New("game is not full")
	ErrDuplicatePlayer = errors.New("player is already in the game")
	ErrPlayerNotFound  = errors.New("player is not in the game")
	ErrNotYourTurn     = errors.New("it's not your turn")

	ErrGameNotFound      = errors.New("game not found")
	ErrGameAlreadyExists = errors.New("game already exists")
)
