package entity

import (
	"fmt"

	"github.com/rocketscienceinc/gomoku-backend/internal/apperror"
)

const (
	EmptyCell = 0
	Player1   = 1
	Player2   = 2
)

// Board is a square grid of cell occupants. A cell, once set, never changes.
type Board struct {
	size  int
	cells []int
}

func NewBoard(size int) (*Board, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", apperror.ErrInvalidBoardSize, size)
	}

	return &Board{
		size:  size,
		cells: make([]int, size*size),
	}, nil
}

func (that *Board) Size() int {
	return that.size
}

func (that *Board) IsWithinBounds(row, col int) bool {
	return row >= 0 && row < that.size && col >= 0 && col < that.size
}

func (that *Board) IsCellEmpty(row, col int) (bool, error) {
	if !that.IsWithinBounds(row, col) {
		return false, fmt.Errorf("%w: cell (%d, %d)", apperror.ErrOutOfRange, row, col)
	}

	return that.cells[that.index(row, col)] == EmptyCell, nil
}

// SetCell writes symbol into an empty cell. An occupied cell is not an error:
// it reports false and leaves the board untouched.
func (that *Board) SetCell(row, col, symbol int) (bool, error) {
	empty, err := that.IsCellEmpty(row, col)
	if err != nil {
		return false, err
	}

	if !empty {
		return false, nil
	}

	that.cells[that.index(row, col)] = symbol

	return true, nil
}

// Cell returns the occupant at (row, col), or EmptyCell outside the board.
func (that *Board) Cell(row, col int) int {
	if !that.IsWithinBounds(row, col) {
		return EmptyCell
	}

	return that.cells[that.index(row, col)]
}

func (that *Board) IsFull() bool {
	for _, cell := range that.cells {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// Grid returns a row-major copy of the cells.
func (that *Board) Grid() [][]int {
	grid := make([][]int, that.size)
	for row := range grid {
		grid[row] = make([]int, that.size)
		copy(grid[row], that.cells[row*that.size:(row+1)*that.size])
	}

	return grid
}

func (that *Board) index(row, col int) int {
	return row*that.size + col
}
