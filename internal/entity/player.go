package entity

import "github.com/google/uuid"

type TurnState string

const (
	TurnWaiting  TurnState = "waiting"
	TurnReady    TurnState = "ready"
	TurnThinking TurnState = "thinking"
	TurnPlaying  TurnState = "playing"
)

// Player is a seat holder. Once added to a Game it is guarded by the game's
// lock and must be observed through snapshots.
type Player struct {
	id            string
	connectionRef string
	name          string
	isAI          bool
	symbol        int
	score         int
	turnState     TurnState
}

type PlayerSnapshot struct {
	ID            string    `json:"id"`
	ConnectionRef string    `json:"connection_id"`
	Name          string    `json:"name"`
	IsAI          bool      `json:"is_ai"`
	Symbol        int       `json:"symbol"`
	Score         int       `json:"score"`
	TurnState     TurnState `json:"state"`
}

func NewPlayer(connectionRef, name string, isAI bool) *Player {
	player := &Player{
		id:            uuid.NewString(),
		connectionRef: connectionRef,
		name:          name,
		isAI:          isAI,
	}
	player.resetTurnState()

	return player
}

func (that *Player) ID() string {
	return that.id
}

func (that *Player) ConnectionRef() string {
	return that.connectionRef
}

func (that *Player) Name() string {
	return that.name
}

func (that *Player) IsAI() bool {
	return that.isAI
}

func (that *Player) Symbol() int {
	return that.symbol
}

func (that *Player) Score() int {
	return that.score
}

func (that *Player) TurnState() TurnState {
	return that.turnState
}

func (that *Player) Snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID:            that.id,
		ConnectionRef: that.connectionRef,
		Name:          that.name,
		IsAI:          that.isAI,
		Symbol:        that.symbol,
		Score:         that.score,
		TurnState:     that.turnState,
	}
}

// resetTurnState puts the player back into its idle phase.
func (that *Player) resetTurnState() {
	if that.isAI {
		that.turnState = TurnReady
		return
	}

	that.turnState = TurnWaiting
}

func (that *Player) toggleTurn() {
	switch that.turnState {
	case TurnPlaying:
		that.turnState = TurnThinking
	case TurnThinking:
		that.turnState = TurnPlaying
	case TurnWaiting, TurnReady:
	}
}
