package model

import (
	"math/rand"

	log "github.com/sirupsen/logrus"
)

const (
	UnitWidth  = 2
	UnitHeight = 2

	DefaultUnitType = "TANK"
)

type PlayerId int32

const (
	NoPlayer PlayerId = iota
	Player1
	Player2
)

type Field struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Unit struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Type  string  `json:"type"`
	Alive bool    `json:"alive"`
}

type FirePoint struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Mortal bool    `json:"mortal"`
	// Own marks where the shooter aimed, drawn on the shooter's own field.
	Own bool `json:"own,omitempty"`
}

type Player struct {
	Id         PlayerId
	Name       string
	Field      Field
	Units      []*Unit
	FirePoints []*FirePoint
}

type GameState int

const (
	InProgress GameState = iota + 1
	Ended
)

type FireOutcome int

const (
	FireIgnored FireOutcome = iota + 1
	FireMiss
	FireHit
	FireWon
)

// Refresher is notified after every state-mutating operation of a Game.
type Refresher interface {
	Refresh(s Snapshot)
}

// RefreshFunc adapts a plain function to Refresher.
type RefreshFunc func(s Snapshot)

func (f RefreshFunc) Refresh(s Snapshot) {
	f(s)
}

type Game struct {
	Player1, Player2 *Player
	Current          *Player
	Ended            bool

	MirrorOwnShots bool

	Refresher Refresher
	Log       log.FieldLogger

	rnd *rand.Rand
}
