package model

// Snapshot is a deep copy of the table handed to renderers.
type Snapshot struct {
	Player1 PlayerSnapshot `json:"player1"`
	Player2 PlayerSnapshot `json:"player2"`
	Current PlayerId       `json:"current"`
	Ended   bool           `json:"ended"`
}

type PlayerSnapshot struct {
	Id         PlayerId    `json:"id"`
	Name       string      `json:"name"`
	Field      Field       `json:"field"`
	AliveUnits int         `json:"aliveUnits"`
	Units      []Unit      `json:"units"`
	FirePoints []FirePoint `json:"firePoints"`
}

type Notice struct {
	Outcome FireOutcome
	Player  PlayerId
	X, Y    float64
}

type ServerMessage struct {
	Refresh []Snapshot
	Notices []Notice
}

type FireCommand struct {
	Player PlayerId
	X, Y   float64
}

type ClientMessage struct {
	Fire  []FireCommand
	Reset bool
}

func (p *Player) Snapshot() PlayerSnapshot {
	units := make([]Unit, 0, len(p.Units))
	for _, u := range p.Units {
		units = append(units, *u)
	}
	fps := make([]FirePoint, 0, len(p.FirePoints))
	for _, fp := range p.FirePoints {
		fps = append(fps, *fp)
	}
	return PlayerSnapshot{
		Id:         p.Id,
		Name:       p.Name,
		Field:      p.Field,
		AliveUnits: p.AliveUnitsLength(),
		Units:      units,
		FirePoints: fps,
	}
}

func (s Snapshot) Player(id PlayerId) *PlayerSnapshot {
	switch id {
	case Player1:
		return &s.Player1
	case Player2:
		return &s.Player2
	default:
		return nil
	}
}
