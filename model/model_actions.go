package model

import (
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
)

func NewUnit(x, y float64) *Unit {
	return &Unit{X: x, Y: y, W: UnitWidth, H: UnitHeight, Type: DefaultUnitType, Alive: true}
}

func RandomUnit(f Field, rnd *rand.Rand) *Unit {
	u := NewUnit(0, 0)
	u.RandomizePosition(f, rnd)
	return u
}

// Fire reports whether the shot at x,y killed the unit. Both edges of the
// hit box are inclusive.
func (u *Unit) Fire(x, y float64) bool {
	if !u.Alive {
		return false
	}
	if x >= u.X && x <= u.X+u.W && y >= u.Y && y <= u.Y+u.H {
		u.Alive = false
		return true
	}
	return false
}

func (u *Unit) RandomizePosition(f Field, rnd *rand.Rand) {
	u.X = rnd.Float64() * (f.Width - u.W)
	u.Y = rnd.Float64() * (f.Height - u.H)
}

func (u *Unit) Reset() {
	u.Alive = true
}

func (u *Unit) String() string {
	state := "+"
	if !u.Alive {
		state = "X"
	}
	return fmt.Sprintf("T(%v, %v)[%s]", u.X, u.Y, state)
}

func (fp *FirePoint) String() string {
	return fmt.Sprintf("[%v,%v]", fp.X, fp.Y)
}

func NewPlayer(id PlayerId, name string, field Field, units []*Unit) *Player {
	return &Player{
		Id:         id,
		Name:       name,
		Field:      field,
		Units:      units,
		FirePoints: make([]*FirePoint, 0),
	}
}

func (p *Player) AliveUnitsLength() int {
	c := 0
	for _, u := range p.Units {
		if u.Alive {
			c++
		}
	}
	return c
}

func (p *Player) AddFirePoint(fp *FirePoint) {
	p.FirePoints = append(p.FirePoints, fp)
}

// Reset starts a fresh round: same roster, full health, new positions.
func (p *Player) Reset(rnd *rand.Rand) {
	p.FirePoints = make([]*FirePoint, 0)
	for _, u := range p.Units {
		u.Reset()
		u.RandomizePosition(p.Field, rnd)
	}
}

func (p *Player) String() string {
	return p.Name
}

// NewGame builds both players from setup and starts the first round.
// A nil rnd is replaced by a time-seeded source.
func NewGame(setup Setup, rnd *rand.Rand, refresher Refresher) (*Game, error) {
	if err := setup.Validate(); err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g := &Game{
		Player1:        NewPlayer(Player1, setup.Player1Name, setup.Field, setup.units(Player1, rnd)),
		Player2:        NewPlayer(Player2, setup.Player2Name, setup.Field, setup.units(Player2, rnd)),
		MirrorOwnShots: setup.MirrorOwnShots,
		Refresher:      refresher,
		Log:            log.StandardLogger(),
		rnd:            rnd,
	}
	g.startRound()
	return g, nil
}

func (g *Game) startRound() {
	g.Ended = false
	if g.rnd.Intn(2) == 0 {
		g.Current = g.Player1
	} else {
		g.Current = g.Player2
	}
}

// Reset begins a new round with the same two players. Unit positions are
// rerolled for random and fixed layouts alike.
func (g *Game) Reset() {
	g.startRound()
	g.Player1.Reset(g.rnd)
	g.Player2.Reset(g.rnd)
	g.refresh()
}

func (g *Game) State() GameState {
	if g.Ended {
		return Ended
	}
	return InProgress
}

func (g *Game) Opponent() *Player {
	if g.Current == g.Player1 {
		return g.Player2
	}
	return g.Player1
}

func (g *Game) Winner() *Player {
	if !g.Ended {
		return nil
	}
	return g.Current
}

func (g *Game) Player(id PlayerId) *Player {
	switch id {
	case Player1:
		return g.Player1
	case Player2:
		return g.Player2
	default:
		return nil
	}
}

func (g *Game) toggleCurrentPlayer() {
	g.Current = g.Opponent()
}

// SubmitFire applies Fire on behalf of id. Shots from the player who is not
// on turn are dropped without touching any state.
func (g *Game) SubmitFire(id PlayerId, x, y float64) FireOutcome {
	if g.Ended {
		return g.Fire(x, y)
	}
	if g.Current.Id != id {
		return FireIgnored
	}
	return g.Fire(x, y)
}

// Fire resolves a shot by the current player at field-local x,y on the
// opponent's field. A hit keeps the turn, a miss passes it, and the shot
// that kills the last unit ends the game with Current as the winner.
func (g *Game) Fire(x, y float64) FireOutcome {
	if g.Ended {
		g.logger().WithFields(log.Fields{"x": x, "y": y}).Warn("game is already ended")
		return FireIgnored
	}
	o := g.Opponent()
	fp := &FirePoint{X: x, Y: y}
	o.AddFirePoint(fp)
	if g.MirrorOwnShots {
		g.Current.AddFirePoint(&FirePoint{X: MirrorX(g.Current.Field, x), Y: y, Own: true})
	}

	anyHit := false
	for _, u := range o.Units {
		if u.Fire(fp.X, fp.Y) {
			fp.Mortal = true
			anyHit = true
		}
	}

	if o.AliveUnitsLength() == 0 {
		g.Ended = true
		g.refresh()
		return FireWon
	}
	outcome := FireHit
	if !anyHit {
		g.toggleCurrentPlayer()
		outcome = FireMiss
	}
	g.refresh()
	return outcome
}

func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Player1: g.Player1.Snapshot(),
		Player2: g.Player2.Snapshot(),
		Current: g.Current.Id,
		Ended:   g.Ended,
	}
}

func (g *Game) refresh() {
	if g.Refresher == nil {
		return
	}
	g.Refresher.Refresh(g.Snapshot())
}

func (g *Game) logger() log.FieldLogger {
	if g.Log == nil {
		return log.StandardLogger()
	}
	return g.Log
}

func (g *Game) String() string {
	if g.Ended {
		return fmt.Sprintf("game is ended, winner: %s", g.Current)
	}
	return fmt.Sprintf("%s vs %s", g.Player1, g.Player2)
}

func (o FireOutcome) Name() string {
	switch o {
	case FireIgnored:
		return "IGNORED"
	case FireMiss:
		return "MISS"
	case FireHit:
		return "HIT"
	case FireWon:
		return "WON"
	default:
		return fmt.Sprintf("n/a:%d", o)
	}
}

func (s GameState) Name() string {
	switch s {
	case InProgress:
		return "IN_PROGRESS"
	case Ended:
		return "ENDED"
	default:
		return fmt.Sprintf("n/a:%d", s)
	}
}
