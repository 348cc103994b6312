package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten"
	"github.com/hajimehoshi/ebiten/ebitenutil"
	"github.com/hajimehoshi/ebiten/inpututil"
	"github.com/hajimehoshi/ebiten/text"
	log "github.com/sirupsen/logrus"
	"github.com/tanema/gween"
	"github.com/zucenko/salvo/config"
	"github.com/zucenko/salvo/model"
	"github.com/zucenko/salvo/view"
	"golang.org/x/image/font"
)

const (
	margin       = 30
	gap          = 40
	headerHeight = 60
	footerHeight = 40
	frameBorder  = 6
	markerSize   = 6
)

func HexToF32(u uint32) GameColor {
	b := float64(0xff&u) / 255
	g := float64(0xff&(u>>8)) / 255
	r := float64(0xff&(u>>16)) / 255
	return GameColor{r, g, b}
}

type GameColor struct {
	r, g, b float64
}

func (c GameColor) RGBA(alpha float64) color.RGBA {
	return color.RGBA{uint8(c.r * 255 * alpha), uint8(c.g * 255 * alpha), uint8(c.b * 255 * alpha), uint8(255 * alpha)}
}

var COLOR_FRAME = HexToF32(0x666666)
var COLOR_CURRENT = HexToF32(0xedbc1e)
var COLOR_WINNER = HexToF32(0x0abd38)
var COLOR_UNIT_ALIVE = HexToF32(0x34fbf6)
var COLOR_UNIT_DEAD = HexToF32(0xfa3636)
var COLOR_SHOT = HexToF32(0xffffff)
var COLOR_SHOT_MORTAL = HexToF32(0xfa3636)
var COLOR_SHOT_OWN = HexToF32(0x321ecc)
var COLOR_AIM = HexToF32(0xcb18dd)

type GameState int

const (
	CONNECTING GameState = iota + 1
	PLAYING
	GAME_OVER
	DISCONNECTED
)

func (s GameState) Name() string {
	switch s {
	case CONNECTING:
		return "CONNECTING"
	case PLAYING:
		return "PLAYING"
	case GAME_OVER:
		return "GAME_OVER"
	case DISCONNECTED:
		return "DISCONNECTED"
	default:
		return fmt.Sprintf("N/A(%d)", s)
	}
}

// fieldRect is where one player's field sits on screen.
type fieldRect struct {
	x, y, w, h float64
	label      image.Rectangle
}

func (r fieldRect) contains(px, py float64) bool {
	return px >= r.x && px <= r.x+r.w && py >= r.y && py <= r.y+r.h
}

type Game struct {
	State         GameState
	View          *view.View
	Conn          *Connection
	Frame         *Nine
	Font          font.Face
	Tweens        map[*gween.Tween]*Action
	markerScale   map[view.MarkerKey]float64
	width, height int
}

func NewGame(conn *Connection, width, height int) (*Game, error) {
	frame, err := NewNine(frameBorder, frameBorder/2)
	if err != nil {
		return nil, err
	}
	face, err := loadFace(20)
	if err != nil {
		return nil, err
	}
	return &Game{
		State:       CONNECTING,
		View:        &view.View{},
		Conn:        conn,
		Frame:       frame,
		Font:        face,
		Tweens:      make(map[*gween.Tween]*Action),
		markerScale: make(map[view.MarkerKey]float64),
		width:       width,
		height:      height,
	}, nil
}

// layout fits both fields side by side, player1 on the left.
func (g *Game) layout(s model.Snapshot) (fieldRect, fieldRect) {
	areaW := float64(g.width-2*margin-gap) / 2
	areaH := float64(g.height - headerHeight - footerHeight)
	f := s.Player1.Field
	cell := math.Min(areaW/f.Width, areaH/f.Height)
	w, h := f.Width*cell, f.Height*cell
	left := fieldRect{x: margin, y: headerHeight, w: w, h: h}
	right := fieldRect{x: float64(g.width) - margin - w, y: headerHeight, w: w, h: h}
	left.label = image.Rect(int(left.x), 0, int(left.x+w), headerHeight)
	right.label = image.Rect(int(right.x), 0, int(right.x+w), headerHeight)
	return left, right
}

func (g *Game) send(cm model.ClientMessage) {
	if err := g.Conn.Send(cm); err != nil {
		log.Warnf("send: %v", err)
		g.View.Fail(err)
	}
}

func (g *Game) handleInput(s model.Snapshot) {
	left, right := g.layout(s)
	cx, cy := ebiten.CursorPosition()
	px, py := float64(cx), float64(cy)

	if s.Ended {
		clicked := inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
		onLabel := image.Pt(cx, cy).In(left.label) || image.Pt(cx, cy).In(right.label)
		if inpututil.IsKeyJustPressed(ebiten.KeyR) || clicked && onLabel {
			g.send(model.ClientMessage{Reset: true})
		}
		return
	}
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	shooter := s.Player(s.Current)
	own := left
	if s.Current == model.Player2 {
		own = right
	}
	if !own.contains(px, py) {
		return
	}
	x, y := model.ToField(shooter.Field, px-own.x, py-own.y, own.w, own.h, true)
	g.send(model.ClientMessage{Fire: []model.FireCommand{{Player: s.Current, X: x, Y: y}}})
}

func (g *Game) update(screen *ebiten.Image) error {
	g.updateTweens()
	for _, key := range g.View.TakeFresh() {
		g.popMarker(key)
	}

	s, notice, ok := g.View.Latest()
	switch {
	case g.View.Err() != nil:
		g.State = DISCONNECTED
	case !ok:
		g.State = CONNECTING
	case s.Ended:
		g.State = GAME_OVER
	default:
		g.State = PLAYING
	}
	if g.State == PLAYING || g.State == GAME_OVER {
		g.handleInput(s)
	}

	if ebiten.IsDrawingSkipped() {
		return nil
	}

	e := screen.Fill(color.RGBA{30, 30, 40, 255})
	if e != nil {
		log.Printf("%v", e)
	}
	if ok {
		left, right := g.layout(s)
		g.drawPlayer(screen, s, s.Player1, left)
		g.drawPlayer(screen, s, s.Player2, right)
		g.drawAim(screen, s, left, right)
		g.drawFooter(screen, s, notice)
	}
	ebitenutil.DebugPrintAt(screen, g.State.Name(), g.width/2-40, 0)
	return nil
}

func (g *Game) drawPlayer(screen *ebiten.Image, s model.Snapshot, p model.PlayerSnapshot, r fieldRect) {
	frameColor, alpha := COLOR_FRAME, 0.6
	if s.Current == p.Id {
		frameColor, alpha = COLOR_CURRENT, 1
		if s.Ended {
			frameColor = COLOR_WINNER
		}
	}
	g.Frame.SetColor(frameColor, alpha)
	g.Frame.SetBounds(int(r.x)-frameBorder, int(r.y)-frameBorder, int(r.w)+2*frameBorder, int(r.h)+2*frameBorder)
	g.Frame.Draw(screen)

	label := fmt.Sprintf("%s  %d", p.Name, p.AliveUnits)
	text.Draw(screen, label, g.Font, int(r.x), headerHeight-16, frameColor.RGBA(1))

	cellX, cellY := r.w/p.Field.Width, r.h/p.Field.Height
	for _, u := range p.Units {
		// alive units stay hidden until the round is over
		if u.Alive && !s.Ended {
			continue
		}
		c := COLOR_UNIT_DEAD
		if u.Alive {
			c = COLOR_UNIT_ALIVE
		}
		ebitenutil.DrawRect(screen, r.x+u.X*cellX, r.y+u.Y*cellY, u.W*cellX, u.H*cellY, c.RGBA(0.9))
	}

	for i, fp := range p.FirePoints {
		scale, popping := g.markerScale[view.MarkerKey{Player: p.Id, Index: i}]
		if !popping {
			scale = 1
		}
		c := COLOR_SHOT
		switch {
		case fp.Own:
			c = COLOR_SHOT_OWN
		case fp.Mortal:
			c = COLOR_SHOT_MORTAL
		}
		vx, vy := model.ToView(p.Field, fp.X, fp.Y, r.w, r.h, false)
		size := markerSize * scale
		ebitenutil.DrawRect(screen, r.x+vx-size/2, r.y+vy-size/2, size, size, c.RGBA(1))
	}
}

// drawAim marks the cursor on the shooter's field. With Ctrl held it also
// shows where the shot lands on the opponent's field.
func (g *Game) drawAim(screen *ebiten.Image, s model.Snapshot, left, right fieldRect) {
	if s.Ended {
		return
	}
	own, other := left, right
	if s.Current == model.Player2 {
		own, other = right, left
	}
	cx, cy := ebiten.CursorPosition()
	px, py := float64(cx), float64(cy)
	if !own.contains(px, py) {
		return
	}
	drawCross(screen, px, py, COLOR_AIM.RGBA(1))
	if !ebiten.IsKeyPressed(ebiten.KeyControl) {
		return
	}
	shooter, target := s.Player(s.Current), s.Player(otherPlayer(s.Current))
	x, y := model.ToField(shooter.Field, px-own.x, py-own.y, own.w, own.h, true)
	hx, hy := model.ToView(target.Field, x, y, other.w, other.h, false)
	drawCross(screen, other.x+hx, other.y+hy, COLOR_AIM.RGBA(0.5))
}

func (g *Game) drawFooter(screen *ebiten.Image, s model.Snapshot, notice string) {
	line := notice
	if s.Ended {
		winner := s.Player(s.Current)
		line = fmt.Sprintf("%s won! Click a name or press R for a new round", winner.Name)
	}
	text.Draw(screen, line, g.Font, margin, g.height-12, color.White)
}

func drawCross(screen *ebiten.Image, x, y float64, c color.Color) {
	const arm = 8
	ebitenutil.DrawLine(screen, x-arm, y, x+arm, y, c)
	ebitenutil.DrawLine(screen, x, y-arm, x, y+arm, c)
}

func otherPlayer(id model.PlayerId) model.PlayerId {
	if id == model.Player1 {
		return model.Player2
	}
	return model.Player1
}

func main() {
	configDir := flag.String("config", ".", "directory holding "+config.FileName)
	flag.Parse()
	if err := config.Load(*configDir); err != nil {
		log.Fatal(err)
	}
	log.SetLevel(config.GetLogLevel())
	cc := config.GetClientConfig()

	conn, err := Dial(cc.ServerUrl)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	g, err := NewGame(conn, cc.Width, cc.Height)
	if err != nil {
		log.Fatal(err)
	}
	go conn.LoopRead(g.View)

	if err := ebiten.Run(g.update, cc.Width, cc.Height, 1, "Salvo"); err != nil {
		log.Fatal(err)
	}
}
