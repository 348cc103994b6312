package server

import (
	"context"
	"encoding/gob"
	"errors"
	"math/rand"
	"net"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/salvo/config"
	"github.com/zucenko/salvo/model"
)

func NewGameServer(setup model.Setup, rnd *rand.Rand, cfg config.ServerConfig) (*GameServer, error) {
	table := NewTable(cfg)
	game, err := model.NewGame(setup, rnd, table)
	if err != nil {
		return nil, err
	}
	table.Game = game
	return &GameServer{
		Table:    table,
		Upgrader: &websocket.Upgrader{},
		Timeout:  table.Timeout,
	}, nil
}

func NewTable(cfg config.ServerConfig) *Table {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 10
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 200 * time.Millisecond
	}
	return &Table{
		Renderers:               make([]*RendererSession, 0),
		Errors:                  make(chan *RendererSession),
		Commands:                make(chan Command),
		RendererConnectRequests: make(chan RendererConnectRequest),
		SendBuffer:              cfg.SendBuffer,
		Timeout:                 cfg.RequestTimeout,
		quit:                    make(chan struct{}),
	}
}

// Refresh queues a snapshot. The loop flushes queued snapshots to every
// renderer once the current command is done.
func (t *Table) Refresh(s model.Snapshot) {
	t.pending = append(t.pending, s)
}

func (t *Table) Loop(ctx context.Context) {
	log.Infof("Table.Loop start: %s", t.Game)
	defer close(t.quit)
	for {
		select {
		case <-ctx.Done():
			log.Info("Table.Loop stopping")
			for _, rs := range t.Renderers {
				t.closeRenderer(rs)
			}
			t.Renderers = nil
			return
		case rcr := <-t.RendererConnectRequests:
			log.Info("Table.Loop RendererConnectRequests")
			t.addRenderer(rcr.Con, rcr.Closed)
		case rs := <-t.Errors:
			t.dropRenderer(rs)
		case cmd := <-t.Commands:
			res := t.apply(cmd)
			if cmd.Reply != nil {
				cmd.Reply <- res
			}
		}
	}
}

func (t *Table) apply(cmd Command) CommandResult {
	switch cmd.Kind {
	case CMD_FIRE:
		if t.Game.Player(cmd.Player) == nil {
			return CommandResult{Code: CMD_UNKNOWN_PLAYER}
		}
		outcome := t.Game.SubmitFire(cmd.Player, cmd.X, cmd.Y)
		log.WithFields(log.Fields{
			"player":  cmd.Player,
			"x":       cmd.X,
			"y":       cmd.Y,
			"outcome": outcome.Name(),
		}).Info("fire")
		t.flush([]model.Notice{{Outcome: outcome, Player: cmd.Player, X: cmd.X, Y: cmd.Y}})
		res := CommandResult{Code: CMD_OK, Outcome: outcome, Snapshot: t.Game.Snapshot()}
		if outcome == model.FireIgnored {
			res.Code = CMD_IGNORED
		}
		if outcome == model.FireWon {
			log.Infof("Table %s", t.Game)
		}
		return res
	case CMD_RESET:
		if !t.Game.Ended {
			log.Warn("reset requested while the round is still running")
			return CommandResult{Code: CMD_IN_PROGRESS, Snapshot: t.Game.Snapshot()}
		}
		t.Game.Reset()
		log.Infof("new round, %s starts", t.Game.Current)
		t.flush(nil)
		return CommandResult{Code: CMD_OK, Snapshot: t.Game.Snapshot()}
	case CMD_SNAPSHOT:
		return CommandResult{Code: CMD_OK, Snapshot: t.Game.Snapshot()}
	default:
		log.Warnf("unknown command kind %d", cmd.Kind)
		return CommandResult{Code: CMD_INVALID}
	}
}

func (t *Table) flush(notices []model.Notice) {
	if len(t.pending) == 0 && len(notices) == 0 {
		return
	}
	t.broadcast(model.ServerMessage{Refresh: t.pending, Notices: notices})
	t.pending = nil
}

// broadcast never blocks the loop; a renderer that is not keeping up loses
// the message.
func (t *Table) broadcast(mes model.ServerMessage) {
	for _, rs := range t.Renderers {
		select {
		case rs.MessagesToSend <- mes:
		default:
			log.Warnf("renderer %d send buffer full, dropping message", rs.Id)
		}
	}
}

// Submit hands cmd to the loop and waits for the result. ok is false when
// the loop did not answer within the table timeout.
func (t *Table) Submit(cmd Command) (res CommandResult, ok bool) {
	cmd.Reply = make(chan CommandResult, 1)
	select {
	case t.Commands <- cmd:
	case <-time.After(t.Timeout):
		log.Warn("Table.Submit TIMEOUTED")
		return res, false
	case <-t.quit:
		return res, false
	}
	select {
	case res = <-cmd.Reply:
		return res, true
	case <-time.After(t.Timeout):
		log.Warn("Table.Submit reply TIMEOUTED")
		return res, false
	}
}

func (t *Table) addRenderer(conn *websocket.Conn, closed chan struct{}) {
	t.nextId++
	rs := &RendererSession{
		State:          RS_NEW,
		Id:             t.nextId,
		Table:          t,
		Conn:           conn,
		Closed:         closed,
		MessagesToSend: make(chan model.ServerMessage, t.SendBuffer),
	}
	conn.SetPingHandler(
		func(message string) error {
			err := conn.WriteControl(websocket.PongMessage, []byte(message), time.Now().Add(time.Second))
			rs.DebugLastPing = time.Now()
			rs.DebugPings++
			var ne net.Error
			if err == websocket.ErrCloseSent {
				return nil
			} else if errors.As(err, &ne) && ne.Timeout() {
				return nil
			}
			return err
		})
	go rs.LoopChannelRead()
	go rs.LoopChannelWrite()
	t.Renderers = append(t.Renderers, rs)
	rs.State = RS_PLAY
	rs.MessagesToSend <- model.ServerMessage{Refresh: []model.Snapshot{t.Game.Snapshot()}}
	log.Infof("renderer %d attached, %d watching", rs.Id, len(t.Renderers))
}

func (t *Table) dropRenderer(rs *RendererSession) {
	for i, r := range t.Renderers {
		if r == rs {
			log.Warnf("renderer %d dropped", rs.Id)
			t.Renderers = append(t.Renderers[:i], t.Renderers[i+1:]...)
			t.closeRenderer(rs)
			return
		}
	}
}

func (t *Table) closeRenderer(rs *RendererSession) {
	rs.State = RS_ERR
	close(rs.MessagesToSend)
	close(rs.Closed)
}

func (rs *RendererSession) reportError() {
	select {
	case rs.Table.Errors <- rs:
	case <-rs.Table.quit:
	}
}

func (rs *RendererSession) LoopChannelRead() {
	log.Printf("LoopChannelRead STARTED %d", rs.Id)
	for {
		messageType, r, err := rs.Conn.NextReader()
		if err != nil {
			log.Printf("LoopChannelRead err reading message from Conn %v", err)
			rs.reportError()
			break
		}
		log.Debugf("LoopChannelRead received message type: %d", messageType)
		dec := gob.NewDecoder(r)
		cm := &model.ClientMessage{}
		err = dec.Decode(cm)
		if err != nil {
			log.Warnf("LoopChannelRead cant decode %v", err)
			rs.reportError()
			break
		}
		rs.DebugLastMessage = time.Now()
		rs.DebugInMessages++

		for _, f := range cm.Fire {
			rs.forward(Command{Kind: CMD_FIRE, Player: f.Player, X: f.X, Y: f.Y})
		}
		if cm.Reset {
			rs.forward(Command{Kind: CMD_RESET})
		}
	}
	log.Printf("LoopChannelRead ENDED %d", rs.Id)
}

func (rs *RendererSession) forward(cmd Command) {
	select {
	case rs.Table.Commands <- cmd:
	case <-time.After(rs.Table.Timeout):
		log.Warnf("Dropping command from renderer %d, table busy", rs.Id)
	case <-rs.Table.quit:
	}
}

// this function only consumes. no worries about full buffer stuck
func (rs *RendererSession) LoopChannelWrite() {
	log.Printf("LoopChannelWrite STARTED %d", rs.Id)
	for mes := range rs.MessagesToSend {
		w, err := rs.Conn.NextWriter(websocket.BinaryMessage)
		if err != nil {
			log.Warnf("LoopChannelWrite cant get writer %v", err)
			rs.reportError()
			break
		}
		enc := gob.NewEncoder(w)
		err = enc.Encode(mes)
		if err != nil {
			log.Warnf("LoopChannelWrite cant encode %v", err)
			rs.reportError()
			break
		}
		err = w.Close()
		if err != nil {
			log.Warnf("LoopChannelWrite cant flush %v", err)
			rs.reportError()
			break
		}
		rs.DebugOutMessages++
	}
	log.Printf("LoopChannelWrite ENDED %d", rs.Id)
}
