package server

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/zucenko/salvo/model"
)

type GameServer struct {
	Table    *Table
	Upgrader *websocket.Upgrader
	Timeout  time.Duration
}

// Table hosts one hot-seat game. Only the Loop goroutine touches Game.
type Table struct {
	Game                    *model.Game
	Renderers               []*RendererSession
	Errors                  chan *RendererSession
	Commands                chan Command
	RendererConnectRequests chan RendererConnectRequest
	SendBuffer              int
	Timeout                 time.Duration

	pending []model.Snapshot
	nextId  int32
	quit    chan struct{}
}

type RendererSessionState int

const (
	RS_NEW RendererSessionState = iota + 1
	RS_PLAY
	RS_ERR
)

type RendererSession struct {
	State  RendererSessionState
	Id     int32
	Table  *Table
	Conn   *websocket.Conn
	Closed chan struct{}

	MessagesToSend chan model.ServerMessage

	DebugInMessages  int
	DebugOutMessages int
	DebugLastMessage time.Time
	DebugLastPing    time.Time
	DebugPings       int
}
