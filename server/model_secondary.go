package server

import (
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/zucenko/salvo/model"
)

const HTTP_SUCCESS = 200
const HTTP_BAD_REQUEST = 400
const HTTP_NOT_FOUND = 404
const HTTP_TIMEOUT = 408
const HTTP_CONFLICT = 409

type ResponseCode int

const (
	CMD_OK ResponseCode = iota
	CMD_IGNORED
	CMD_INVALID
	CMD_UNKNOWN_PLAYER
	CMD_IN_PROGRESS
)

func (h ResponseCode) ToHttp() int {
	switch h {
	case CMD_OK:
		return HTTP_SUCCESS
	case CMD_IGNORED, CMD_IN_PROGRESS:
		return HTTP_CONFLICT
	case CMD_INVALID:
		return HTTP_BAD_REQUEST
	case CMD_UNKNOWN_PLAYER:
		return HTTP_NOT_FOUND
	default:
		panic(h)
	}
}

func (h ResponseCode) Name() string {
	switch h {
	case CMD_OK:
		return "OK"
	case CMD_IGNORED:
		return "IGNORED"
	case CMD_INVALID:
		return "INVALID"
	case CMD_UNKNOWN_PLAYER:
		return "UNKNOWN_PLAYER"
	case CMD_IN_PROGRESS:
		return "IN_PROGRESS"
	default:
		return fmt.Sprintf("n/a:%d", h)
	}
}

func (rs RendererSessionState) Name() string {
	switch rs {
	case RS_NEW:
		return "NEW"
	case RS_PLAY:
		return "PLAY"
	case RS_ERR:
		return "ERR"
	default:
		return "N/A"
	}
}

type CommandKind int

const (
	CMD_FIRE CommandKind = iota + 1
	CMD_RESET
	CMD_SNAPSHOT
)

// Command is applied by the table loop. Reply may be nil when the sender
// does not wait for the result.
type Command struct {
	Kind   CommandKind
	Player model.PlayerId
	X, Y   float64
	Reply  chan CommandResult
}

type CommandResult struct {
	Code     ResponseCode
	Outcome  model.FireOutcome
	Snapshot model.Snapshot
}

type RendererConnectRequest struct {
	Con    *websocket.Conn
	Closed chan struct{}
}
