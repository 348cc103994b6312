package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/salvo/model"
)

type fireResponse struct {
	Result   string         `json:"result"`
	Outcome  string         `json:"outcome,omitempty"`
	Snapshot model.Snapshot `json:"snapshot"`
}

// HandleWebsocket attaches a renderer to the table and holds the request
// until the table lets go of it.
func (s *GameServer) HandleWebsocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info("HandleWebsocket - connection received")
		con, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the error response.
			log.Warnf("HandleWebsocket websocket upgrade err %v", err)
			return
		}
		defer con.Close()

		closed := make(chan struct{})
		select {
		case s.Table.RendererConnectRequests <- RendererConnectRequest{Con: con, Closed: closed}:
		case <-s.timeout():
			log.Warn("HandleWebsocket RendererConnectRequests TIMEOUTED")
			return
		case <-s.Table.quit:
			return
		}

		log.Info("HandleWebsocket attached, waiting for the renderer to leave")
		<-closed
	}
}

// HandleFire takes POST /fire/:player with form values x and y in
// field-local coordinates.
func (s *GameServer) HandleFire() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(way.Param(r.Context(), "player"), 10, 32)
		if err != nil {
			writeJSON(w, CMD_UNKNOWN_PLAYER.ToHttp(), fireResponse{Result: CMD_UNKNOWN_PLAYER.Name()})
			return
		}
		x, errX := strconv.ParseFloat(r.FormValue("x"), 64)
		y, errY := strconv.ParseFloat(r.FormValue("y"), 64)
		if errX != nil || errY != nil || !finite(x, y) {
			writeJSON(w, CMD_INVALID.ToHttp(), fireResponse{Result: CMD_INVALID.Name()})
			return
		}
		res, ok := s.Table.Submit(Command{Kind: CMD_FIRE, Player: model.PlayerId(id), X: x, Y: y})
		if !ok {
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}
		body := fireResponse{Result: res.Code.Name(), Snapshot: res.Snapshot}
		if res.Outcome != 0 {
			body.Outcome = res.Outcome.Name()
		}
		writeJSON(w, res.Code.ToHttp(), body)
	}
}

// HandleReset starts a new round. It is refused while a round is running.
func (s *GameServer) HandleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := s.Table.Submit(Command{Kind: CMD_RESET})
		if !ok {
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}
		writeJSON(w, res.Code.ToHttp(), fireResponse{Result: res.Code.Name(), Snapshot: res.Snapshot})
	}
}

func (s *GameServer) HandleState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := s.Table.Submit(Command{Kind: CMD_SNAPSHOT})
		if !ok {
			w.WriteHeader(HTTP_TIMEOUT)
			return
		}
		writeJSON(w, res.Code.ToHttp(), res.Snapshot)
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s *GameServer) timeout() <-chan time.Time {
	return time.After(s.Timeout)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("writing response: %v", err)
	}
}
