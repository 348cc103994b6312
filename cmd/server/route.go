package main

import (
	"github.com/matryer/way"
)

const URI_WS = "/play"
const URI_FIRE = "/fire/:player"
const URI_RESET = "/reset"
const URI_STATE = "/state"

func (s *Server) routes() {
	s.router = way.NewRouter()
	s.router.HandleFunc("GET", URI_WS, s.GameServer.HandleWebsocket())
	s.router.HandleFunc("POST", URI_FIRE, s.GameServer.HandleFire())
	s.router.HandleFunc("POST", URI_RESET, s.GameServer.HandleReset())
	s.router.HandleFunc("GET", URI_STATE, s.GameServer.HandleState())
}
