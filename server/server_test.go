package server

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zucenko/salvo/config"
	"github.com/zucenko/salvo/model"
)

func testSetup() model.Setup {
	return model.Setup{
		Field: model.Field{Width: 40, Height: 50},
		Fixed: map[model.PlayerId][]model.Position{
			model.Player1: {{X: 1, Y: 1}},
			model.Player2: {{X: 20, Y: 40}, {X: 5, Y: 8}},
		},
		MirrorOwnShots: true,
		Player1Name:    "Player 1",
		Player2Name:    "Player 2",
	}
}

func startServer(t *testing.T) (*GameServer, *httptest.Server) {
	t.Helper()
	s, err := NewGameServer(testSetup(), rand.New(rand.NewSource(1)), config.ServerConfig{
		RequestTimeout: time.Second,
		SendBuffer:     10,
	})
	require.NoError(t, err)
	s.Table.Game.Current = s.Table.Game.Player1

	ctx, cancel := context.WithCancel(context.Background())
	go s.Table.Loop(ctx)

	router := way.NewRouter()
	router.HandleFunc("GET", "/play", s.HandleWebsocket())
	router.HandleFunc("POST", "/fire/:player", s.HandleFire())
	router.HandleFunc("POST", "/reset", s.HandleReset())
	router.HandleFunc("GET", "/state", s.HandleState())
	ts := httptest.NewServer(router)

	t.Cleanup(func() {
		cancel()
		ts.Close()
	})
	return s, ts
}

func fire(t *testing.T, ts *httptest.Server, player string, x, y string) (int, fireResponse) {
	t.Helper()
	resp, err := http.PostForm(ts.URL+"/fire/"+player, url.Values{"x": {x}, "y": {y}})
	require.NoError(t, err)
	defer resp.Body.Close()
	var body fireResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/play"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) model.ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var mes model.ServerMessage
	require.NoError(t, gob.NewDecoder(bytes.NewReader(data)).Decode(&mes))
	return mes
}

func sendMessage(t *testing.T, conn *websocket.Conn, cm model.ClientMessage) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(cm))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()))
}

func TestHandleFire_HitKeepsTurn(t *testing.T) {
	_, ts := startServer(t)

	code, body := fire(t, ts, "1", "20", "40")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", body.Result)
	assert.Equal(t, "HIT", body.Outcome)
	assert.Equal(t, model.Player1, body.Snapshot.Current)
	require.Len(t, body.Snapshot.Player2.FirePoints, 1)
	assert.True(t, body.Snapshot.Player2.FirePoints[0].Mortal)
	require.Len(t, body.Snapshot.Player1.FirePoints, 1)
	assert.True(t, body.Snapshot.Player1.FirePoints[0].Own)
	assert.Equal(t, 20.0, body.Snapshot.Player1.FirePoints[0].X)
	assert.Equal(t, 1, body.Snapshot.Player2.AliveUnits)
}

func TestHandleFire_WrongTurnIsIgnored(t *testing.T) {
	_, ts := startServer(t)

	code, body := fire(t, ts, "2", "1", "1")

	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "IGNORED", body.Result)
	assert.Empty(t, body.Snapshot.Player1.FirePoints)
	assert.Equal(t, model.Player1, body.Snapshot.Current)
}

func TestHandleFire_BadInput(t *testing.T) {
	_, ts := startServer(t)

	code, body := fire(t, ts, "1", "left", "1")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID", body.Result)

	code, body = fire(t, ts, "3", "1", "1")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "UNKNOWN_PLAYER", body.Result)

	code, _ = fire(t, ts, "one", "1", "1")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = fire(t, ts, "4294967297", "20", "40")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "UNKNOWN_PLAYER", body.Result)

	for _, v := range []string{"NaN", "Inf", "-Inf"} {
		code, body = fire(t, ts, "1", v, "40")
		assert.Equal(t, http.StatusBadRequest, code, v)
		assert.Equal(t, "INVALID", body.Result, v)
		code, _ = fire(t, ts, "1", "20", v)
		assert.Equal(t, http.StatusBadRequest, code, v)
	}

	resp, err := http.Get(ts.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	var snap model.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Empty(t, snap.Player2.FirePoints)
	assert.Equal(t, 2, snap.Player2.AliveUnits)
}

func TestHandleReset_OnlyAfterTheEnd(t *testing.T) {
	_, ts := startServer(t)

	resp, err := http.Post(ts.URL+"/reset", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	_, body := fire(t, ts, "1", "21", "41")
	require.Equal(t, "HIT", body.Outcome)
	_, body = fire(t, ts, "1", "6", "9")
	require.Equal(t, "WON", body.Outcome)
	assert.True(t, body.Snapshot.Ended)
	assert.Equal(t, model.Player1, body.Snapshot.Current)

	code, body := fire(t, ts, "1", "6", "9")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "IGNORED", body.Result)

	resp, err = http.Post(ts.URL+"/reset", "", nil)
	require.NoError(t, err)
	var reset fireResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reset))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, reset.Snapshot.Ended)
	assert.Empty(t, reset.Snapshot.Player1.FirePoints)
	assert.Empty(t, reset.Snapshot.Player2.FirePoints)
	assert.Equal(t, 2, reset.Snapshot.Player2.AliveUnits)
}

func TestHandleState(t *testing.T) {
	_, ts := startServer(t)

	resp, err := http.Get(ts.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	var snap model.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Player 1", snap.Player1.Name)
	assert.Equal(t, model.Field{Width: 40, Height: 50}, snap.Player2.Field)
	assert.Len(t, snap.Player2.Units, 2)
	assert.False(t, snap.Ended)
}

func TestRenderer_ReceivesRefreshAndSendsFire(t *testing.T) {
	_, ts := startServer(t)
	conn := dial(t, ts)

	first := readMessage(t, conn)
	require.Len(t, first.Refresh, 1)
	assert.Equal(t, model.Player1, first.Refresh[0].Current)

	sendMessage(t, conn, model.ClientMessage{Fire: []model.FireCommand{{Player: model.Player1, X: 0, Y: 0}}})

	mes := readMessage(t, conn)
	require.Len(t, mes.Refresh, 1)
	assert.Equal(t, model.Player2, mes.Refresh[0].Current)
	require.Len(t, mes.Notices, 1)
	assert.Equal(t, model.FireMiss, mes.Notices[0].Outcome)
	assert.Equal(t, model.Player1, mes.Notices[0].Player)
}

func TestRenderer_AllRenderersSeeHttpFire(t *testing.T) {
	_, ts := startServer(t)
	a := dial(t, ts)
	b := dial(t, ts)
	readMessage(t, a)
	readMessage(t, b)

	code, _ := fire(t, ts, "1", "21", "41")
	require.Equal(t, http.StatusOK, code)

	for _, conn := range []*websocket.Conn{a, b} {
		mes := readMessage(t, conn)
		require.Len(t, mes.Refresh, 1)
		assert.Equal(t, 1, mes.Refresh[0].Player2.AliveUnits)
		require.Len(t, mes.Notices, 1)
		assert.Equal(t, model.FireHit, mes.Notices[0].Outcome)
	}
}

func TestRenderer_ResetFromRendererIgnoredMidRound(t *testing.T) {
	_, ts := startServer(t)
	conn := dial(t, ts)
	readMessage(t, conn)

	code, _ := fire(t, ts, "1", "21", "41")
	require.Equal(t, http.StatusOK, code)
	hit := readMessage(t, conn)
	require.Len(t, hit.Refresh, 1)
	require.Len(t, hit.Refresh[0].Player2.FirePoints, 1)

	// one reader goroutine forwards both commands in order
	sendMessage(t, conn, model.ClientMessage{Reset: true})
	sendMessage(t, conn, model.ClientMessage{Fire: []model.FireCommand{{Player: model.Player1, X: 0, Y: 0}}})

	mes := readMessage(t, conn)
	require.Len(t, mes.Notices, 1)
	assert.Equal(t, model.FireMiss, mes.Notices[0].Outcome)
	require.Len(t, mes.Refresh, 1)
	assert.False(t, mes.Refresh[0].Ended)
	assert.Len(t, mes.Refresh[0].Player2.FirePoints, 2)
	assert.Equal(t, 1, mes.Refresh[0].Player2.AliveUnits)
	assert.Equal(t, model.Player2, mes.Refresh[0].Current)
}

func TestRenderer_GarbageDropsSession(t *testing.T) {
	s, ts := startServer(t)
	conn := dial(t, ts)
	readMessage(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("not gob")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	res, ok := s.Table.Submit(Command{Kind: CMD_SNAPSHOT})
	require.True(t, ok)
	assert.Equal(t, CMD_OK, res.Code)
}

func TestResponseCode_ToHttp(t *testing.T) {
	assert.Equal(t, HTTP_SUCCESS, CMD_OK.ToHttp())
	assert.Equal(t, HTTP_CONFLICT, CMD_IGNORED.ToHttp())
	assert.Equal(t, HTTP_CONFLICT, CMD_IN_PROGRESS.ToHttp())
	assert.Equal(t, HTTP_BAD_REQUEST, CMD_INVALID.ToHttp())
	assert.Equal(t, HTTP_NOT_FOUND, CMD_UNKNOWN_PLAYER.ToHttp())
	assert.Panics(t, func() { ResponseCode(99).ToHttp() })
	assert.Equal(t, "n/a:99", ResponseCode(99).Name())
	assert.Equal(t, "PLAY", RS_PLAY.Name())
}

func TestTable_SubmitAfterStop(t *testing.T) {
	table := NewTable(config.ServerConfig{RequestTimeout: 50 * time.Millisecond})
	game, err := model.NewGame(testSetup(), rand.New(rand.NewSource(2)), table)
	require.NoError(t, err)
	table.Game = game

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		table.Loop(ctx)
		close(done)
	}()
	cancel()
	<-done

	_, ok := table.Submit(Command{Kind: CMD_SNAPSHOT})
	assert.False(t, ok)
}
