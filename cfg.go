package main

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/zucenko/salvo/model"
	"github.com/zucenko/salvo/view"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

func loadFace(size float64) (font.Face, error) {
	tt, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	const dpi = 72
	return truetype.NewFace(tt, &truetype.Options{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingFull,
	}), nil
}

// Connection is the renderer's side of the table socket.
type Connection struct {
	conn   *websocket.Conn
	sendMu sync.Mutex
}

func Dial(url string) (*Connection, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	log.Infof("connected to %s", url)
	return &Connection{conn: conn}, nil
}

func (c *Connection) LoopRead(v *view.View) {
	log.Printf("LoopRead STARTED")
	for {
		_, r, err := c.conn.NextReader()
		if err != nil {
			log.Warnf("LoopRead err reading message from Conn %v", err)
			v.Fail(err)
			break
		}
		mes := model.ServerMessage{}
		if err := gob.NewDecoder(r).Decode(&mes); err != nil {
			log.Warnf("LoopRead cant decode %v", err)
			v.Fail(err)
			break
		}
		v.Apply(mes)
	}
	log.Printf("LoopRead ENDED")
}

func (c *Connection) Send(cm model.ClientMessage) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cm); err != nil {
		return err
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes())
}

func (c *Connection) Close() error {
	return c.conn.Close()
}
