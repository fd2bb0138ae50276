package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBufferSize = 16
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
)

type client struct {
	conn *websocket.Conn
	send chan Message

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan Message, sendBufferSize),
	}
}

// close must be called with the server's clients lock held.
func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.send)
	})
}

// writePump is the only writer to the connection.
func (that *client) writePump() error {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return nil
			}

			if err := that.conn.WriteJSON(msg); err != nil {
				return err
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}
