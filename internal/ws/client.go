package ws

import (
	"time"

	"game_lounge/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	maxMessageSize = 4096
)

// Client is one websocket connection of one authenticated player.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	hub  *Hub
	done chan struct{}
}

func NewClient(userID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		hub:    hub,
		done:   make(chan struct{}),
	}
}

func (c *Client) Run() {
	go c.writePump()

	c.hub.Presence.Attach(c)

	// Reconnect: if the player already sits in a room, push the current
	// snapshot instead of replaying the action log.
	c.hub.PushSnapshot(c)

	go c.readPump()

	<-c.done
}

//read
func (c *Client) readPump() {
	defer func() {
		c.disconnect()
		close(c.done)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			logger.Debug("ws read closed", "user", c.UserID, "error", err)
			break
		}
		c.hub.Dispatch(c, msg)
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write failed", "user", c.UserID, "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

//disconnect
func (c *Client) disconnect() {
	offline := c.hub.Presence.Detach(c)
	if offline {
		c.hub.OnOffline(c.UserID)
	}
	_ = c.Conn.Close()
}
