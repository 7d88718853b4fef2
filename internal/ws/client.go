package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"edu_arcade/internal/domain"
	"edu_arcade/internal/logger"
	"edu_arcade/internal/transport"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client is one websocket seat.
type Client struct {
	PlayerID string
	Name     string

	conn *websocket.Conn
	hub  *Hub
	room *Room
	log  *slog.Logger

	send chan []byte
	done chan struct{}
	once sync.Once
	// closed by writePump once the connection is released
	writerDone chan struct{}
}

func NewClient(playerID, name string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		PlayerID:   playerID,
		Name:       name,
		conn:       conn,
		hub:        hub,
		log:        logger.ForPlayer(hub.log, playerID),
		send:       make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

// Run joins the hub and pumps frames until the peer goes away.
func (c *Client) Run(ctx context.Context, kind domain.Kind, code string) {
	if l, ok := logger.FromContext(ctx); ok {
		c.log = logger.ForPlayer(l, c.PlayerID)
	}
	Connections.Inc()
	defer Connections.Dec()

	go c.writePump()
	c.enqueue(transport.ReadyEvent{})

	room, err := c.hub.Join(ctx, c, kind, code)
	if err != nil {
		c.log.Info("join refused", "err", err)
		c.enqueue(transport.ErrorEvent{Message: err.Error()})
		c.stop()
		<-c.writerDone
		return
	}
	c.room = room
	c.log.Info("client assigned", "room", room.ID)

	c.readPump()
	room.leave(c)
	c.stop()
	<-c.writerDone
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("read error", "err", err)
			}
			return
		}
		c.room.HandleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(c.writerDone)
	}()

	for {
		select {
		case msg := <-c.send:
			if !c.write(websocket.TextMessage, msg) {
				return
			}
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		case <-c.done:
			// flush what is already queued, then say goodbye
			for {
				select {
				case msg := <-c.send:
					if !c.write(websocket.TextMessage, msg) {
						return
					}
				default:
					c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

func (c *Client) write(kind int, data []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(kind, data); err != nil {
		c.log.Debug("write error", "err", err)
		return false
	}
	return true
}

// enqueue never blocks: a client that cannot keep up loses frames.
func (c *Client) enqueue(ev transport.Event) {
	data, err := transport.Encode(ev)
	if err != nil {
		c.log.Error("encode event", "event", string(ev.Name()), "err", err)
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.log.Warn("send buffer full, dropping", "event", string(ev.Name()))
	}
}

func (c *Client) stop() {
	c.once.Do(func() { close(c.done) })
}
