package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 64 << 10
)

type LiveConfig struct {
	URL        string
	Header     http.Header
	Dialer     *websocket.Dialer
	SendBuffer int
	Logger     *slog.Logger
}

// Live is the websocket-backed transport.
type Live struct {
	registry
	cfg LiveConfig
	log *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	writerOut chan struct{}
	connected bool
}

func NewLive(cfg LiveConfig) *Live {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Live{cfg: cfg, log: cfg.Logger.With("transport", "live", "url", cfg.URL)}
}

func (l *Live) Connect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.connected {
		return nil
	}

	conn, resp, err := l.cfg.Dialer.DialContext(ctx, l.cfg.URL, l.cfg.Header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", l.cfg.URL, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", l.cfg.URL, err)
	}

	l.conn = conn
	l.send = make(chan []byte, l.cfg.SendBuffer)
	l.done = make(chan struct{})
	l.writerOut = make(chan struct{})
	l.connected = true

	go l.writePump(conn, l.send, l.done, l.writerOut)
	go l.readPump(conn, l.done)

	l.log.Info("connected")
	return nil
}

func (l *Live) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

func (l *Live) readPump(conn *websocket.Conn, done chan struct{}) {
	defer l.drop(done)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.log.Warn("read error", "err", err)
			}
			return
		}
		ev, err := Decode(msg)
		if err != nil {
			// never trust a payload that failed its schema
			l.log.Warn("dropping inbound message", "err", err, "bytes", len(msg))
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		l.dispatch(ev)
	}
}

func (l *Live) writePump(conn *websocket.Conn, send <-chan []byte, done <-chan struct{}, out chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(out)
	}()

	for {
		select {
		case msg := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				l.log.Warn("write error", "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// drop marks the connection gone once, whichever side noticed first.
func (l *Live) drop(done chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != done || !l.connected {
		return
	}
	l.connected = false
	close(done)
	l.log.Info("disconnected")
}

func (l *Live) SubmitAnswer(ctx context.Context, questionID string, answerIndex, elapsedSeconds int) error {
	return l.Send(ctx, SubmitAnswer{QuestionID: questionID, AnswerIndex: answerIndex, ElapsedSeconds: elapsedSeconds})
}

func (l *Live) Send(ctx context.Context, a Action) error {
	data, err := EncodeAction(a)
	if err != nil {
		return err
	}

	l.mu.Lock()
	if !l.connected {
		l.mu.Unlock()
		return ErrNotConnected
	}
	send, done := l.send, l.done
	l.mu.Unlock()

	select {
	case send <- data:
		return nil
	case <-done:
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrSendBufferFull
	}
}

// Close sends a close frame and waits for the writer to release the socket.
func (l *Live) Close() error {
	l.mu.Lock()
	if l.conn == nil {
		l.mu.Unlock()
		return nil
	}
	done, out := l.done, l.writerOut
	if l.connected {
		l.connected = false
		close(done)
	}
	l.conn = nil
	l.mu.Unlock()

	select {
	case <-out:
		return nil
	case <-time.After(writeWait):
		return errors.New("timed out closing websocket")
	}
}
