package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hostStub writes frames to each client and forwards what the client sends.
func hostStub(t *testing.T, frames []string, got chan<- []byte) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			got <- msg
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestLiveDispatchesValidEventsInOrder(t *testing.T) {
	frames := []string{
		`{"type":"ready"}`,
		`{"type":"gameQuestion","payload":{"questionNumber":1,"question":{"id":"q1","prompt":"p","options":["a","b"],"correctAnswer":0}}}`,
		`{"type":"gameAnswer","payload":{"isCorrect":true}}`,
		`{"type":"gameBogus","payload":{}}`,
		`{"type":"gameAnswer","payload":{"userId":"u2","isCorrect":true,"timeElapsed":3}}`,
		`{"type":"gameEnded","payload":{"final_scores":[{"id":"u2","score":130}]}}`,
	}
	srv := hostStub(t, frames, make(chan []byte, 4))
	defer srv.Close()

	live := NewLive(LiveConfig{URL: wsURL(srv)})
	events := make(chan Event, 8)
	for _, name := range []EventName{EventQuestion, EventAnswer, EventEnded} {
		live.On(name, func(ev Event) { events <- ev })
	}

	require.NoError(t, live.Connect(context.Background()))
	defer live.Close()
	assert.True(t, live.IsConnected())

	var got []EventName
	for len(got) < 3 {
		select {
		case ev := <-events:
			got = append(got, ev.Name())
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, got %v", got)
		}
	}
	assert.Equal(t, []EventName{EventQuestion, EventAnswer, EventEnded}, got)
}

func TestLiveSendsActions(t *testing.T) {
	received := make(chan []byte, 4)
	srv := hostStub(t, nil, received)
	defer srv.Close()

	live := NewLive(LiveConfig{URL: wsURL(srv)})
	require.NoError(t, live.Connect(context.Background()))

	require.NoError(t, live.SubmitAnswer(context.Background(), "q7", 2, 5))

	select {
	case msg := <-received:
		a, err := DecodeAction(msg)
		require.NoError(t, err)
		assert.Equal(t, SubmitAnswer{QuestionID: "q7", AnswerIndex: 2, ElapsedSeconds: 5}, a)
	case <-time.After(2 * time.Second):
		t.Fatal("host never received the answer")
	}

	require.NoError(t, live.Close())
	assert.False(t, live.IsConnected())
	assert.ErrorIs(t, live.Send(context.Background(), Roll{}), ErrNotConnected)
}

func TestLiveNoticesServerHangup(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	live := NewLive(LiveConfig{URL: wsURL(srv)})
	require.NoError(t, live.Connect(context.Background()))

	assert.Eventually(t, func() bool { return !live.IsConnected() }, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, live.SubmitAnswer(context.Background(), "q", 0, 0), ErrNotConnected)
	assert.NoError(t, live.Close())
}
