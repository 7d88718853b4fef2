package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edu_arcade/internal/bot"
	"edu_arcade/internal/domain"
	"edu_arcade/internal/game"
	"edu_arcade/internal/transport"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// fastFactory squeezes a game into milliseconds: every "second" is 10ms.
func fastFactory() *game.Factory {
	f := game.NewFactory()
	for _, kind := range []domain.Kind{domain.KindTrivia, domain.KindBoardRace, domain.KindDebate} {
		f.WithLimits(kind, game.Limits{
			TickInterval:   10 * time.Millisecond,
			ResultDelay:    10 * time.Millisecond,
			RollDelay:      10 * time.Millisecond,
			MoveDelay:      10 * time.Millisecond,
			TotalQuestions: 2,
			TurnSeconds:    50,
			BoardSize:      6,
		})
	}
	return f
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string, int, time.Duration) (bool, error) { return false, nil }

func newServer(t *testing.T, cfg HubConfig) (*Hub, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if cfg.Factory == nil {
		cfg.Factory = fastFactory()
	}
	cfg.Logger = quiet()
	hub := NewHub(cfg)
	r := gin.New()
	r.GET("/ws", HandleWS(hub, ""))
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		hub.Shutdown()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil returns the first frame of type name.
func readUntil(t *testing.T, conn *websocket.Conn, name transport.EventName) transport.Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", name)
		var env transport.Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		if env.Type == string(name) {
			return env
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, a transport.Action) {
	t.Helper()
	raw, err := transport.EncodeAction(a)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, raw))
}

func TestMatchmadeTriviaPlaysToTheEnd(t *testing.T) {
	_, url := newServer(t, HubConfig{RoomSize: 2, Content: game.Content{Questions: game.SampleQuestions()}})
	started := testutil.ToFloat64(SessionsStarted.WithLabelValues("trivia"))

	players := []struct {
		id       string
		accuracy float64
	}{{"ana", 1}, {"bruno", 0}}

	var remotes []*bot.Remote
	for i, p := range players {
		live := transport.NewLive(transport.LiveConfig{URL: url + "?game=trivia&player=" + p.id + "&name=" + p.id, Logger: quiet()})
		b := bot.New(p.id, p.accuracy, rand.New(rand.NewPCG(uint64(i), 9)))
		// the host withholds answers, so the bots bring their own key
		b.Study(game.SampleQuestions())
		r := bot.NewRemote(b, live, nil, 0, quiet())
		r.Attach()
		require.NoError(t, live.Connect(context.Background()))
		t.Cleanup(func() {
			r.Detach()
			_ = live.Close()
		})
		remotes = append(remotes, r)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, r := range remotes {
		ended, err := r.Wait(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.ReasonCompleted, ended.Reason)
		assert.Equal(t, "ana", ended.WinnerID)
		require.Len(t, ended.FinalScores, 2)
		assert.Equal(t, "ana", ended.FinalScores[0].PlayerID)
		assert.Positive(t, ended.FinalScores[0].Score)
		assert.Zero(t, ended.FinalScores[1].Score)
	}
	assert.Equal(t, started+1, testutil.ToFloat64(SessionsStarted.WithLabelValues("trivia")))
}

func TestRelayedQuestionHidesAnswer(t *testing.T) {
	_, url := newServer(t, HubConfig{Content: game.Content{Questions: game.SampleQuestions()}})
	conn := dial(t, url+"?game=trivia&room=quiz1&player=solo")
	readUntil(t, conn, transport.EventReady)
	send(t, conn, transport.Start{})

	env := readUntil(t, conn, transport.EventQuestion)
	var q transport.QuestionEvent
	require.NoError(t, json.Unmarshal(env.Payload, &q))
	assert.Equal(t, 1, q.QuestionNumber)
	assert.True(t, q.Question.Hidden())
	assert.NotEmpty(t, q.Question.Options)

	env = readUntil(t, conn, transport.EventState)
	var st transport.StateEvent
	require.NoError(t, json.Unmarshal(env.Payload, &st))
	require.NotNil(t, st.State.Question)
	assert.Equal(t, domain.PhaseQuestion, st.State.Phase)
	assert.Equal(t, domain.AnswerHidden, st.State.Question.CorrectAnswer)

	// the answer is still judged against the real key
	var correct int
	for _, sq := range game.SampleQuestions() {
		if sq.ID == q.Question.ID {
			correct = sq.CorrectAnswer
		}
	}
	send(t, conn, transport.SubmitAnswer{QuestionID: q.Question.ID, AnswerIndex: correct})
	env = readUntil(t, conn, transport.EventAnswer)
	var ans transport.AnswerEvent
	require.NoError(t, json.Unmarshal(env.Payload, &ans))
	assert.True(t, ans.IsCorrect)
	assert.Positive(t, ans.Points)
}

func TestInvalidActionGetsError(t *testing.T) {
	_, url := newServer(t, HubConfig{RoomSize: 2})
	conn := dial(t, url+"?game=trivia&player=solo")
	readUntil(t, conn, transport.EventReady)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bogus"}`)))
	env := readUntil(t, conn, transport.EventError)
	assert.Contains(t, string(env.Payload), "unknown action")

	// answering before the room starts is refused as well
	send(t, conn, transport.SubmitAnswer{QuestionID: "q", AnswerIndex: 0})
	env = readUntil(t, conn, transport.EventError)
	assert.Contains(t, string(env.Payload), "not started")
}

func TestPrivateRoomStartsOnRequest(t *testing.T) {
	hub, url := newServer(t, HubConfig{RoomSize: 2})
	conn := dial(t, url+"?game=debate&room=class7&player=t1&name=Teacher")
	readUntil(t, conn, transport.EventState)

	room, ok := hub.Room("CLASS7")
	require.True(t, ok)
	assert.Equal(t, domain.KindDebate, room.Kind)
	assert.Equal(t, 1, room.Seats())
	assert.False(t, room.isStarted())

	send(t, conn, transport.Start{})
	for {
		env := readUntil(t, conn, transport.EventState)
		var st transport.StateEvent
		require.NoError(t, json.Unmarshal(env.Payload, &st))
		if st.State.Phase == domain.PhaseWaiting {
			assert.NotEmpty(t, st.State.Offer)
			break
		}
	}

	// same player id from a second socket
	dup := dial(t, url+"?room=class7&player=t1")
	env := readUntil(t, dup, transport.EventError)
	assert.Contains(t, string(env.Payload), ErrSeatTaken.Error())

	late := dial(t, url+"?room=class7&player=s2")
	env = readUntil(t, late, transport.EventError)
	assert.Contains(t, string(env.Payload), ErrRoomStarted.Error())
}

func TestLastDisconnectRemovesRoom(t *testing.T) {
	hub, url := newServer(t, HubConfig{RoomSize: 3})
	a := dial(t, url+"?game=board_race&player=a")
	b := dial(t, url+"?game=board_race&player=b")
	readUntil(t, a, transport.EventState)
	readUntil(t, b, transport.EventState)
	require.Eventually(t, func() bool { return hub.Rooms() == 1 }, time.Second, 10*time.Millisecond)

	var room *Room
	hub.mu.RLock()
	for _, r := range hub.rooms {
		room = r
	}
	hub.mu.RUnlock()
	require.Eventually(t, func() bool { return room.Seats() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool { return room.Seats() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, b.Close())
	assert.Eventually(t, func() bool { return hub.Rooms() == 0 }, time.Second, 10*time.Millisecond)
}

func TestActionsAreRateLimited(t *testing.T) {
	_, url := newServer(t, HubConfig{RoomSize: 2, Limiter: denyAll{}})
	conn := dial(t, url+"?player=x")
	readUntil(t, conn, transport.EventReady)

	send(t, conn, transport.Start{})
	env := readUntil(t, conn, transport.EventError)
	assert.Contains(t, string(env.Payload), ErrRateLimited.Error())
}

func TestHandlerRejectsBadQuery(t *testing.T) {
	_, url := newServer(t, HubConfig{})
	_, resp, err := websocket.DefaultDialer.Dial(url+"?game=chess", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestCleanupSweepsIdleRooms(t *testing.T) {
	hub := NewHub(HubConfig{Factory: fastFactory(), Logger: quiet(), StaleAfter: time.Nanosecond})
	_, err := hub.waitingRoom(domain.KindTrivia)
	require.NoError(t, err)
	require.Equal(t, 1, hub.Rooms())

	time.Sleep(time.Millisecond)
	hub.cleanupStaleRooms()
	assert.Zero(t, hub.Rooms())
}
