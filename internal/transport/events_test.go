package transport

import (
	"encoding/json"
	"testing"

	"edu_arcade/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeQuestion(t *testing.T) {
	raw := []byte(`{"type":"gameQuestion","payload":{"questionNumber":2,"question":{"id":"q2","prompt":"2+2?","options":["3","4"],"correctAnswer":1}}}`)

	ev, err := Decode(raw)
	require.NoError(t, err)

	q, ok := ev.(QuestionEvent)
	require.True(t, ok)
	assert.Equal(t, 2, q.QuestionNumber)
	assert.Equal(t, "q2", q.Question.ID)
	assert.Equal(t, 1, q.Question.CorrectAnswer)
}

func TestDecodeHiddenAnswer(t *testing.T) {
	raw := []byte(`{"type":"gameQuestion","payload":{"questionNumber":1,"question":{"id":"q1","prompt":"p","options":["a","b"],"correctAnswer":-1}}}`)
	ev, err := Decode(raw)
	require.NoError(t, err)
	assert.True(t, ev.(QuestionEvent).Question.Hidden())
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":             `{"type":`,
		"question number zero": `{"type":"gameQuestion","payload":{"questionNumber":0,"question":{"id":"q","prompt":"p","options":["a","b"]}}}`,
		"one option":           `{"type":"gameQuestion","payload":{"questionNumber":1,"question":{"id":"q","prompt":"p","options":["a"]}}}`,
		"answer out of range":  `{"type":"gameQuestion","payload":{"questionNumber":1,"question":{"id":"q","prompt":"p","options":["a","b"],"correctAnswer":5}}}`,
		"answer below hidden":  `{"type":"gameQuestion","payload":{"questionNumber":1,"question":{"id":"q","prompt":"p","options":["a","b"],"correctAnswer":-2}}}`,
		"answer without user":  `{"type":"gameAnswer","payload":{"isCorrect":true,"timeElapsed":3}}`,
		"negative elapsed":     `{"type":"gameAnswer","payload":{"userId":"u","timeElapsed":-1}}`,
		"wrong field type":     `{"type":"gameAnswer","payload":{"userId":7}}`,
		"participant no id":    `{"type":"gameLeaderboard","payload":{"participants":[{"score":3}]}}`,
		"final score no id":    `{"type":"gameEnded","payload":{"final_scores":[{"score":3}]}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecodeUnknownEvent(t *testing.T) {
	_, err := Decode([]byte(`{"type":"gameExploded","payload":{}}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestDecodeEndedWithoutScores(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"gameEnded"}`))
	require.NoError(t, err)
	assert.Empty(t, ev.(EndedEvent).FinalScores)
}

func TestEncodeUsesWireNames(t *testing.T) {
	raw, err := Encode(EndedEvent{FinalScores: []domain.FinalScore{{PlayerID: "a", Score: 10}}})
	require.NoError(t, err)

	var env struct {
		Type    string                     `json:"type"`
		Payload map[string]json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "gameEnded", env.Type)
	assert.Contains(t, env.Payload, "final_scores")

	back, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "a", back.(EndedEvent).FinalScores[0].PlayerID)
}

func TestDecodeAction(t *testing.T) {
	a, err := DecodeAction([]byte(`{"type":"submitAnswer","payload":{"questionId":"q1","answerIndex":2,"elapsedSeconds":4}}`))
	require.NoError(t, err)
	assert.Equal(t, SubmitAnswer{QuestionID: "q1", AnswerIndex: 2, ElapsedSeconds: 4}, a)

	a, err = DecodeAction([]byte(`{"type":"roll"}`))
	require.NoError(t, err)
	assert.Equal(t, Roll{}, a)

	_, err = DecodeAction([]byte(`{"type":"playCard","payload":{}}`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeAction([]byte(`{"type":"submitAnswer","payload":{"questionId":"q1","answerIndex":-1}}`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeAction([]byte(`{"type":"dance"}`))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestRegistryOffDetaches(t *testing.T) {
	s := NewStandalone()
	calls := 0
	id := s.On(EventAnswer, func(Event) { calls++ })
	s.On(EventQuestion, func(Event) {})

	s.dispatch(AnswerEvent{UserID: "u"})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, s.Handlers())

	s.Off(EventAnswer, id)
	s.dispatch(AnswerEvent{UserID: "u"})
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, s.Handlers())
}
