package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "WARN", true)

	Get().Info("hidden")
	ForPlayer(ForRoom(Get(), "ABC123", "trivia"), "ana").Warn("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "ABC123", line[KeyRoom])
	assert.Equal(t, "trivia", line[KeyKind])
	assert.Equal(t, "ana", line[KeyPlayer])
}

func TestForSession(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "debug", true)

	ForSession(Get(), "s-1", "debate").Debug("tick")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "s-1", line[KeySession])
	assert.Equal(t, "debate", line[KeyKind])
}

func TestFromContext(t *testing.T) {
	l := Discard()
	got, ok := FromContext(NewContext(context.Background(), l))
	require.True(t, ok)
	assert.Same(t, l, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
