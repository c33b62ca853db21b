package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	require.NotNil(t, log)

	log.Info().Str("session", "s1").Msg("turn started")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "turn started", line["message"])
	assert.Equal(t, "s1", line["session"])
}

func TestNewStyled_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log := NewStyled(&buf, "info", StylePretty)

	log.Info().Msg("pretty message")
	out := buf.String()
	assert.Contains(t, out, "pretty message")
	assert.False(t, json.Valid(buf.Bytes()), "pretty output should not be JSON")
}

func TestNewStyled_UnknownStyleIsPretty(t *testing.T) {
	var buf bytes.Buffer
	log := NewStyled(&buf, "info", "fancy")

	log.Info().Msg("hello")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestSub(t *testing.T) {
	var buf bytes.Buffer
	sub := New(&buf, "debug").Sub("assistant").Sub("turn")

	sub.Info().Msg("deep message")
	out := buf.String()
	assert.Contains(t, out, "deep message")
	assert.Contains(t, out, "turn")
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info").With("session", "abc").Info().Msg("x")
	assert.Contains(t, buf.String(), `"session":"abc"`)
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	assert.Empty(t, buf.String(), "debug and info should be filtered at warn level")

	log.Warn().Msg("warn msg")
	assert.Contains(t, buf.String(), "warn msg")
	assert.Equal(t, zerolog.WarnLevel, log.Level())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"silent", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestSilentAndNop(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")
	log.Error().Msg("should not appear")
	assert.Empty(t, buf.String())

	Nop().Error().Msg("discarded")
}
