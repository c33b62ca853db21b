package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	f, err := NewRequest("r1", "chat.send", chatSendParams{Message: "Find all dogs"})
	require.NoError(t, err)
	assert.Equal(t, FrameTypeRequest, f.Type)
	assert.Equal(t, "chat.send", f.Method)
	assert.JSONEq(t, `{"message":"Find all dogs"}`, string(f.Params))
}

func TestNewResponse(t *testing.T) {
	f, err := NewResponse("r1", map[string]bool{"accepted": true})
	require.NoError(t, err)
	require.NotNil(t, f.OK)
	assert.True(t, *f.OK)
	assert.Nil(t, f.Error)
}

func TestNewErrorResponse(t *testing.T) {
	f := NewErrorResponse("r1", ErrorShape{Code: "busy", Message: "pending", Retryable: true})
	require.NotNil(t, f.OK)
	assert.False(t, *f.OK)

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"res","id":"r1","ok":false,"error":{"code":"busy","message":"pending","retryable":true}}`, string(raw))
}

func TestNewEvent(t *testing.T) {
	f, err := NewEvent("chat.pending", map[string]bool{"pending": true}, 7)
	require.NoError(t, err)
	assert.Equal(t, FrameTypeEvent, f.Type)
	assert.Equal(t, int64(7), f.Seq)
	assert.JSONEq(t, `{"pending":true}`, string(f.Payload))
}

func TestConnectParams_OmitsNilAuth(t *testing.T) {
	raw, err := json.Marshal(ConnectParams{MinProtocol: 1, MaxProtocol: 1, Client: ClientInfo{ID: "cli"}})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"auth"`)
}

func TestConnectParams_Supports(t *testing.T) {
	tests := []struct {
		min, max int
		want     bool
	}{
		{1, 1, true},
		{0, 0, true},
		{1, 0, true},
		{2, 3, false},
	}
	for _, tt := range tests {
		p := ConnectParams{MinProtocol: tt.min, MaxProtocol: tt.max}
		assert.Equal(t, tt.want, p.supports(ProtocolVersion), "%d-%d", tt.min, tt.max)
	}
}

func TestDecodeFrame(t *testing.T) {
	f, err := DecodeFrame([]byte(`{"type":"req","id":"1","method":"health"}`))
	require.NoError(t, err)
	assert.Equal(t, "health", f.Method)

	_, err = DecodeFrame([]byte(`{"type":"rpc"}`))
	assert.ErrorContains(t, err, `unknown frame type "rpc"`)

	_, err = DecodeFrame([]byte(`not json`))
	assert.Error(t, err)
}
